package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errSMTP := errors.New("smtp: connection refused")
	ok := func() error { return nil }
	fail := func() error { return errSMTP }

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(10, time.Minute, 0.3, 2).(*circuitBreaker)
	cb.now = func() time.Time { return clock }

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, Closed, cb.State())

	// 3 of the last 10 failing reaches the 30% threshold
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Call(fail), errSMTP)
	}
	require.Equal(t, Open, cb.State())

	called := false
	require.ErrorIs(t, cb.Call(func() error { called = true; return nil }), ErrOpenCB)
	require.False(t, called)

	// after the cooldown one failure sends it straight back to open
	clock = clock.Add(time.Minute)
	require.ErrorIs(t, cb.Call(fail), errSMTP)
	require.Equal(t, Open, cb.State())
	require.ErrorIs(t, cb.Call(ok), ErrOpenCB)

	clock = clock.Add(time.Minute)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, Closed, cb.State())

	// window was cleared on close
	require.ErrorIs(t, cb.Call(fail), errSMTP)
	require.Equal(t, Closed, cb.State())
}

func Test_circuitBreaker_Reset(t *testing.T) {
	t.Parallel()
	cb := New(1, time.Hour, 1, 1)
	require.Error(t, cb.Call(func() error { return errors.New("x") }))
	require.Equal(t, Open, cb.State())

	cb.Reset()
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	require.Equal(t, "closed", cb.State().String())
}
