package handler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/notifier/internal/handler"
	"github.com/Astemirdum/booktracker/pkg/kafka"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type sent struct{ to, name, title string }

func TestConsumer_ConsumeClaim(t *testing.T) {
	t.Parallel()
	var got []sent
	send := func(_ context.Context, to, name, title string) error {
		got = append(got, sent{to, name, title})
		if title == "Broken" {
			return errors.New("smtp down")
		}
		return nil
	}
	consumer := handler.NewConsumer(send, zap.NewNop())

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 8)}
	msgs := [][]byte{
		[]byte(`{"bookId":"b1","ownerId":"u1","email":"alice@example.com","name":"Alice","title":"Dune","timestamp":"2024-05-15T12:00:00Z"}`),
		[]byte(`not json`),
		[]byte(`{"bookId":"b2","ownerId":"u1","email":"","title":"No Recipient"}`),
		[]byte(`{"bookId":"b3","ownerId":"u1","email":"alice@example.com","name":"Alice","title":"Broken"}`),
	}
	for i, m := range msgs {
		claim.messages <- &sarama.ConsumerMessage{Topic: kafka.BookAddedTopic, Offset: int64(i), Value: m}
	}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	require.NoError(t, consumer.Setup(session))
	<-consumer.Ready()
	require.NoError(t, consumer.Setup(session), "setup runs again after a rebalance")

	require.NoError(t, consumer.ConsumeClaim(session, claim))
	require.NoError(t, consumer.Cleanup(session))

	require.Equal(t, []sent{
		{"alice@example.com", "Alice", "Dune"},
		{"alice@example.com", "Alice", "Broken"},
	}, got)
	require.Equal(t, []int64{0, 1, 2, 3}, session.marked)
}

func TestConsumer_ConsumeClaim_sessionDone(t *testing.T) {
	t.Parallel()
	consumer := handler.NewConsumer(func(context.Context, string, string, string) error {
		t.Fatal("nothing to send")
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := &fakeSession{ctx: ctx}
	require.NoError(t, consumer.ConsumeClaim(session, &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}))
	require.Empty(t, session.marked)
}
