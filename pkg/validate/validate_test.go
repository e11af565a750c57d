package validate_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/booktracker/pkg/validate"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title  string `json:"title" validate:"required,min=1,max=5"`
	Year   int    `json:"year" validate:"min=1000,notfuture"`
	Status string `query:"status" validate:"omitempty,oneof=Reading Completed"`
	Rating *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

func TestCustomValidator_Validate(t *testing.T) {
	t.Parallel()
	six := 6
	tests := []struct {
		name string
		in   sample
		want validate.Errors
	}{
		{
			name: "ok",
			in:   sample{Title: "Dune", Year: 1965},
		},
		{
			name: "required and future year",
			in:   sample{Year: time.Now().Year() + 1},
			want: validate.Errors{
				{Field: "title", Message: "is required"},
				{Field: "year", Message: "cannot be in the future"},
			},
		},
		{
			name: "runes not bytes",
			in:   sample{Title: "ёжики", Year: 2000},
		},
		{
			name: "too long, enum, range",
			in:   sample{Title: "Foundation", Year: 999, Status: "Lost", Rating: &six},
			want: validate.Errors{
				{Field: "title", Message: "cannot be more than 5 characters"},
				{Field: "year", Message: "must be at least 1000"},
				{Field: "status", Message: "must be one of: Reading, Completed"},
				{Field: "rating", Message: "cannot be more than 5"},
			},
		},
	}
	v := validate.NewCustomValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(tt.in)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			var got validate.Errors
			require.ErrorAs(t, err, &got)
			require.Equal(t, tt.want, got)
		})
	}
}
