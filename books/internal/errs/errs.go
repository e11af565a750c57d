package errs

import (
	"errors"

	"github.com/Astemirdum/booktracker/pkg/validate"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrConflict = errors.New("book already exists")
)

type ValidationError struct {
	Errors []validate.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + validate.Errors(e.Errors).Error()
}

// FromValidation turns a validate.Errors into a *ValidationError; other errors pass through.
func FromValidation(err error) error {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return &ValidationError{Errors: verrs}
	}
	return err
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []validate.FieldError{{Field: field, Message: message}}}
}
