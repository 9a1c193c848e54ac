package booking

import (
	"errors"
	"fmt"
)

var (
	ErrDoctorRequired = errors.New("doctor name required")
	ErrInvalidField   = errors.New("invalid field")
	ErrSlotTaken      = errors.New("room already booked at this time")
	ErrNotFound       = errors.New("booking not found")
)

// FieldError reports which form field failed validation. It matches ErrInvalidField.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }
