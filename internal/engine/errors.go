package engine

import (
	"errors"
	"fmt"
)

// Class separates retryable failures from permanent ones. Adapter errors
// are transient and scoped to one lookup or leg; validation and state
// errors reject the whole operation before any side effect.
type Class string

const (
	ClassValidation Class = "validation"
	ClassAdapter    Class = "adapter"
	ClassState      Class = "state"
)

// ClassifiedError tags an underlying error with its class.
type ClassifiedError struct {
	Class Class
	Err   error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

func validationErr(err error) error {
	return &ClassifiedError{Class: ClassValidation, Err: err}
}

func adapterErr(err error) error {
	return &ClassifiedError{Class: ClassAdapter, Err: err}
}

func stateErr(err error) error {
	return &ClassifiedError{Class: ClassState, Err: err}
}

// ClassOf extracts the error class; unclassified errors count as
// validation (non-retryable).
func ClassOf(err error) Class {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassValidation
}

// Retryable reports whether the caller may retry the whole evaluation.
func Retryable(err error) bool {
	return ClassOf(err) == ClassAdapter
}
