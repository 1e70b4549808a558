package models

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError
var ErrValidation = errors.New("validation error")

// ValidationError reports input that cannot form a well-formed Entity.
// No state is committed when it is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Msg
}

// Is makes errors.Is(err, ErrValidation) succeed
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
