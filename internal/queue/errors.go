package queue

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
