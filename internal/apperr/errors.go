package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409),
// e.g. the order already has an active assignment.
var ErrConflict = errors.New("conflict")

// ErrPrecondition indicates the target entity is in a state that forbids
// the operation, e.g. assigning to an agent that is not active.
var ErrPrecondition = errors.New("precondition failed")

// ErrCapacityExceeded indicates the agent is already at its capacity.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrInvalidTransition indicates an illegal assignment status edge.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInvariant indicates an internal consistency failure. Always a defect,
// never reachable through valid API input; maps to HTTP 500.
var ErrInvariant = errors.New("invariant violation")

// ValidationError reports every violated field of a request, not just the
// first one. It unwraps to ErrInvalid so callers can match with errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validation builds a ValidationError from the violated field names.
// It returns nil when no fields are violated.
func Validation(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
