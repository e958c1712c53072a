package school

import (
	"errors"
	"fmt"
)

// Mutation methods follow one convention: nil means the change was applied,
// a non-nil error means nothing was changed. The sentinel tells callers why.
var (
	// ErrTransitionNotAllowed: the current status does not allow this action.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	// ErrPrecondition: the method was called on an entity in the wrong state
	// entirely (approving a payroll that is not Draft).
	ErrPrecondition = errors.New("precondition failed")
	// ErrOutOfRange: a numeric or time argument is outside its permitted range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidArgument: a required argument is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict: the change collides with existing state (duplicate, full).
	ErrConflict = errors.New("conflict")
	// ErrInvariant: stored state already breaks an invariant.
	ErrInvariant = errors.New("invariant violation")
)

func transitionErr(entity, from, to string) error {
	return fmt.Errorf("%w: %s cannot move from %q to %q", ErrTransitionNotAllowed, entity, from, to)
}

func preconditionErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

func rangeErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, fmt.Sprintf(format, args...))
}

func argumentErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func conflictErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
