package statemachine

import (
	"errors"
	"fmt"
)

// ErrDuplicateTransition is returned by New when two unguarded transitions
// share the same source, event and target.
var ErrDuplicateTransition = errors.New("statemachine.duplicate_transition")

// ErrNoTransitionAvailable is returned by Fire when the current state has no
// transition registered for the event.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("statemachine: event %q is not defined in state %q", e.EventName, e.StateName)
}

// ErrTransitionRejected is returned by Fire when transitions exist for the
// event but every one of them was vetoed by a guard.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("statemachine: event %q vetoed in state %q", e.EventName, e.StateName)
}

// IsNoTransitionAvailableError reports whether err wraps *ErrNoTransitionAvailable.
func IsNoTransitionAvailableError(err error) bool {
	var target *ErrNoTransitionAvailable
	return errors.As(err, &target)
}

// IsTransitionRejectedError reports whether err wraps *ErrTransitionRejected.
func IsTransitionRejectedError(err error) bool {
	var target *ErrTransitionRejected
	return errors.As(err, &target)
}
