package statemachine

import (
	"context"
)

// Named is satisfied by state and event types. Implementations are usually
// string-backed constants, so values must be comparable.
type Named interface {
	comparable
	Name() string
}

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action[S, E Named] func(ctx context.Context, from, to S, event E) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E Named] func(ctx context.Context, from S, event E) bool

// Observer is notified after a transition has been applied.
// Observers run outside the machine lock and may read the current state.
type Observer[S, E Named] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E Named] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before state change
}
