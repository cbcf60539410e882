package statemachine

import (
	"fmt"
)

// Option configures a state machine during construction.
type Option[S, E Named] func(*Machine[S, E]) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E Named] func(*Transition[S, E])

// WithTransition adds a single transition to the state machine.
func WithTransition[S, E Named](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		return m.add(t)
	}
}

// WithTransitions adds multiple transitions at once. Useful when several
// source states share the same event and target.
func WithTransitions[S, E Named](transitions ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for i, t := range transitions {
			if err := m.add(t); err != nil {
				return fmt.Errorf("transition[%d] %s->%s on %s: %w",
					i, t.From.Name(), t.To.Name(), t.Event.Name(), err)
			}
		}
		return nil
	}
}

// WithObserver registers a callback fired after every applied transition.
func WithObserver[S, E Named](obs Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition. Nil guards are ignored.
func WithGuard[S, E Named](guard Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if guard != nil {
			t.Guards = append(t.Guards, guard)
		}
	}
}

// WithAction adds an action to a transition. Nil actions are ignored.
func WithAction[S, E Named](action Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if action != nil {
			t.Actions = append(t.Actions, action)
		}
	}
}
