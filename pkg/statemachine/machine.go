package statemachine

import (
	"context"
	"fmt"
	"sync"
)

type transitionKey[S, E Named] struct {
	from  S
	event E
}

// Machine is a thread-safe in-memory finite state machine.
// Transitions are indexed by (from, event) for O(1) lookups; several
// transitions may share a key and are tried in registration order.
type Machine[S, E Named] struct {
	current     S
	transitions map[transitionKey[S, E]][]Transition[S, E]
	observers   []Observer[S, E]
	mu          sync.RWMutex
}

// New creates a new state machine with the given initial state and options.
func New[S, E Named](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		current:     initial,
		transitions: make(map[transitionKey[S, E]][]Transition[S, E]),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew is like New but panics on misconfiguration. Transition tables are
// static, so a failure here is a programming error.
func MustNew[S, E Named](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) add(t Transition[S, E]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := transitionKey[S, E]{from: t.From, event: t.Event}
	for _, existing := range m.transitions[key] {
		// Unguarded duplicates would shadow each other forever.
		if existing.To == t.To && len(existing.Guards) == 0 && len(t.Guards) == 0 {
			return ErrDuplicateTransition
		}
	}
	m.transitions[key] = append(m.transitions[key], t)
	return nil
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in any of the given states.
func (m *Machine[S, E]) Is(states ...S) bool {
	cur := m.Current()
	for _, s := range states {
		if s == cur {
			return true
		}
	}
	return false
}

// Fire applies the first transition for event whose guards all pass.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) error {
	m.mu.Lock()

	from := m.current
	candidates := m.transitions[transitionKey[S, E]{from: from, event: event}]
	if len(candidates) == 0 {
		m.mu.Unlock()
		return &ErrNoTransitionAvailable{StateName: from.Name(), EventName: event.Name()}
	}

	var chosen *Transition[S, E]
	for i := range candidates {
		if passes(ctx, candidates[i], from, event) {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		m.mu.Unlock()
		return &ErrTransitionRejected{StateName: from.Name(), EventName: event.Name()}
	}

	for _, action := range chosen.Actions {
		if err := action(ctx, from, chosen.To, event); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = chosen.To
	observers := m.observers
	m.mu.Unlock()

	for _, obs := range observers {
		obs(ctx, from, chosen.To, event)
	}
	return nil
}

// CanFire reports whether Fire would succeed for event in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.transitions[transitionKey[S, E]{from: m.current, event: event}] {
		if passes(ctx, t, m.current, event) {
			return true
		}
	}
	return false
}

func passes[S, E Named](ctx context.Context, t Transition[S, E], from S, event E) bool {
	for _, guard := range t.Guards {
		if !guard(ctx, from, event) {
			return false
		}
	}
	return true
}
