package channel

import (
	"context"

	"github.com/dmitrymomot/lecturefeed/pkg/statemachine"
)

// State is the lifecycle state of a channel instance.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
	StateErrored    State = "errored"
)

// Name implements statemachine.Named.
func (s State) Name() string { return string(s) }

func (s State) String() string { return string(s) }

// Event drives instance state changes.
type Event string

const (
	EventDial      Event = "dial"
	EventConnected Event = "connected"
	EventRelease   Event = "release"
	EventReleased  Event = "released"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

// Name implements statemachine.Named.
func (e Event) Name() string { return string(e) }

// lifecycle holds the transitions that need no per-instance hooks.
var lifecycle = []statemachine.Transition[State, Event]{
	{From: StateIdle, To: StateConnecting, Event: EventDial},
	{From: StateClosing, To: StateClosed, Event: EventReleased},
	{From: StateErrored, To: StateClosed, Event: EventRelease},
	{From: StateClosed, To: StateIdle, Event: EventReset},
}

// newLifecycle builds the state machine of one instance.
//
// A dial may only complete while current reports the instance as the latest
// generation; otherwise Fire returns a *statemachine.ErrTransitionRejected.
// teardown runs whenever a connecting or open instance is released or fails,
// before the state changes.
func newLifecycle(current func() bool, teardown func(), observer statemachine.Observer[State, Event]) *statemachine.Machine[State, Event] {
	latest := statemachine.WithGuard(statemachine.Guard[State, Event](
		func(context.Context, State, Event) bool { return current() },
	))
	stop := statemachine.WithAction(statemachine.Action[State, Event](
		func(context.Context, State, State, Event) error {
			teardown()
			return nil
		},
	))

	return statemachine.MustNew(StateIdle,
		statemachine.WithTransitions(lifecycle...),
		statemachine.WithTransition(StateConnecting, StateOpen, EventConnected, latest),
		statemachine.WithTransition(StateConnecting, StateClosing, EventRelease, stop),
		statemachine.WithTransition(StateOpen, StateClosing, EventRelease, stop),
		statemachine.WithTransition(StateConnecting, StateErrored, EventFail, stop),
		statemachine.WithTransition(StateOpen, StateErrored, EventFail, stop),
		statemachine.WithObserver(observer),
	)
}
