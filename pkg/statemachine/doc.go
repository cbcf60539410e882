// Package statemachine provides a small, generic finite-state machine.
//
// States and events are any comparable types with a Name method, which keeps
// transition tables type-checked at compile time:
//
//	type phase string
//	func (p phase) Name() string { return string(p) }
//
//	type signal string
//	func (s signal) Name() string { return string(s) }
//
//	m := statemachine.MustNew[phase, signal]("idle",
//	    statemachine.WithTransition[phase, signal]("idle", "connecting", "dial"),
//	)
//	_ = m.Fire(ctx, "dial")
//
// Guards veto transitions, actions run before the state changes (an action
// error aborts the transition) and observers run after the change, outside
// the internal lock. Errors distinguish an undefined transition
// (IsNoTransitionAvailableError) from a guard rejection
// (IsTransitionRejectedError).
package statemachine
