// Package statemachine provides a table-driven finite-state machine engine.
//
// The package revolves around two minimal interfaces, State and Event, that
// give you full freedom to model domain specific states and events while the
// engine handles:
//  1. Transition lookup, with optional Guards to accept or reject a transition
//  2. Actions executed before the state changes
//  3. Enter and exit hooks scoped to a state's active period
//  4. Explicit ignore declarations and a configurable unhandled-event policy
//  5. Coverage validation, so that adding an event forces every state to be reconsidered
//  6. Concurrency-safe access, Prometheus metrics and OpenTelemetry spans
//
// # Transition protocol
//
// Fire runs a transition atomically under the machine lock:
//
//	guards -> actions -> exit hooks(from) -> current = to -> enter hooks(to) -> observers
//
// A failing guard, action or exit hook leaves the current state untouched and runs
// no further hooks. A failing enter hook does not roll back the transition.
// Self transitions run both exit and enter hooks.
//
// # Usage
//
//	const (
//	    Draft    = statemachine.StringState("draft")
//	    InReview = statemachine.StringState("in_review")
//	    Submit   = statemachine.StringEvent("submit")
//	    Withdraw = statemachine.StringEvent("withdraw")
//	)
//
//	machine := statemachine.MustNew(Draft,
//	    statemachine.WithTransition(Draft, InReview, Submit),
//	    statemachine.WithIgnore(Draft, Withdraw),
//	    statemachine.WithIgnore(InReview, Submit, Withdraw),
//	    statemachine.WithOnEnter(InReview, notifyReviewers),
//	    statemachine.WithCoverage(
//	        []statemachine.State{Draft, InReview},
//	        []statemachine.Event{Submit, Withdraw},
//	    ),
//	)
//
//	_ = machine.Fire(ctx, Submit, nil)
//
// # Unhandled events
//
// Under PolicyReject (the default) Fire returns ErrEventIgnored for declared
// no-ops and ErrNoTransitionAvailable for undeclared pairs. Under PolicyIgnore
// both are dropped, a warning is logged and Fire returns nil.
//
// # Error Handling
//
//	if statemachine.IsUnhandledError(err)          { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err) { /* ... */ }
//	if errors.Is(err, statemachine.ErrEnterHookFailed) { /* state already changed */ }
package statemachine
