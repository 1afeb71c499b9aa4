package statemachine

import (
	"context"
	"time"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Hook runs when a state is entered or exited. The state argument is the state being
// entered or exited, event is the event that caused the transition.
type Hook func(ctx context.Context, state State, event Event, data any) error

// Observer is notified after every committed transition. It runs while the machine
// lock is held and must not call back into the machine.
type Observer func(ctx context.Context, record TransitionRecord)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // All must pass for transition to proceed
	Actions []Action // Executed in order before the exit hooks of From
}

// TransitionRecord describes a committed transition.
type TransitionRecord struct {
	From  State
	To    State
	Event Event
	Data  any
	At    time.Time
	// EnterErr is set when an enter hook of To failed. The transition is still committed.
	EnterErr error
}

// UnhandledPolicy decides what Fire does with an event the current state does not react to.
type UnhandledPolicy int

const (
	// PolicyReject returns ErrEventIgnored for declared ignores and
	// ErrNoTransitionAvailable for undeclared pairs.
	PolicyReject UnhandledPolicy = iota
	// PolicyIgnore drops the event, logs a warning and returns nil.
	PolicyIgnore
)

func (p UnhandledPolicy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	default:
		return "reject"
	}
}

// StateMachine defines the core finite state machine operations.
type StateMachine interface {
	Current() State
	AddTransition(from, to State, event Event, guards []Guard, actions []Action) error
	Ignore(state State, events ...Event) error
	Fire(ctx context.Context, event Event, data any) error
	CanFire(ctx context.Context, event Event, data any) bool
	SetState(state State) error
	Transitions() []Transition
	Reset() error
}

// StringState provides a simple string-based state implementation for basic use cases.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation for basic use cases.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
