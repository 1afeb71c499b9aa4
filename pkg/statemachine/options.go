package statemachine

import (
	"fmt"
	"log/slog"
)

// Option configures a state machine during construction.
type Option func(*SimpleStateMachine) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*transitionConfig)

// TransitionDef defines a transition between states.
type TransitionDef struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a new state machine with the given initial state and options.
// Coverage requested with WithCoverage is checked after every option has been applied.
func New(initialState State, opts ...Option) (StateMachine, error) {
	if initialState == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}

	sm := newSimpleStateMachine(initialState)

	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}

	if err := sm.checkCoverage(); err != nil {
		return nil, err
	}

	return sm, nil
}

// MustNew creates a new state machine with the given initial state and options.
// Panics if any option fails to apply.
func MustNew(initialState State, opts ...Option) StateMachine {
	sm, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return sm
}

// WithName labels the machine in logs, metrics and spans.
func WithName(name string) Option {
	return func(sm *SimpleStateMachine) error {
		if name != "" {
			sm.name = name
		}
		return nil
	}
}

// WithLogger sets the logger used for unhandled events and failed transitions.
// Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(sm *SimpleStateMachine) error {
		if l != nil {
			sm.logger = l
		}
		return nil
	}
}

// WithUnhandledPolicy selects how Fire treats events the current state does not react to.
func WithUnhandledPolicy(p UnhandledPolicy) Option {
	return func(sm *SimpleStateMachine) error {
		sm.policy = p
		return nil
	}
}

// WithObserver registers a callback invoked after every committed transition.
func WithObserver(o Observer) Option {
	return func(sm *SimpleStateMachine) error {
		if o != nil {
			sm.observers = append(sm.observers, o)
		}
		return nil
	}
}

// WithOnEnter registers a hook executed when the machine enters state.
func WithOnEnter(state State, hook Hook) Option {
	return func(sm *SimpleStateMachine) error {
		return sm.addHook(sm.onEnter, state, hook)
	}
}

// WithOnExit registers a hook executed when the machine leaves state.
func WithOnExit(state State, hook Hook) Option {
	return func(sm *SimpleStateMachine) error {
		return sm.addHook(sm.onExit, state, hook)
	}
}

// WithIgnore declares that state deliberately does not react to events.
func WithIgnore(state State, events ...Event) Option {
	return func(sm *SimpleStateMachine) error {
		return sm.Ignore(state, events...)
	}
}

// WithCoverage requires every combination of states and events to be declared,
// either as a transition or through WithIgnore. New fails with ErrIncompleteCoverage otherwise.
func WithCoverage(states []State, events []Event) Option {
	return func(sm *SimpleStateMachine) error {
		sm.coverage = &coverageSpec{states: states, events: events}
		return nil
	}
}

// WithTransition adds a single transition to the state machine.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(sm *SimpleStateMachine) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}

		return sm.AddTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTransitions adds multiple transitions to the state machine at once.
func WithTransitions(transitions []TransitionDef) Option {
	return func(sm *SimpleStateMachine) error {
		for i, t := range transitions {
			if err := sm.AddTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				return fmt.Errorf("failed to add transition[%d] %s->%s on %s: %w",
					i, nameOf(t.From), nameOf(t.To), nameOf(t.Event), err)
			}
		}
		return nil
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards(guards ...Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, guard := range guards {
			if guard != nil {
				cfg.guards = append(cfg.guards, guard)
			}
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

// WithActions adds multiple actions to a transition.
func WithActions(actions ...Action) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, action := range actions {
			if action != nil {
				cfg.actions = append(cfg.actions, action)
			}
		}
	}
}

type named interface{ Name() string }

// nameOf handles nil states and events in error messages.
func nameOf(n named) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name()
}
