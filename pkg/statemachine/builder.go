package statemachine

// Builder provides a fluent API for building state machines.
// Configuration errors are collected and reported by Build.
type Builder struct {
	machine      *SimpleStateMachine
	currentFrom  State
	currentEvent Event
	currentTo    State
	guards       []Guard
	actions      []Action
	errs         []error
}

// NewBuilder creates a new state machine builder.
func NewBuilder(initialState State, opts ...Option) *Builder {
	b := &Builder{
		machine: newSimpleStateMachine(initialState),
	}
	for _, opt := range opts {
		if err := opt(b.machine); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	return b
}

// From sets the starting state for a transition.
func (b *Builder) From(state State) *Builder {
	b.reset()
	b.currentFrom = state
	return b
}

// When sets the event that triggers a transition.
func (b *Builder) When(event Event) *Builder {
	b.currentEvent = event
	return b
}

// To sets the target state for a transition.
func (b *Builder) To(state State) *Builder {
	b.currentTo = state
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder) WithGuard(guard Guard) *Builder {
	b.guards = append(b.guards, guard)
	return b
}

// WithAction adds an action function to the current transition.
func (b *Builder) WithAction(action Action) *Builder {
	b.actions = append(b.actions, action)
	return b
}

// Add finalizes the current transition and adds it to the state machine.
func (b *Builder) Add() (*Builder, error) {
	if err := b.machine.AddTransition(b.currentFrom, b.currentTo, b.currentEvent, b.guards, b.actions); err != nil {
		return b, err
	}
	b.reset()
	return b, nil
}

// WithTransition is a shorthand method to add a transition in one call.
func (b *Builder) WithTransition(from, to State, event Event, guard Guard, action Action) (*Builder, error) {
	var guards []Guard
	var actions []Action

	if guard != nil {
		guards = append(guards, guard)
	}

	if action != nil {
		actions = append(actions, action)
	}

	if err := b.machine.AddTransition(from, to, event, guards, actions); err != nil {
		return b, err
	}

	return b, nil
}

// Ignore declares events as no-ops for state.
func (b *Builder) Ignore(state State, events ...Event) *Builder {
	if err := b.machine.Ignore(state, events...); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// OnEnter registers an enter hook for state.
func (b *Builder) OnEnter(state State, hook Hook) *Builder {
	if err := b.machine.addHook(b.machine.onEnter, state, hook); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// OnExit registers an exit hook for state.
func (b *Builder) OnExit(state State, hook Hook) *Builder {
	if err := b.machine.addHook(b.machine.onExit, state, hook); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Build returns the constructed state machine, or the first configuration error.
// A nil initial state is rejected with ErrInvalidState.
func (b *Builder) Build() (StateMachine, error) {
	if b.machine.initialState == nil {
		return nil, ErrInvalidState
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if err := b.machine.checkCoverage(); err != nil {
		return nil, err
	}
	return b.machine, nil
}

// reset clears the current transition configuration.
func (b *Builder) reset() {
	b.currentFrom = nil
	b.currentEvent = nil
	b.currentTo = nil
	b.guards = nil
	b.actions = nil
}
