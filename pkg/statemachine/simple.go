package statemachine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/userflow/pkg/logger"
)

const defaultMachineName = "statemachine"

// SimpleStateMachine provides a thread-safe in-memory state machine implementation.
// Uses a nested map structure for O(1) transition lookups: [fromState][event][]Transition
type SimpleStateMachine struct {
	name         string
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	ignored      map[string]map[string]struct{}
	onEnter      map[string][]Hook
	onExit       map[string][]Hook
	observers    []Observer
	policy       UnhandledPolicy
	coverage     *coverageSpec
	logger       *slog.Logger
	now          func() time.Time
	mu           sync.RWMutex
}

func newSimpleStateMachine(initialState State) *SimpleStateMachine {
	sm := &SimpleStateMachine{
		name:         defaultMachineName,
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
		ignored:      make(map[string]map[string]struct{}),
		onEnter:      make(map[string][]Hook),
		onExit:       make(map[string][]Hook),
		policy:       PolicyReject,
		logger:       slog.Default(),
		now:          time.Now,
	}
	return sm
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// Name returns the label used in logs, metrics and spans.
func (sm *SimpleStateMachine) Name() string {
	return sm.name
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	fromStateName := from.Name()
	eventName := event.Name()

	if _, ok := sm.ignored[fromStateName][eventName]; ok {
		return fmt.Errorf("%w: %s", ErrConflictingDeclaration, Pair{fromStateName, eventName})
	}

	if _, ok := sm.transitions[fromStateName]; !ok {
		sm.transitions[fromStateName] = make(map[string][]Transition)
	}

	transition := Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	sm.transitions[fromStateName][eventName] = append(sm.transitions[fromStateName][eventName], transition)
	return nil
}

// Ignore declares events as deliberate no-ops for state.
func (sm *SimpleStateMachine) Ignore(state State, events ...Event) error {
	if state == nil {
		return ErrInvalidState
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	stateName := state.Name()
	for _, event := range events {
		if event == nil {
			return ErrInvalidEvent
		}
		if len(sm.transitions[stateName][event.Name()]) > 0 {
			return fmt.Errorf("%w: %s", ErrConflictingDeclaration, Pair{stateName, event.Name()})
		}
		if _, ok := sm.ignored[stateName]; !ok {
			sm.ignored[stateName] = make(map[string]struct{})
		}
		sm.ignored[stateName][event.Name()] = struct{}{}
	}
	return nil
}

// Fire dispatches event to the current state. A committed transition runs, in order:
// actions, exit hooks of the current state, the state swap, enter hooks of the target.
// A failing action or exit hook leaves the state untouched. A failing enter hook
// does not roll back: the machine stays in the target state and the error is returned.
func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) (err error) {
	if event == nil {
		return ErrInvalidEvent
	}

	start := sm.now()
	ctx, span := startFireSpan(ctx, sm.name, event)
	defer func() { endFireSpan(span, err) }()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.currentState
	currentStateName := from.Name()
	eventName := event.Name()
	span.SetAttributes(fromStateAttr(currentStateName))

	transitions := sm.transitions[currentStateName][eventName]
	if len(transitions) == 0 {
		return sm.unhandled(ctx, currentStateName, eventName)
	}

	// First transition with passing guards wins (enables priority ordering)
	validTransition := sm.selectTransition(ctx, transitions, event, data)
	if validTransition == nil {
		sm.recordFailure(ctx, currentStateName, eventName, stageGuard, nil)
		return NewErrTransitionRejected(currentStateName, eventName)
	}

	to := validTransition.To
	span.SetAttributes(toStateAttr(to.Name()))

	// Execute actions before state change; any failure aborts transition
	for _, action := range validTransition.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, to, event, data); err != nil {
			sm.recordFailure(ctx, currentStateName, eventName, stageAction, err)
			return fmt.Errorf("%w: %w", ErrActionFailed, err)
		}
	}

	for _, hook := range sm.onExit[currentStateName] {
		if err := hook(ctx, from, event, data); err != nil {
			sm.recordFailure(ctx, currentStateName, eventName, stageExit, err)
			return fmt.Errorf("%w: state '%s': %w", ErrExitHookFailed, currentStateName, err)
		}
	}

	sm.currentState = to

	var enterErr error
	for _, hook := range sm.onEnter[to.Name()] {
		if err := hook(ctx, to, event, data); err != nil {
			sm.recordFailure(ctx, to.Name(), eventName, stageEnter, err)
			enterErr = fmt.Errorf("%w: state '%s': %w", ErrEnterHookFailed, to.Name(), err)
			break
		}
	}

	transitionsTotal.WithLabelValues(sm.name, currentStateName, to.Name(), eventName).Inc()
	fireDuration.WithLabelValues(sm.name, eventName).Observe(sm.now().Sub(start).Seconds())

	sm.logger.DebugContext(ctx, "state transition",
		logger.Machine(sm.name),
		logger.FromState(currentStateName),
		logger.ToState(to.Name()),
		logger.Event(eventName),
	)

	record := TransitionRecord{
		From:     from,
		To:       to,
		Event:    event,
		Data:     data,
		At:       sm.now(),
		EnterErr: enterErr,
	}
	for _, o := range sm.observers {
		o(ctx, record)
	}

	return enterErr
}

func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	transitions := sm.transitions[sm.currentState.Name()][event.Name()]
	if len(transitions) == 0 {
		return false
	}

	return sm.selectTransition(ctx, transitions, event, data) != nil
}

// SetState forces the current state without running hooks, actions or observers.
// Intended for restoring a persisted machine.
func (sm *SimpleStateMachine) SetState(state State) error {
	if state == nil {
		return ErrInvalidState
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = state
	return nil
}

// Transitions returns every registered transition ordered by source state and event name.
func (sm *SimpleStateMachine) Transitions() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var out []Transition
	for _, byEvent := range sm.transitions {
		for _, ts := range byEvent {
			out = append(out, ts...)
		}
	}

	// Stable so that guard priority order within a pair is preserved
	slices.SortStableFunc(out, func(a, b Transition) int {
		return cmp.Or(
			cmp.Compare(a.From.Name(), b.From.Name()),
			cmp.Compare(a.Event.Name(), b.Event.Name()),
		)
	})
	return out
}

// IsIgnored reports whether state declared event as a no-op.
func (sm *SimpleStateMachine) IsIgnored(state State, event Event) bool {
	if state == nil || event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.ignored[state.Name()][event.Name()]
	return ok
}

func (sm *SimpleStateMachine) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
	return nil
}

func (sm *SimpleStateMachine) selectTransition(ctx context.Context, transitions []Transition, event Event, data any) *Transition {
	for i, t := range transitions {
		allGuardsPassed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, sm.currentState, event, data) {
				allGuardsPassed = false
				break
			}
		}
		if allGuardsPassed {
			return &transitions[i]
		}
	}
	return nil
}

// unhandled applies the configured policy. Must be called with the lock held.
func (sm *SimpleStateMachine) unhandled(ctx context.Context, stateName, eventName string) error {
	_, declared := sm.ignored[stateName][eventName]
	unhandledTotal.WithLabelValues(sm.name, stateName, eventName).Inc()

	if sm.policy == PolicyIgnore {
		sm.logger.WarnContext(ctx, "event not handled",
			logger.Machine(sm.name),
			logger.State(stateName),
			logger.Event(eventName),
			slog.Bool("declared", declared),
		)
		return nil
	}

	if declared {
		return NewErrEventIgnored(stateName, eventName)
	}
	return NewErrNoTransitionAvailable(stateName, eventName)
}

func (sm *SimpleStateMachine) recordFailure(ctx context.Context, stateName, eventName, stage string, err error) {
	failuresTotal.WithLabelValues(sm.name, stateName, eventName, stage).Inc()

	// Guard rejections carry no error and are an expected outcome.
	level := slog.LevelError
	if err == nil {
		level = slog.LevelWarn
	}
	sm.logger.Log(ctx, level, "state transition failed",
		logger.Machine(sm.name),
		logger.State(stateName),
		logger.Event(eventName),
		slog.String("stage", stage),
		logger.Error(err),
	)
}

func (sm *SimpleStateMachine) addHook(hooks map[string][]Hook, state State, hook Hook) error {
	if state == nil {
		return ErrInvalidState
	}
	if hook == nil {
		return nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	hooks[state.Name()] = append(hooks[state.Name()], hook)
	return nil
}
