package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition      = errors.New("invalid transition: from, to, or event cannot be nil")
	ErrInvalidEvent           = errors.New("invalid event: event cannot be nil")
	ErrInvalidState           = errors.New("invalid state: state cannot be nil")
	ErrConflictingDeclaration = errors.New("state/event pair is declared both as transition and as ignored")

	ErrActionFailed    = errors.New("action failed")
	ErrExitHookFailed  = errors.New("exit hook failed")
	ErrEnterHookFailed = errors.New("enter hook failed")
)

// ErrNoTransitionAvailable indicates no valid transition exists for the given state/event combination.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.StateName, e.EventName)
}

func NewErrNoTransitionAvailable(stateName, eventName string) *ErrNoTransitionAvailable {
	return &ErrNoTransitionAvailable{
		StateName: stateName,
		EventName: eventName,
	}
}

// ErrTransitionRejected indicates all possible transitions were blocked by guard functions.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.StateName, e.EventName)
}

func NewErrTransitionRejected(stateName, eventName string) *ErrTransitionRejected {
	return &ErrTransitionRejected{
		StateName: stateName,
		EventName: eventName,
	}
}

// ErrEventIgnored indicates the current state explicitly declared the event as a no-op.
// Only returned under PolicyReject.
type ErrEventIgnored struct {
	StateName string
	EventName string
}

func (e *ErrEventIgnored) Error() string {
	return fmt.Sprintf("event '%s' is ignored in state '%s'", e.EventName, e.StateName)
}

func NewErrEventIgnored(stateName, eventName string) *ErrEventIgnored {
	return &ErrEventIgnored{
		StateName: stateName,
		EventName: eventName,
	}
}

// Pair is a state/event combination.
type Pair struct {
	State string
	Event string
}

func (p Pair) String() string {
	return p.State + "+" + p.Event
}

// ErrIncompleteCoverage lists state/event pairs that are neither a transition nor an explicit ignore.
type ErrIncompleteCoverage struct {
	Missing []Pair
}

func (e *ErrIncompleteCoverage) Error() string {
	names := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		names[i] = p.String()
	}
	return fmt.Sprintf("incomplete transition coverage: %d undeclared state/event pairs: %s",
		len(e.Missing), strings.Join(names, ", "))
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}

func IsEventIgnoredError(err error) bool {
	var e *ErrEventIgnored
	return errors.As(err, &e)
}

func IsIncompleteCoverageError(err error) bool {
	var e *ErrIncompleteCoverage
	return errors.As(err, &e)
}

// IsUnhandledError reports whether err means the event was not handled by the current state,
// either because it was declared as ignored or because no transition was registered.
func IsUnhandledError(err error) bool {
	return IsEventIgnoredError(err) || IsNoTransitionAvailableError(err)
}
