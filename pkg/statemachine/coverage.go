package statemachine

type coverageSpec struct {
	states []State
	events []Event
}

// checkCoverage returns ErrIncompleteCoverage when a covered state/event pair has
// neither a transition nor an ignore declaration. Pairs are reported in the order
// the states and events were given.
func (sm *SimpleStateMachine) checkCoverage() error {
	if sm.coverage == nil {
		return nil
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var missing []Pair
	for _, state := range sm.coverage.states {
		if state == nil {
			return ErrInvalidState
		}
		for _, event := range sm.coverage.events {
			if event == nil {
				return ErrInvalidEvent
			}
			if len(sm.transitions[state.Name()][event.Name()]) > 0 {
				continue
			}
			if _, ok := sm.ignored[state.Name()][event.Name()]; ok {
				continue
			}
			missing = append(missing, Pair{State: state.Name(), Event: event.Name()})
		}
	}

	if len(missing) > 0 {
		return &ErrIncompleteCoverage{Missing: missing}
	}
	return nil
}
