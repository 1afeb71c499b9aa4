package userflow

import "fmt"

// StateID names one of the concrete states of a flow.
// States carry no data, so a single value is shared by every flow.
type StateID string

const (
	StateNewUser              StateID = "new_user"
	StateRegistrationComplete StateID = "registration_complete"
	StateEmailNotVerified     StateID = "email_not_verified"
	StateExistingUser         StateID = "existing_user"
	StateProductSelected      StateID = "product_selected"
	StateCharging             StateID = "charging"
	StatePaymentDeclined      StateID = "payment_declined"
	StateLoggedOut            StateID = "logged_out"
)

var allStates = []StateID{
	StateNewUser,
	StateRegistrationComplete,
	StateEmailNotVerified,
	StateExistingUser,
	StateProductSelected,
	StateCharging,
	StatePaymentDeclined,
	StateLoggedOut,
}

// States returns every state in declaration order.
func States() []StateID {
	out := make([]StateID, len(allStates))
	copy(out, allStates)
	return out
}

// Name implements statemachine.State.
func (s StateID) Name() string { return string(s) }

func (s StateID) String() string { return string(s) }

// Valid reports whether s is one of the declared states.
func (s StateID) Valid() bool {
	for _, known := range allStates {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState maps a wire name back to its StateID.
func ParseState(name string) (StateID, error) {
	s := StateID(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return s, nil
}
