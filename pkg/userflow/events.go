package userflow

import "fmt"

// Event is a stimulus delivered to a flow. The string value is the wire name used in
// logs, metrics, graph files and persisted snapshots.
type Event string

const (
	EventNewUser              Event = "new_user"
	EventRegistrationComplete Event = "registration_complete"
	EventEmailNotVerified     Event = "email_not_verified"
	EventExistingUser         Event = "existing_user"
	EventSelectProduct        Event = "select_product"
	EventChargeUser           Event = "charge_user"
	EventPaymentDeclined      Event = "payment_declined"
	EventLogout               Event = "logout"
)

var allEvents = []Event{
	EventNewUser,
	EventRegistrationComplete,
	EventEmailNotVerified,
	EventExistingUser,
	EventSelectProduct,
	EventChargeUser,
	EventPaymentDeclined,
	EventLogout,
}

// Events returns every event in declaration order.
func Events() []Event {
	out := make([]Event, len(allEvents))
	copy(out, allEvents)
	return out
}

// Name implements statemachine.Event.
func (e Event) Name() string { return string(e) }

func (e Event) String() string { return string(e) }

// Valid reports whether e is one of the declared events.
func (e Event) Valid() bool {
	for _, known := range allEvents {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEvent maps a wire name back to its Event.
func ParseEvent(name string) (Event, error) {
	e := Event(name)
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return e, nil
}
