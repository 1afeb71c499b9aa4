package userflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subject is the data a flow carries on behalf of its collaborators.
type Subject struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// Mailer sends the email address verification message.
// Called every time a flow enters email_not_verified.
type Mailer interface {
	SendVerification(ctx context.Context, subject Subject) error
}

// EmailVerifier reports whether the user confirmed their email address.
// Consulted before a flow may enter registration_complete.
type EmailVerifier interface {
	IsEmailVerified(ctx context.Context, userID string) (bool, error)
}

// PaymentGateway charges the user for the selected product.
// Implementations return an error wrapping ErrPaymentDeclined when the charge is declined.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// Sessions terminates the user's session when a flow enters logged_out.
type Sessions interface {
	End(ctx context.Context, userID string) error
}

// ChargeRequest is passed to PaymentGateway.Charge.
type ChargeRequest struct {
	FlowID    uuid.UUID
	UserID    string
	Email     string
	ProductID string
	// IdempotencyKey is unique per charge attempt of a flow.
	IdempotencyKey string
}

// Receipt confirms a successful charge.
type Receipt struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ChargedAt time.Time `json:"charged_at"`
}

// Hooks are caller-provided side effects for a state. Enter runs after the flow
// switched to the state, Exit before it leaves it. Either may be nil.
// Hooks run while the flow is locked and must not call back into it.
type Hooks struct {
	Enter HookFunc
	Exit  HookFunc
}

// HookFunc receives the state being entered or exited and the triggering event.
type HookFunc func(ctx context.Context, state StateID, event Event) error

// Transition describes a committed state change of a flow.
type Transition struct {
	FlowID  uuid.UUID
	From    StateID
	To      StateID
	Event   Event
	Version uint64
	At      time.Time
	// EnterErr is set when an enter hook of To failed; the flow is in To regardless.
	EnterErr error
}

// Observer is notified after every committed transition, while the flow is locked.
type Observer func(ctx context.Context, t Transition)
