package userflow

import "errors"

var (
	ErrUnknownState = errors.New("unknown state")
	ErrUnknownEvent = errors.New("unknown event")

	ErrDuplicateTransition = errors.New("duplicate transition for state and event")
	ErrEmptyGraph          = errors.New("transition graph has no transitions")
	ErrInvalidGraph        = errors.New("invalid transition graph")

	// ErrPaymentDeclined is returned by PaymentGateway implementations when the charge was declined.
	// ChargeUser wraps it after moving the flow to the payment_declined state.
	ErrPaymentDeclined = errors.New("payment declined")
	ErrProductRequired = errors.New("product id is required")
	ErrInvalidPayload  = errors.New("invalid event payload")

	ErrInvalidSnapshot = errors.New("invalid flow snapshot")
	ErrPersistFailed   = errors.New("failed to persist flow snapshot")
	ErrNilStore        = errors.New("snapshot store is nil")
)
