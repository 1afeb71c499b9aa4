// Package userflow models a user's way through registration, email verification,
// product selection and payment as a finite state machine.
//
// A Flow holds exactly one current state and reacts to eight events: new_user,
// registration_complete, email_not_verified, existing_user, select_product,
// charge_user, payment_declined and logout. Each state declares which events move it
// and to where (see DefaultGraph); every other event is a no-op for that state.
// A transition runs the exit hooks of the old state, switches, then runs the
// enter hooks of the new one.
//
// Side effects are delegated to optional collaborators:
//
//	flow, err := userflow.New(userflow.Subject{UserID: "u_1", Email: "ann@example.com"},
//		userflow.WithMailer(mailer),          // enter email_not_verified
//		userflow.WithEmailVerifier(verifier), // guard for registration_complete
//		userflow.WithPaymentGateway(gateway), // charge_user
//		userflow.WithSessions(sessions),      // enter logged_out
//		userflow.WithStore(store),            // snapshot after each transition
//	)
//	if err != nil {
//		return err
//	}
//
//	_ = flow.RegistrationComplete(ctx) // new_user -> email_not_verified, sends verification
//
// By default an event the current state does not react to is dropped and logged at
// warn level. WithStrictEvents turns it into a statemachine.ErrEventIgnored error.
//
// The transition table can be replaced with a YAML file (ParseGraph, Config.GraphFile).
// Pairs missing from the file become no-ops.
//
// Flows are persisted as Snapshot values through a SnapshotStore; see package flowstore.
package userflow
