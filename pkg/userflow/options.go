package userflow

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option configures a Flow.
type Option func(*Flow)

func WithMailer(m Mailer) Option {
	return func(f *Flow) { f.mailer = m }
}

func WithEmailVerifier(v EmailVerifier) Option {
	return func(f *Flow) { f.verifier = v }
}

func WithPaymentGateway(g PaymentGateway) Option {
	return func(f *Flow) { f.gateway = g }
}

func WithSessions(s Sessions) Option {
	return func(f *Flow) { f.sessions = s }
}

// WithLogger sets the base logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithStrictEvents makes events the current state does not react to return an error
// instead of being dropped with a warning.
func WithStrictEvents() Option {
	return func(f *Flow) { f.strict = true }
}

// WithGraph replaces DefaultGraph. Empty graphs are ignored.
func WithGraph(g Graph) Option {
	return func(f *Flow) {
		if !g.IsZero() {
			f.graph = g
		}
	}
}

// WithStore persists a snapshot after every committed transition.
func WithStore(s SnapshotStore) Option {
	return func(f *Flow) { f.store = s }
}

// WithHooks registers caller side effects for state. May be used more than once per state;
// hooks run in registration order, after the built-in ones.
func WithHooks(state StateID, h Hooks) Option {
	return func(f *Flow) {
		if h.Enter == nil && h.Exit == nil {
			return
		}
		if f.hooks == nil {
			f.hooks = make(map[StateID][]Hooks)
		}
		f.hooks[state] = append(f.hooks[state], h)
	}
}

func WithObserver(o Observer) Option {
	return func(f *Flow) {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
}

// WithFlowID sets the flow identifier instead of generating one.
func WithFlowID(id uuid.UUID) Option {
	return func(f *Flow) {
		if id != uuid.Nil {
			f.id = id
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithInitialState starts a new flow somewhere other than new_user.
func WithInitialState(s StateID) Option {
	return func(f *Flow) { f.initial = s }
}

// WithMachineName labels the flow's machine in logs, metrics and spans.
func WithMachineName(name string) Option {
	return func(f *Flow) {
		if name != "" {
			f.name = name
		}
	}
}
