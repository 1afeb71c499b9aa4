package userflow_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/userflow/pkg/userflow"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []userflow.Subject
	err  error
}

func (m *fakeMailer) SendVerification(_ context.Context, s userflow.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
	return m.err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeVerifier struct {
	verified bool
	err      error
	calls    int
}

func (v *fakeVerifier) IsEmailVerified(_ context.Context, _ string) (bool, error) {
	v.calls++
	return v.verified, v.err
}

type fakeGateway struct {
	requests []userflow.ChargeRequest
	errs     []error // consumed in order, nil means success
}

func (g *fakeGateway) Charge(_ context.Context, req userflow.ChargeRequest) (userflow.Receipt, error) {
	g.requests = append(g.requests, req)
	var err error
	if len(g.errs) > 0 {
		err, g.errs = g.errs[0], g.errs[1:]
	}
	if err != nil {
		return userflow.Receipt{}, err
	}
	return userflow.Receipt{
		ID:        fmt.Sprintf("rcpt_%d", len(g.requests)),
		ProductID: req.ProductID,
		ChargedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

type fakeSessions struct {
	ended []string
	err   error
}

func (s *fakeSessions) End(_ context.Context, userID string) error {
	s.ended = append(s.ended, userID)
	return s.err
}

// hookRecorder registers enter and exit hooks on every state and records the calls.
type hookRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *hookRecorder) options() []userflow.Option {
	opts := make([]userflow.Option, 0, len(userflow.States()))
	for _, s := range userflow.States() {
		opts = append(opts, userflow.WithHooks(s, userflow.Hooks{
			Enter: r.record("enter"),
			Exit:  r.record("exit"),
		}))
	}
	return opts
}

func (r *hookRecorder) record(kind string) userflow.HookFunc {
	return func(_ context.Context, state userflow.StateID, _ userflow.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, kind+":"+state.Name())
		return nil
	}
}

func (r *hookRecorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func testSubject() userflow.Subject {
	return userflow.Subject{UserID: "user-1", Email: "ann@example.com"}
}
