package userflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/userflow/pkg/logger"
	"github.com/dmitrymomot/userflow/pkg/statemachine"
)

const defaultMachineName = "userflow"

var defaultGraph = DefaultGraph()

// Flow is one user's journey through registration and payment.
// It holds exactly one current state and serializes event dispatch,
// so at most one event is processed at a time.
type Flow struct {
	id      uuid.UUID
	name    string
	initial StateID
	graph   Graph
	strict  bool
	machine statemachine.StateMachine

	subject        Subject
	version        uint64
	receipt        *Receipt
	pendingReceipt *Receipt
	updatedAt      time.Time

	mailer   Mailer
	verifier EmailVerifier
	gateway  PaymentGateway
	sessions Sessions
	store    SnapshotStore

	hooks     map[StateID][]Hooks
	observers []Observer
	logger    *slog.Logger
	now       func() time.Time

	mu sync.RWMutex
}

// New starts a flow for subject in new_user. No hooks run on creation.
func New(subject Subject, opts ...Option) (*Flow, error) {
	f := newFlow(subject, opts)
	if err := f.build(); err != nil {
		return nil, err
	}
	f.updatedAt = f.now()
	return f, nil
}

// Restore rebuilds a flow from a snapshot. The flow resumes in the snapshot state
// without running any hooks.
func Restore(snap Snapshot, opts ...Option) (*Flow, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	all := make([]Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all, WithFlowID(snap.FlowID), WithInitialState(snap.State))

	f := newFlow(snap.Subject, all)
	f.version = snap.Version
	f.receipt = snap.Receipt
	f.updatedAt = snap.UpdatedAt
	if err := f.build(); err != nil {
		return nil, err
	}
	return f, nil
}

func newFlow(subject Subject, opts []Option) *Flow {
	f := &Flow{
		id:      uuid.New(),
		name:    defaultMachineName,
		initial: StateNewUser,
		graph:   defaultGraph,
		subject: subject,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(
		logger.Component("userflow"),
		logger.FlowID(f.id.String()),
		logger.UserID(subject.UserID),
	)
	return f
}

// build wires the graph, guards, actions and hooks into a state machine. Every pair the
// graph does not list is declared ignored, and coverage of all pairs is checked.
func (f *Flow) build() error {
	if !f.initial.Valid() {
		return fmt.Errorf("initial state: %w: %q", ErrUnknownState, f.initial)
	}

	policy := statemachine.PolicyIgnore
	if f.strict {
		policy = statemachine.PolicyReject
	}

	b := statemachine.NewBuilder(f.initial,
		statemachine.WithName(f.name),
		statemachine.WithLogger(f.logger),
		statemachine.WithUnhandledPolicy(policy),
		statemachine.WithCoverage(machineStates(allStates), machineEvents(allEvents)),
		statemachine.WithObserver(f.commit),
	)

	for _, e := range f.graph.edges {
		b.From(e.From).When(e.Event).To(e.To)
		if e.To == StateRegistrationComplete {
			b.WithGuard(f.emailVerified)
		}
		switch e.Event {
		case EventSelectProduct:
			b.WithAction(f.selectProduct)
		case EventChargeUser:
			b.WithAction(f.charge)
		}
		if _, err := b.Add(); err != nil {
			return fmt.Errorf("add transition %s+%s: %w", e.From, e.Event, err)
		}
	}

	for _, s := range allStates {
		if unhandled := f.graph.Unhandled(s); len(unhandled) > 0 {
			b.Ignore(s, machineEvents(unhandled)...)
		}
	}

	b.OnEnter(StateEmailNotVerified, f.sendVerification)
	b.OnEnter(StateLoggedOut, f.endSession)

	for state, hooks := range f.hooks {
		if !state.Valid() {
			return fmt.Errorf("hooks: %w: %q", ErrUnknownState, state)
		}
		for _, h := range hooks {
			b.OnExit(state, adaptHook(h.Exit))
			b.OnEnter(state, adaptHook(h.Enter))
		}
	}

	machine, err := b.Build()
	if err != nil {
		return err
	}
	f.machine = machine
	return nil
}

func (f *Flow) NewUser(ctx context.Context) error {
	return f.dispatch(ctx, EventNewUser, nil)
}

func (f *Flow) RegistrationComplete(ctx context.Context) error {
	return f.dispatch(ctx, EventRegistrationComplete, nil)
}

func (f *Flow) EmailNotVerified(ctx context.Context) error {
	return f.dispatch(ctx, EventEmailNotVerified, nil)
}

func (f *Flow) ExistingUser(ctx context.Context) error {
	return f.dispatch(ctx, EventExistingUser, nil)
}

// SelectProduct records productID as the product to charge for.
func (f *Flow) SelectProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return ErrProductRequired
	}
	return f.dispatch(ctx, EventSelectProduct, productID)
}

// ChargeUser charges the selected product through the payment gateway.
// A declined charge moves the flow to payment_declined and returns an error
// wrapping ErrPaymentDeclined. Other gateway errors leave the state unchanged.
func (f *Flow) ChargeUser(ctx context.Context) error {
	return f.dispatch(ctx, EventChargeUser, nil)
}

func (f *Flow) PaymentDeclined(ctx context.Context) error {
	return f.dispatch(ctx, EventPaymentDeclined, nil)
}

func (f *Flow) Logout(ctx context.Context) error {
	return f.dispatch(ctx, EventLogout, nil)
}

// Dispatch delivers event with an optional payload. select_product expects the
// product id as a string payload.
func (f *Flow) Dispatch(ctx context.Context, event Event, payload any) error {
	if !event.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return f.dispatch(ctx, event, payload)
}

// Can reports whether event would cause a transition in the current state.
func (f *Flow) Can(ctx context.Context, event Event) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.machine.CanFire(ctx, event, nil)
}

func (f *Flow) dispatch(ctx context.Context, event Event, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx = logger.WithFlowID(ctx, f.id.String())
	before := f.version
	f.pendingReceipt = nil

	err := f.machine.Fire(ctx, event, data)
	if event == EventChargeUser && errors.Is(err, ErrPaymentDeclined) {
		current := f.machine.Current().(StateID)
		f.logger.InfoContext(ctx, "payment declined",
			logger.State(current.Name()),
			slog.String("product_id", f.subject.ProductID),
			logger.Error(err),
		)
		// A retry from payment_declined has nowhere else to go.
		if _, ok := f.graph.Target(current, EventPaymentDeclined); ok {
			if ferr := f.machine.Fire(ctx, EventPaymentDeclined, nil); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
	}

	if f.version != before && f.store != nil {
		if serr := f.store.Save(ctx, f.snapshotLocked()); serr != nil {
			f.logger.ErrorContext(ctx, "failed to persist flow",
				logger.Version(f.version),
				logger.Error(serr),
			)
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrPersistFailed, serr))
		}
	}

	return err
}

// commit runs inside the machine after every committed transition.
func (f *Flow) commit(ctx context.Context, rec statemachine.TransitionRecord) {
	event := rec.Event.(Event)
	switch event {
	case EventSelectProduct:
		if id, ok := rec.Data.(string); ok {
			f.subject.ProductID = id
		}
	case EventChargeUser:
		if f.pendingReceipt != nil {
			f.receipt = f.pendingReceipt
			f.pendingReceipt = nil
		}
	}

	f.version++
	f.updatedAt = f.now()

	t := Transition{
		FlowID:   f.id,
		From:     rec.From.(StateID),
		To:       rec.To.(StateID),
		Event:    event,
		Version:  f.version,
		At:       f.updatedAt,
		EnterErr: rec.EnterErr,
	}

	f.logger.InfoContext(ctx, "flow state changed",
		logger.FromState(t.From.Name()),
		logger.ToState(t.To.Name()),
		logger.Event(event.Name()),
		logger.Version(t.Version),
	)

	for _, o := range f.observers {
		o(ctx, t)
	}
}

func (f *Flow) emailVerified(ctx context.Context, _ statemachine.State, _ statemachine.Event, _ any) bool {
	if f.verifier == nil {
		return true
	}
	ok, err := f.verifier.IsEmailVerified(ctx, f.subject.UserID)
	if err != nil {
		f.logger.ErrorContext(ctx, "email verification check failed", logger.Error(err))
		return false
	}
	return ok
}

func (f *Flow) selectProduct(_ context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	if data == nil {
		return ErrProductRequired
	}
	id, ok := data.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects a product id, got %T", ErrInvalidPayload, EventSelectProduct, data)
	}
	if id == "" {
		return ErrProductRequired
	}
	return nil
}

func (f *Flow) charge(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if f.subject.ProductID == "" {
		return ErrProductRequired
	}
	if f.gateway == nil {
		return nil
	}

	receipt, err := f.gateway.Charge(ctx, ChargeRequest{
		FlowID:         f.id,
		UserID:         f.subject.UserID,
		Email:          f.subject.Email,
		ProductID:      f.subject.ProductID,
		IdempotencyKey: fmt.Sprintf("%s-%d", f.id, f.version+1),
	})
	if err != nil {
		return err
	}
	f.pendingReceipt = &receipt
	return nil
}

func (f *Flow) sendVerification(ctx context.Context, _ statemachine.State, _ statemachine.Event, _ any) error {
	if f.mailer == nil {
		return nil
	}
	return f.mailer.SendVerification(ctx, f.subject)
}

func (f *Flow) endSession(ctx context.Context, _ statemachine.State, _ statemachine.Event, _ any) error {
	if f.sessions == nil {
		return nil
	}
	return f.sessions.End(ctx, f.subject.UserID)
}

// ID returns the flow identifier.
func (f *Flow) ID() uuid.UUID {
	return f.id
}

// Current returns the current state.
func (f *Flow) Current() StateID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.machine.Current().(StateID)
}

func (f *Flow) Subject() Subject {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.subject
}

// Version is incremented on every committed transition.
func (f *Flow) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// Receipt returns the receipt of the last successful charge.
func (f *Flow) Receipt() (Receipt, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.receipt == nil {
		return Receipt{}, false
	}
	return *f.receipt, true
}

func (f *Flow) Graph() Graph {
	return f.graph
}

// DOT renders the flow's transition graph in Graphviz format, marking the current state.
func (f *Flow) DOT() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if g, ok := f.machine.(interface{ Graph() string }); ok {
		return g.Graph()
	}
	return ""
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{
		FlowID:    f.id,
		State:     f.machine.Current().(StateID),
		Subject:   f.subject,
		Version:   f.version,
		UpdatedAt: f.updatedAt,
	}
	if f.receipt != nil {
		r := *f.receipt
		snap.Receipt = &r
	}
	return snap
}

func adaptHook(h HookFunc) statemachine.Hook {
	if h == nil {
		return nil
	}
	return func(ctx context.Context, state statemachine.State, event statemachine.Event, _ any) error {
		return h(ctx, state.(StateID), event.(Event))
	}
}

func machineStates(states []StateID) []statemachine.State {
	out := make([]statemachine.State, len(states))
	for i, s := range states {
		out[i] = s
	}
	return out
}

func machineEvents(events []Event) []statemachine.Event {
	out := make([]statemachine.Event, len(events))
	for i, e := range events {
		out[i] = e
	}
	return out
}
