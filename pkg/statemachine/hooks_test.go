package statemachine_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/userflow/pkg/statemachine"
)

type callLog struct {
	calls []string
}

func (l *callLog) hook(label string, err error) statemachine.Hook {
	return func(ctx context.Context, state statemachine.State, event statemachine.Event, data any) error {
		l.calls = append(l.calls, label+":"+state.Name()+":"+event.Name())
		return err
	}
}

func (l *callLog) action(label string, err error) statemachine.Action {
	return func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
		l.calls = append(l.calls, label)
		return err
	}
}

func TestTransitionProtocol(t *testing.T) {
	t.Parallel()

	t.Run("action then exit then enter", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		var seenDuringEnter statemachine.State

		var sm statemachine.StateMachine
		sm = statemachine.MustNew(Trial,
			statemachine.WithTransition(Trial, Active, Pay, statemachine.WithAction(log.action("action", nil))),
			statemachine.WithOnExit(Trial, log.hook("exit", nil)),
			statemachine.WithOnEnter(Active, log.hook("enter", nil)),
			statemachine.WithObserver(func(ctx context.Context, rec statemachine.TransitionRecord) {
				log.calls = append(log.calls, "observe:"+rec.From.Name()+"->"+rec.To.Name())
			}),
			statemachine.WithOnEnter(Active, func(ctx context.Context, state statemachine.State, event statemachine.Event, data any) error {
				seenDuringEnter = state
				return nil
			}),
		)

		require.NoError(t, sm.Fire(context.Background(), Pay, nil))
		assert.Equal(t, Active, sm.Current())
		assert.Equal(t, Active, seenDuringEnter)
		assert.Equal(t, []string{
			"action",
			"exit:trial:pay",
			"enter:active:pay",
			"observe:trial->active",
		}, log.calls)
	})

	t.Run("self transition runs exit and enter", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		sm := statemachine.MustNew(PastDue,
			statemachine.WithTransition(PastDue, PastDue, Fail),
			statemachine.WithOnExit(PastDue, log.hook("exit", nil)),
			statemachine.WithOnEnter(PastDue, log.hook("enter", nil)),
		)

		require.NoError(t, sm.Fire(context.Background(), Fail, nil))
		assert.Equal(t, PastDue, sm.Current())
		assert.Equal(t, []string{"exit:past_due:fail", "enter:past_due:fail"}, log.calls)
	})

	t.Run("failing action runs no hooks", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		sm := statemachine.MustNew(Trial,
			statemachine.WithTransition(Trial, Active, Pay, statemachine.WithAction(log.action("action", errors.New("boom")))),
			statemachine.WithOnExit(Trial, log.hook("exit", nil)),
			statemachine.WithOnEnter(Active, log.hook("enter", nil)),
		)

		err := sm.Fire(context.Background(), Pay, nil)
		require.ErrorIs(t, err, statemachine.ErrActionFailed)
		assert.Equal(t, Trial, sm.Current())
		assert.Equal(t, []string{"action"}, log.calls)
	})

	t.Run("failing exit hook keeps state", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		sm := statemachine.MustNew(Trial,
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithOnExit(Trial, log.hook("exit", errors.New("still busy"))),
			statemachine.WithOnEnter(Active, log.hook("enter", nil)),
		)

		err := sm.Fire(context.Background(), Pay, nil)
		require.ErrorIs(t, err, statemachine.ErrExitHookFailed)
		assert.Equal(t, Trial, sm.Current())
		assert.Equal(t, []string{"exit:trial:pay"}, log.calls)
	})

	t.Run("failing enter hook commits transition", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		var observed statemachine.TransitionRecord
		sm := statemachine.MustNew(Trial,
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithOnEnter(Active, log.hook("enter", errors.New("mail down"))),
			statemachine.WithOnEnter(Active, log.hook("never", nil)),
			statemachine.WithObserver(func(ctx context.Context, rec statemachine.TransitionRecord) {
				observed = rec
			}),
		)

		err := sm.Fire(context.Background(), Pay, nil)
		require.ErrorIs(t, err, statemachine.ErrEnterHookFailed)
		assert.Equal(t, Active, sm.Current())
		assert.Equal(t, []string{"enter:active:pay"}, log.calls)
		assert.ErrorIs(t, observed.EnterErr, statemachine.ErrEnterHookFailed)
		assert.Equal(t, Trial, observed.From)
	})
}

func TestUnhandledPolicy(t *testing.T) {
	t.Parallel()

	newMachine := func(opts ...statemachine.Option) statemachine.StateMachine {
		base := []statemachine.Option{
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithIgnore(Trial, Cancel),
		}
		return statemachine.MustNew(Trial, append(base, opts...)...)
	}

	t.Run("reject returns typed errors", func(t *testing.T) {
		t.Parallel()
		sm := newMachine()
		ctx := context.Background()

		err := sm.Fire(ctx, Cancel, nil)
		assert.True(t, statemachine.IsEventIgnoredError(err))
		assert.True(t, statemachine.IsUnhandledError(err))

		err = sm.Fire(ctx, Resume, nil)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.True(t, statemachine.IsUnhandledError(err))
		assert.Equal(t, Trial, sm.Current())
	})

	t.Run("ignore drops events and warns", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := &callLog{}
		sm := newMachine(
			statemachine.WithUnhandledPolicy(statemachine.PolicyIgnore),
			statemachine.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			statemachine.WithOnExit(Trial, log.hook("exit", nil)),
		)
		ctx := context.Background()

		for range 3 {
			require.NoError(t, sm.Fire(ctx, Cancel, nil))
			require.NoError(t, sm.Fire(ctx, Resume, nil))
		}

		assert.Equal(t, Trial, sm.Current())
		assert.Empty(t, log.calls)
		assert.Contains(t, buf.String(), "event not handled")
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "event=cancel")
	})

	t.Run("policy names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "reject", statemachine.PolicyReject.String())
		assert.Equal(t, "ignore", statemachine.PolicyIgnore.String())
	})
}

func TestIgnoreDeclarations(t *testing.T) {
	t.Parallel()

	t.Run("conflict with transition", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(Trial,
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithIgnore(Trial, Pay),
		)
		require.ErrorIs(t, err, statemachine.ErrConflictingDeclaration)

		_, err = statemachine.New(Trial,
			statemachine.WithIgnore(Trial, Pay),
			statemachine.WithTransition(Trial, Active, Pay),
		)
		require.ErrorIs(t, err, statemachine.ErrConflictingDeclaration)
	})

	t.Run("nil arguments", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(Trial, statemachine.WithIgnore(nil, Pay))
		require.ErrorIs(t, err, statemachine.ErrInvalidState)

		_, err = statemachine.New(Trial, statemachine.WithIgnore(Trial, nil))
		require.ErrorIs(t, err, statemachine.ErrInvalidEvent)

		_, err = statemachine.New(Trial, statemachine.WithOnEnter(nil, nil))
		require.ErrorIs(t, err, statemachine.ErrInvalidState)
	})

	t.Run("CanFire is false for ignored events", func(t *testing.T) {
		t.Parallel()
		sm := statemachine.MustNew(Trial, statemachine.WithIgnore(Trial, Cancel))
		assert.False(t, sm.CanFire(context.Background(), Cancel, nil))
		simple, ok := sm.(*statemachine.SimpleStateMachine)
		require.True(t, ok)
		assert.True(t, simple.IsIgnored(Trial, Cancel))
		assert.False(t, simple.IsIgnored(Trial, Pay))
	})
}

func TestCoverage(t *testing.T) {
	t.Parallel()

	states := []statemachine.State{Trial, Active}
	events := []statemachine.Event{Pay, Cancel}

	t.Run("complete", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(Trial,
			statemachine.WithCoverage(states, events),
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithIgnore(Trial, Cancel),
			statemachine.WithTransition(Active, Cancelled, Cancel),
			statemachine.WithIgnore(Active, Pay),
		)
		require.NoError(t, err)
	})

	t.Run("missing pairs are listed", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(Trial,
			statemachine.WithTransition(Trial, Active, Pay),
			statemachine.WithCoverage(states, events),
		)
		require.Error(t, err)
		require.True(t, statemachine.IsIncompleteCoverageError(err))

		var cov *statemachine.ErrIncompleteCoverage
		require.ErrorAs(t, err, &cov)
		assert.Equal(t, []statemachine.Pair{
			{State: "trial", Event: "cancel"},
			{State: "active", Event: "pay"},
			{State: "active", Event: "cancel"},
		}, cov.Missing)
		assert.Contains(t, err.Error(), "trial+cancel")
	})
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("fluent configuration", func(t *testing.T) {
		t.Parallel()
		log := &callLog{}
		b := statemachine.NewBuilder(Trial, statemachine.WithName("billing"))
		_, err := b.From(Trial).When(Pay).To(Active).WithAction(log.action("charge", nil)).Add()
		require.NoError(t, err)
		_, err = b.WithTransition(Active, Cancelled, Cancel, nil, nil)
		require.NoError(t, err)

		sm, err := b.Ignore(Trial, Cancel).
			OnEnter(Active, log.hook("enter", nil)).
			OnExit(Trial, log.hook("exit", nil)).
			Build()
		require.NoError(t, err)

		require.NoError(t, sm.Fire(context.Background(), Pay, nil))
		assert.Equal(t, []string{"charge", "exit:trial:pay", "enter:active:pay"}, log.calls)
		assert.Equal(t, "billing", sm.(*statemachine.SimpleStateMachine).Name())
	})

	t.Run("errors surface on Build", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.NewBuilder(Trial).Ignore(nil, Pay).Build()
		require.ErrorIs(t, err, statemachine.ErrInvalidState)

		_, err = statemachine.NewBuilder(Trial,
			statemachine.WithCoverage([]statemachine.State{Trial}, []statemachine.Event{Pay}),
		).Build()
		require.True(t, statemachine.IsIncompleteCoverageError(err))
	})

	t.Run("nil initial state fails", func(t *testing.T) {
		t.Parallel()
		sm, err := statemachine.NewBuilder(nil).Build()
		require.ErrorIs(t, err, statemachine.ErrInvalidState)
		assert.Nil(t, sm)

		_, err = statemachine.NewBuilder(nil).Ignore(Trial, Pay).Build()
		require.ErrorIs(t, err, statemachine.ErrInvalidState)
	})

	t.Run("Add without target fails", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.NewBuilder(Trial).From(Trial).When(Pay).Add()
		require.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})
}

func TestTransitionsAndGraph(t *testing.T) {
	t.Parallel()

	always := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool { return true }
	sm := statemachine.MustNew(Trial,
		statemachine.WithTransition(Trial, Active, Pay),
		statemachine.WithTransition(Active, PastDue, Fail, statemachine.WithGuard(always)),
		statemachine.WithTransition(Active, Cancelled, Cancel),
		statemachine.WithTransition(PastDue, Active, Pay),
		statemachine.WithTransition(PastDue, Active, Resume),
	)

	transitions := sm.Transitions()
	require.Len(t, transitions, 5)
	assert.Equal(t, Active, transitions[0].From)
	assert.Equal(t, Cancel, transitions[0].Event)
	assert.Equal(t, Trial, transitions[4].From)

	dot := sm.(*statemachine.SimpleStateMachine).Graph()
	assert.Contains(t, dot, "digraph statemachine {")
	assert.Contains(t, dot, `__start -> "trial";`)
	assert.Contains(t, dot, `"trial" [shape=doublecircle`)
	assert.Contains(t, dot, `"active" -> "past_due" [label="fail", style=dashed];`)
	assert.Contains(t, dot, `"past_due" -> "active" [label="pay\nresume"];`)
}
