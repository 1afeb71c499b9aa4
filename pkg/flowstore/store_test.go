package flowstore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/userflow/pkg/flowstore"
	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// testStore runs the behaviour every SnapshotStore must share.
func testStore(t *testing.T, store userflow.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, flowstore.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		snap := newSnapshot(1)
		require.NoError(t, store.Save(ctx, snap))

		got, err := store.Load(ctx, snap.FlowID)
		require.NoError(t, err)
		assertSnapshot(t, snap, got)
	})

	t.Run("stale versions are rejected", func(t *testing.T) {
		snap := newSnapshot(3)
		require.NoError(t, store.Save(ctx, snap))

		same := snap
		same.State = userflow.StateLoggedOut
		assert.ErrorIs(t, store.Save(ctx, same), flowstore.ErrStaleSnapshot)

		older := snap
		older.Version = 2
		assert.ErrorIs(t, store.Save(ctx, older), flowstore.ErrStaleSnapshot)

		got, err := store.Load(ctx, snap.FlowID)
		require.NoError(t, err)
		assertSnapshot(t, snap, got)
	})

	t.Run("newer version replaces", func(t *testing.T) {
		snap := newSnapshot(1)
		require.NoError(t, store.Save(ctx, snap))

		next := snap
		next.Version = 2
		next.State = userflow.StateCharging
		next.Receipt = &userflow.Receipt{
			ID:        "rcpt_1",
			ProductID: snap.Subject.ProductID,
			ChargedAt: snap.UpdatedAt,
		}
		require.NoError(t, store.Save(ctx, next))

		got, err := store.Load(ctx, snap.FlowID)
		require.NoError(t, err)
		assertSnapshot(t, next, got)
	})

	t.Run("delete", func(t *testing.T) {
		snap := newSnapshot(1)
		require.NoError(t, store.Save(ctx, snap))
		require.NoError(t, store.Delete(ctx, snap.FlowID))

		_, err := store.Load(ctx, snap.FlowID)
		assert.ErrorIs(t, err, flowstore.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, snap.FlowID))
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		snap := newSnapshot(1)
		snap.FlowID = uuid.Nil
		assert.ErrorIs(t, store.Save(ctx, snap), userflow.ErrInvalidSnapshot)
	})

	t.Run("flow round trip", func(t *testing.T) {
		quiet := userflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
		f, err := userflow.New(userflow.Subject{UserID: "user-42", Email: "bob@example.com"},
			userflow.WithStore(store), quiet)
		require.NoError(t, err)

		require.NoError(t, f.ExistingUser(ctx))
		require.NoError(t, f.SelectProduct(ctx, "pro"))
		require.NoError(t, f.NewUser(ctx)) // no-op, not persisted

		resumed, err := userflow.Resume(ctx, store, f.ID(), quiet)
		require.NoError(t, err)
		assert.Equal(t, userflow.StateProductSelected, resumed.Current())
		assert.Equal(t, uint64(2), resumed.Version())
		assert.Equal(t, "pro", resumed.Subject().ProductID)

		require.NoError(t, resumed.ChargeUser(ctx))
		got, err := store.Load(ctx, f.ID())
		require.NoError(t, err)
		assert.Equal(t, userflow.StateCharging, got.State)
		assert.Equal(t, uint64(3), got.Version)

		// The original flow is behind and can no longer write.
		err = f.Logout(ctx)
		assert.ErrorIs(t, err, userflow.ErrPersistFailed)
		assert.ErrorIs(t, err, flowstore.ErrStaleSnapshot)
	})
}

func newSnapshot(version uint64) userflow.Snapshot {
	return userflow.Snapshot{
		FlowID:    uuid.New(),
		State:     userflow.StateProductSelected,
		Subject:   userflow.Subject{UserID: "user-1", Email: "ann@example.com", ProductID: "pro-monthly"},
		Version:   version,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func assertSnapshot(t *testing.T, want, got userflow.Snapshot) {
	t.Helper()
	assert.Equal(t, want.FlowID, got.FlowID)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.Subject, got.Subject)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
	if want.Receipt == nil {
		assert.Nil(t, got.Receipt)
		return
	}
	require.NotNil(t, got.Receipt)
	assert.Equal(t, want.Receipt.ID, got.Receipt.ID)
	assert.Equal(t, want.Receipt.ProductID, got.Receipt.ProductID)
	assert.True(t, want.Receipt.ChargedAt.Equal(got.Receipt.ChargedAt))
}
