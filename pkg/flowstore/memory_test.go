package flowstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/userflow/pkg/flowstore"
	"github.com/dmitrymomot/userflow/pkg/userflow"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	testStore(t, flowstore.NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := flowstore.NewMemory()
	ctx := context.Background()

	snap := newSnapshot(1)
	snap.Receipt = &userflow.Receipt{ID: "rcpt_1"}
	require.NoError(t, store.Save(ctx, snap))
	snap.Receipt.ID = "changed"

	got, err := store.Load(ctx, snap.FlowID)
	require.NoError(t, err)
	assert.Equal(t, "rcpt_1", got.Receipt.ID)

	got.Receipt.ID = "changed again"
	again, err := store.Load(ctx, snap.FlowID)
	require.NoError(t, err)
	assert.Equal(t, "rcpt_1", again.Receipt.ID)
}

func TestMemory_ConcurrentSaves(t *testing.T) {
	t.Parallel()

	store := flowstore.NewMemory()
	ctx := context.Background()
	base := newSnapshot(0)

	var wg sync.WaitGroup
	for v := uint64(1); v <= 50; v++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := base
			snap.Version = v
			_ = store.Save(ctx, snap)
		}()
	}
	wg.Wait()

	got, err := store.Load(ctx, base.FlowID)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), got.Version)
	assert.Equal(t, 1, store.Len())
}
