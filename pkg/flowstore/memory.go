package flowstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// Memory keeps snapshots in process memory. Useful for tests and single-instance tools.
type Memory struct {
	mu    sync.RWMutex
	snaps map[uuid.UUID]userflow.Snapshot
}

var _ userflow.SnapshotStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{snaps: make(map[uuid.UUID]userflow.Snapshot)}
}

func (m *Memory) Save(_ context.Context, snap userflow.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.snaps[snap.FlowID]; ok && cur.Version >= snap.Version {
		return ErrStaleSnapshot
	}
	m.snaps[snap.FlowID] = cloneSnapshot(snap)
	return nil
}

func (m *Memory) Load(_ context.Context, flowID uuid.UUID) (userflow.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snaps[flowID]
	if !ok {
		return userflow.Snapshot{}, ErrNotFound
	}
	return cloneSnapshot(snap), nil
}

func (m *Memory) Delete(_ context.Context, flowID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, flowID)
	return nil
}

// Len returns the number of stored snapshots.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snaps)
}

func cloneSnapshot(s userflow.Snapshot) userflow.Snapshot {
	if s.Receipt != nil {
		r := *s.Receipt
		s.Receipt = &r
	}
	return s
}
