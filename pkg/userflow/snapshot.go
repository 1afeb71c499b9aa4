package userflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the persistable image of a flow.
type Snapshot struct {
	FlowID    uuid.UUID `json:"flow_id"`
	State     StateID   `json:"state"`
	Subject   Subject   `json:"subject"`
	Version   uint64    `json:"version"`
	Receipt   *Receipt  `json:"receipt,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that s can be restored.
func (s Snapshot) Validate() error {
	if s.FlowID == uuid.Nil {
		return fmt.Errorf("%w: missing flow id", ErrInvalidSnapshot)
	}
	if !s.State.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSnapshot, ErrUnknownState, s.State)
	}
	return nil
}

// SnapshotStore persists flow snapshots. Save must reject a snapshot whose version is
// not newer than the stored one, so concurrent writers cannot roll a flow back.
// Deleting an unknown flow is not an error.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, flowID uuid.UUID) (Snapshot, error)
	Delete(ctx context.Context, flowID uuid.UUID) error
}

// Resume loads a flow from store and restores it. The store is attached to the flow,
// so later transitions keep being persisted.
func Resume(ctx context.Context, store SnapshotStore, flowID uuid.UUID, opts ...Option) (*Flow, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	snap, err := store.Load(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("load flow %s: %w", flowID, err)
	}
	return Restore(snap, append([]Option{WithStore(store)}, opts...)...)
}
