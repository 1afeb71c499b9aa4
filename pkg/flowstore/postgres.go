package flowstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// Postgres stores snapshots in the flow_snapshots table created by Migrate.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ userflow.SnapshotStore = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ConnectPostgres opens a connection pool. Failed attempts back off linearly:
// attempt n waits n*RetryInterval.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	var lastErr error
	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

const upsertSnapshot = `
INSERT INTO flow_snapshots (flow_id, state, user_id, subject, receipt, version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (flow_id) DO UPDATE SET
    state      = EXCLUDED.state,
    user_id    = EXCLUDED.user_id,
    subject    = EXCLUDED.subject,
    receipt    = EXCLUDED.receipt,
    version    = EXCLUDED.version,
    updated_at = EXCLUDED.updated_at
WHERE flow_snapshots.version < EXCLUDED.version`

func (p *Postgres) Save(ctx context.Context, snap userflow.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, upsertSnapshot,
		snap.FlowID,
		string(snap.State),
		snap.Subject.UserID,
		snap.Subject,
		snap.Receipt,
		int64(snap.Version),
		snap.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleSnapshot
	}
	return nil
}

const selectSnapshot = `
SELECT flow_id, state, subject, receipt, version, updated_at
FROM flow_snapshots
WHERE flow_id = $1`

func (p *Postgres) Load(ctx context.Context, flowID uuid.UUID) (userflow.Snapshot, error) {
	var (
		snap    userflow.Snapshot
		state   string
		version int64
	)
	err := p.pool.QueryRow(ctx, selectSnapshot, flowID).Scan(
		&snap.FlowID,
		&state,
		&snap.Subject,
		&snap.Receipt,
		&version,
		&snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userflow.Snapshot{}, ErrNotFound
		}
		return userflow.Snapshot{}, errors.Join(ErrDecodeSnapshot, err)
	}
	snap.State = userflow.StateID(state)
	snap.Version = uint64(version)
	return snap, nil
}

func (p *Postgres) Delete(ctx context.Context, flowID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM flow_snapshots WHERE flow_id = $1`, flowID)
	return err
}

// Healthcheck pings the database.
func (p *Postgres) Healthcheck(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
