package flowstore_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/userflow/pkg/flowstore"
)

func TestPostgres(t *testing.T) {
	url := os.Getenv("USERFLOW_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("USERFLOW_TEST_POSTGRES_URL is not set")
	}
	ctx := context.Background()

	cfg := flowstore.PostgresConfig{
		ConnectionString: url,
		MaxOpenConns:     4,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsTable:  "userflow_test_schema_migrations",
	}
	pool, err := flowstore.ConnectPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, flowstore.Migrate(ctx, pool, cfg, log))
	// Applying twice is a no-op.
	require.NoError(t, flowstore.Migrate(ctx, pool, cfg, log))

	store := flowstore.NewPostgres(pool)
	require.NoError(t, store.Healthcheck(ctx))
	testStore(t, store)
}

func TestConnectPostgres_BadConfig(t *testing.T) {
	t.Parallel()

	_, err := flowstore.ConnectPostgres(context.Background(), flowstore.PostgresConfig{
		ConnectionString: "postgres://%zz",
		RetryAttempts:    1,
	})
	assert.ErrorIs(t, err, flowstore.ErrFailedToParseDBConfig)
}
