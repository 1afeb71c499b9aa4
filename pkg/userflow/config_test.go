package userflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/userflow/pkg/config"
	"github.com/dmitrymomot/userflow/pkg/statemachine"
	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// Not parallel: sets environment variables and resets the config cache.
func TestNewFromConfig_Env(t *testing.T) {
	config.ResetCache()
	t.Cleanup(config.ResetCache)
	t.Setenv("USERFLOW_STRICT_EVENTS", "true")
	t.Setenv("USERFLOW_MACHINE_NAME", "signup")
	t.Setenv("USERFLOW_GRAPH_FILE", "testdata/express.yaml")

	var cfg userflow.Config
	require.NoError(t, config.Load(&cfg))
	assert.True(t, cfg.StrictEvents)
	assert.Equal(t, "signup", cfg.MachineName)

	f, err := userflow.NewFromConfig(cfg, testSubject(), userflow.WithLogger(quietLogger()))
	require.NoError(t, err)

	// express graph: new_user has no logout edge, strict mode reports it.
	err = f.Logout(context.Background())
	assert.True(t, statemachine.IsEventIgnoredError(err))

	require.NoError(t, f.RegistrationComplete(context.Background()))
	assert.Equal(t, userflow.StateRegistrationComplete, f.Current())
}

func TestNewFromConfig_Defaults(t *testing.T) {
	t.Parallel()

	f, err := userflow.NewFromConfig(userflow.Config{MachineName: "userflow"}, testSubject(), userflow.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, userflow.DefaultGraph().Edges(), f.Graph().Edges())

	require.NoError(t, f.ChargeUser(context.Background()))
	assert.Equal(t, userflow.StateNewUser, f.Current())
}

func TestNewFromConfig_BadGraphFile(t *testing.T) {
	t.Parallel()

	_, err := userflow.NewFromConfig(userflow.Config{GraphFile: "testdata/missing.yaml"}, testSubject())
	assert.Error(t, err)
}
