package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBindCommonDefaults(t *testing.T) {
	t.Parallel()

	var f Flags
	cmd := &cobra.Command{Use: "svc"}
	f.BindCommon(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9090"}))

	assert.Equal(t, "0.0.0.0", f.Host)
	assert.Equal(t, 9090, f.Port)
	assert.Equal(t, 0, f.Threads)
	assert.Equal(t, 0, f.AcceptBacklog)
	assert.Equal(t, "/etc/opt/BuzzBlog/backend.yml", f.BackendFilepath)
	assert.Equal(t, 1, f.Logging)
}

func TestBindCommonRequiresPort(t *testing.T) {
	t.Parallel()

	var f Flags
	cmd := &cobra.Command{
		Use:          "svc",
		SilenceUsage: true,
		RunE:         func(*cobra.Command, []string) error { return nil },
	}
	f.BindCommon(cmd)
	cmd.SetArgs([]string{})
	require.ErrorContains(t, cmd.Execute(), "port")
}

func TestBindPoolFlagGroups(t *testing.T) {
	t.Parallel()

	var f Flags
	cmd := &cobra.Command{Use: "svc"}
	f.BindMicroservicePool(cmd)
	f.BindPostgresPool(cmd)
	f.BindRedis(cmd)
	f.BindWordfilter(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--microservice_connection_pool_min_size", "2",
		"--microservice_connection_pool_max_size", "8",
		"--microservice_connection_pool_allow_ephemeral",
		"--postgres_connection_pool_max_size", "4",
		"--redis_connection_pool_size", "16",
		"--n_invalid_words", "100",
	}))

	assert.Equal(t, 2, f.MicroservicePoolMinSize)
	assert.Equal(t, 8, f.MicroservicePoolMaxSize)
	assert.True(t, f.MicroservicePoolAllowEphemeral)
	assert.Equal(t, 4, f.PostgresPoolMaxSize)
	assert.Equal(t, "postgres", f.PostgresUser)
	assert.Equal(t, "postgres", f.PostgresPassword)
	assert.Equal(t, 16, f.RedisPoolSize)
	assert.Equal(t, 100, f.NInvalidWords)
}

func TestOpenStoresRequiresDatabaseEntry(t *testing.T) {
	t.Parallel()

	a := &App{
		Service: "uniquepair",
		NeedsDB: true,
		Backend: config.Backend{"uniquepair": {Service: []string{"10.0.0.1:9094"}}},
	}
	a.Startup = newTestLogger()

	err := a.openStores(context.Background())
	require.ErrorContains(t, err, "no database in backend file")
}

func TestOpenStoresRequiresRedisEntry(t *testing.T) {
	t.Parallel()

	a := &App{
		Service:    "trending",
		NeedsRedis: true,
		Backend:    config.Backend{"trending": {Service: []string{"10.0.0.1:9095"}}},
	}
	a.Startup = newTestLogger()

	err := a.openStores(context.Background())
	require.ErrorContains(t, err, "no redis in backend file")
}
