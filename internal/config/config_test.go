package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/pool"
)

const backendYAML = `apigateway:
  service:
    - "apigateway:81"
account:
  service:
    - "account1:9090"
    - "account2:9090"
  database: "account_database:5432"
trending:
  service:
    - "trending:9094"
  redis: "trending_redis:6379"
wordfilter:
  service:
    - "wordfilter:9095"
  loadgen: "ignored"
`

func writeBackend(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backend.yml")
	require.NoError(t, os.WriteFile(path, []byte(backendYAML), 0o644))
	return path
}

func TestLoadBackend(t *testing.T) {
	t.Parallel()
	b, err := LoadBackend(writeBackend(t))
	require.NoError(t, err)

	eps, err := b.ServiceEndpoints("account")
	require.NoError(t, err)
	assert.Equal(t, []pool.Endpoint{
		{Host: "account1", Port: 9090},
		{Host: "account2", Port: 9090},
	}, eps)

	db, ok, err := b.DatabaseEndpoint("account")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pool.Endpoint{Host: "account_database", Port: 5432}, db)

	_, ok, err = b.DatabaseEndpoint("trending")
	require.NoError(t, err)
	assert.False(t, ok)

	r, ok, err := b.RedisEndpoint("trending")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pool.Endpoint{Host: "trending_redis", Port: 6379}, r)

	_, err = b.ServiceEndpoints("missing")
	assert.Error(t, err)
}

func TestLoadBackendMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadBackend("/nonexistent/backend.yml")
	assert.Error(t, err)
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()
	ep, err := ParseEndpoint("db:5432")
	require.NoError(t, err)
	assert.Equal(t, pool.Endpoint{Host: "db", Port: 5432}, ep)

	_, err = ParseEndpoint("no-port")
	assert.Error(t, err)
	_, err = ParseEndpoint("host:notaport")
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BUZZBLOG_LOG_DIR", "/var/log/buzzblog")
	t.Setenv("BUZZBLOG_DEBUG_ADDR", "0.0.0.0:9999")
	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/buzzblog", e.LogDir)
	assert.Equal(t, "0.0.0.0:9999", e.DebugAddr)
}
