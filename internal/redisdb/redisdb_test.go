package redisdb

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/config"
)

func openWithMiniredis(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	ep, err := config.ParseEndpoint(mr.Addr())
	require.NoError(t, err)
	s := Open(Options{LocalService: "trending", Endpoint: ep, PoolSize: 4})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPing(t *testing.T) {
	t.Parallel()
	s := openWithMiniredis(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestZIncrByAccumulates(t *testing.T) {
	t.Parallel()
	s := openWithMiniredis(t)
	ctx := context.Background()

	score, err := s.ZIncrBy(ctx, "hashtags", 1, "golang")
	require.NoError(t, err)
	assert.Equal(t, float64(1), score)

	score, err = s.ZIncrBy(ctx, "hashtags", 1, "golang")
	require.NoError(t, err)
	assert.Equal(t, float64(2), score)
}

func TestZRangeAscendingByScore(t *testing.T) {
	t.Parallel()
	s := openWithMiniredis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.ZIncrBy(ctx, "hashtags", 1, "hot")
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.ZIncrBy(ctx, "hashtags", 1, "warm")
		require.NoError(t, err)
	}
	_, err := s.ZIncrBy(ctx, "hashtags", 1, "cold")
	require.NoError(t, err)

	members, err := s.ZRange(ctx, "hashtags", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cold", "warm"}, members)

	all, err := s.ZRange(ctx, "hashtags", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cold", "warm", "hot"}, all)
}

func TestZRangeMissingKeyIsEmpty(t *testing.T) {
	t.Parallel()
	s := openWithMiniredis(t)
	members, err := s.ZRange(context.Background(), "nothing", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, members)
}
