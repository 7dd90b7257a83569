package trending

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/config"
	"github.com/buzzblog/buzzblog/internal/redisdb"
)

// fakeWordfilter rejects a fixed set of words and records what was checked.
type fakeWordfilter struct {
	mu      sync.Mutex
	invalid map[string]bool
	checked []string
}

func (f *fakeWordfilter) IsValidWord(_ context.Context, _ api.RequestMetadata, word string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, word)
	return !f.invalid[word], nil
}

func newHandler(t *testing.T, wf *fakeWordfilter) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	ep, err := config.ParseEndpoint(mr.Addr())
	require.NoError(t, err)
	store := redisdb.Open(redisdb.Options{LocalService: "trending", Endpoint: ep, PoolSize: 4})
	t.Cleanup(func() { _ = store.Close() })
	return New(wf, store)
}

func TestProcessPostCountsHashtags(t *testing.T) {
	t.Parallel()
	wf := &fakeWordfilter{}
	h := newHandler(t, wf)
	ctx := context.Background()
	meta := api.RequestMetadata{ID: "req-1"}

	require.NoError(t, h.ProcessPost(ctx, meta, "shipping #golang services with #golang and #redis"))

	tags, err := h.FetchTrendingHashtags(ctx, meta, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis", "golang"}, tags)

	// The filter sees bare tags, never the '#' prefix.
	assert.Equal(t, []string{"golang", "golang", "redis"}, wf.checked)
}

func TestProcessPostSkipsNonHashtags(t *testing.T) {
	t.Parallel()
	wf := &fakeWordfilter{}
	h := newHandler(t, wf)
	ctx := context.Background()
	meta := api.RequestMetadata{ID: "req-2"}

	// A lone '#' is not a hashtag and plain words are ignored entirely.
	require.NoError(t, h.ProcessPost(ctx, meta, "# plain words only"))

	tags, err := h.FetchTrendingHashtags(ctx, meta, 10)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.Empty(t, wf.checked)
}

func TestProcessPostDropsFilteredWords(t *testing.T) {
	t.Parallel()
	wf := &fakeWordfilter{invalid: map[string]bool{"corinthians": true}}
	h := newHandler(t, wf)
	ctx := context.Background()
	meta := api.RequestMetadata{ID: "req-3"}

	require.NoError(t, h.ProcessPost(ctx, meta, "#corinthians #futebol"))

	tags, err := h.FetchTrendingHashtags(ctx, meta, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"futebol"}, tags)
}

func TestFetchTrendingHashtagsHonorsLimit(t *testing.T) {
	t.Parallel()
	wf := &fakeWordfilter{}
	h := newHandler(t, wf)
	ctx := context.Background()
	meta := api.RequestMetadata{ID: "req-4"}

	require.NoError(t, h.ProcessPost(ctx, meta, "#a #b #c #d"))

	// Limit is the last included rank, so limit 1 returns two tags.
	tags, err := h.FetchTrendingHashtags(ctx, meta, 1)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}
