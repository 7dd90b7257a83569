// Package trending implements the trending service: hashtag occurrence
// counts kept in a Redis sorted set, filtered through the wordfilter
// service.
package trending

import (
	"context"
	"strings"

	"github.com/buzzblog/buzzblog/internal/api"
)

// hashtagsKey is the sorted set holding per-hashtag occurrence counts.
const hashtagsKey = "hashtags"

// Wordfilter is the nested wordfilter call. *hub.Hub satisfies it.
type Wordfilter interface {
	IsValidWord(ctx context.Context, meta api.RequestMetadata, word string) (bool, error)
}

// SortedSet is the Redis surface the service needs. *redisdb.Store
// satisfies it.
type SortedSet interface {
	ZIncrBy(ctx context.Context, key string, incr float64, member string) (float64, error)
	ZRange(ctx context.Context, key string, startIdx, stopIdx int64) ([]string, error)
}

// Handler implements api.TrendingService.
type Handler struct {
	wordfilter Wordfilter
	store      SortedSet
}

// New returns a handler backed by the wordfilter service and a Redis store.
func New(wordfilter Wordfilter, store SortedSet) *Handler {
	return &Handler{wordfilter: wordfilter, store: store}
}

// ProcessPost scans the text for hashtags and bumps the count of each one
// that passes the wordfilter. The leading '#' is stripped before both the
// filter check and the stored member.
func (h *Handler) ProcessPost(ctx context.Context, meta api.RequestMetadata, text string) error {
	for _, word := range strings.Fields(text) {
		if len(word) < 2 || word[0] != '#' {
			continue
		}
		tag := word[1:]
		valid, err := h.wordfilter.IsValidWord(ctx, meta, tag)
		if err != nil {
			return err
		}
		if !valid {
			continue
		}
		if _, err := h.store.ZIncrBy(ctx, hashtagsKey, 1, tag); err != nil {
			return err
		}
	}
	return nil
}

// FetchTrendingHashtags returns hashtags in ascending count order, from
// rank 0 through rank limit inclusive.
func (h *Handler) FetchTrendingHashtags(ctx context.Context, meta api.RequestMetadata, limit int32) ([]string, error) {
	return h.store.ZRange(ctx, hashtagsKey, 0, int64(limit))
}
