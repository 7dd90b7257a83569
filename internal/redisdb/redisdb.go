// Package redisdb wraps the Redis client used by the trending service. The
// client library pools connections internally; the pool size comes from the
// service flags.
package redisdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/pool"
)

// Options configures a Store.
type Options struct {
	// LocalService is the owning service, logged as ls=.
	LocalService string
	Endpoint     pool.Endpoint
	PoolSize     int
	// Log receives one line per command; nil disables logging.
	Log *slog.Logger
}

// Store runs sorted-set commands against one Redis server.
type Store struct {
	opts   Options
	client *redis.Client
}

// Open builds the client. Connections are dialed lazily by the library.
func Open(opts Options) *Store {
	return &Store{
		opts: opts,
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Endpoint.String(),
			PoolSize: opts.PoolSize,
		}),
	}
}

// Close releases the client's connections.
func (s *Store) Close() error { return s.client.Close() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("op=redisdb.ping addr=%s: %w", s.opts.Endpoint, err)
	}
	return nil
}

// ZIncrBy increments member's score in the sorted set at key.
func (s *Store) ZIncrBy(ctx context.Context, key string, incr float64, member string) (float64, error) {
	start := time.Now()
	score, err := s.client.ZIncrBy(ctx, key, incr, member).Result()
	s.log(ctx, "zincrby", key, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("op=redisdb.zincrby key=%s: %w", key, err)
	}
	return score, nil
}

// ZRange returns members of the sorted set at key in ascending score order,
// from index start through stop inclusive.
func (s *Store) ZRange(ctx context.Context, key string, startIdx, stopIdx int64) ([]string, error) {
	start := time.Now()
	members, err := s.client.ZRange(ctx, key, startIdx, stopIdx).Result()
	s.log(ctx, "zrange", key, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("op=redisdb.zrange key=%s: %w", key, err)
	}
	return members, nil
}

func (s *Store) log(ctx context.Context, command, key string, elapsed time.Duration, err error) {
	if s.opts.Log == nil {
		return
	}
	attrs := []any{
		slog.String("ls", s.opts.LocalService),
		slog.String("command", command),
		slog.String("key", key),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	observability.LogLatency(ctx, s.opts.Log, "redis", elapsed, attrs...)
}
