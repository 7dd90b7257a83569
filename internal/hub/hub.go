// Package hub owns the outbound RPC side of a service: one bounded client
// pool per backend entry, plus the typed nested-call helpers handlers use.
// Pools are built for every service found in the backend file, whether or
// not the local service calls it.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/config"
	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/pool"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// connTimeout bounds the TCP connect of one outbound client socket.
const connTimeout = 30000 * time.Millisecond

// Options configures a Hub.
type Options struct {
	// LocalService is the owning service, logged as ls=.
	LocalService string
	Backend      config.Backend

	MinSize        int
	MaxSize        int
	AllowEphemeral bool

	CallLog *slog.Logger
	ConnLog *slog.Logger
	// Startup, when set, receives one line per pool built.
	Startup *slog.Logger

	// Dial overrides the default client connect; tests inject loopback
	// clients here.
	Dial func(ep pool.Endpoint) (*rpc.Client, error)
}

// Hub provides pooled clients for every backend service.
type Hub struct {
	opts  Options
	pools map[string]*pool.Pool[*rpc.Client]
}

// New builds one client pool per backend entry that lists RPC replicas.
// Connections are dialed lazily on first use.
func New(opts Options) (*Hub, error) {
	dial := opts.Dial
	if dial == nil {
		dial = func(ep pool.Endpoint) (*rpc.Client, error) {
			return rpc.Dial(ep.Host, ep.Port, connTimeout)
		}
	}
	h := &Hub{opts: opts, pools: make(map[string]*pool.Pool[*rpc.Client])}
	for name := range opts.Backend {
		eps, err := opts.Backend.ServiceEndpoints(name)
		if err != nil {
			return nil, err
		}
		if len(eps) == 0 {
			continue
		}
		p, err := pool.New(pool.Options[*rpc.Client]{
			Name:           "rpc_" + name,
			LocalService:   opts.LocalService,
			RemoteKey:      "rs",
			RemoteName:     name,
			Endpoints:      eps,
			MinSize:        opts.MinSize,
			MaxSize:        opts.MaxSize,
			AllowEphemeral: opts.AllowEphemeral,
			Dial:           dial,
			ConnLog:        opts.ConnLog,
		})
		if err != nil {
			return nil, err
		}
		h.pools[name] = p
		if opts.Startup != nil {
			opts.Startup.Info("added microservice connection pool",
				slog.String("service", name),
				slog.Int("endpoints", len(eps)))
		}
	}
	return h, nil
}

// Close drains every client pool.
func (h *Hub) Close() {
	for _, p := range h.pools {
		p.Close()
	}
}

// call acquires a client from the named service's pool, runs f, and logs
// the nested RPC on success and failure alike. The client goes back to the
// pool on every path.
func call[T any](ctx context.Context, h *Hub, service, function string, f func(c *rpc.Client) (T, error)) (T, error) {
	var zero T
	p, ok := h.pools[service]
	if !ok {
		return zero, fmt.Errorf("op=hub.call rs=%s rf=%s: service not in backend file", service, function)
	}
	c, err := p.Acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer p.Release(c)

	start := time.Now()
	v, err := f(c)
	elapsed := time.Since(start)

	attrs := []any{
		slog.String("rs", service),
		slog.String("rf", function),
		slog.String("ls", h.opts.LocalService),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	observability.LogLatency(ctx, h.opts.CallLog, "rpc", elapsed, attrs...)
	return v, err
}

// Account RPCs.

func (h *Hub) RetrieveStandardAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error) {
	return call(ctx, h, "account", "retrieve_standard_account", func(c *rpc.Client) (api.Account, error) {
		return api.NewAccountClient(c).RetrieveStandardAccount(ctx, meta, accountID)
	})
}

// Follow RPCs.

func (h *Hub) CheckFollow(ctx context.Context, meta api.RequestMetadata, followerID, followeeID int32) (bool, error) {
	return call(ctx, h, "follow", "check_follow", func(c *rpc.Client) (bool, error) {
		return api.NewFollowClient(c).CheckFollow(ctx, meta, followerID, followeeID)
	})
}

func (h *Hub) CountFollowers(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return call(ctx, h, "follow", "count_followers", func(c *rpc.Client) (int32, error) {
		return api.NewFollowClient(c).CountFollowers(ctx, meta, accountID)
	})
}

func (h *Hub) CountFollowees(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return call(ctx, h, "follow", "count_followees", func(c *rpc.Client) (int32, error) {
		return api.NewFollowClient(c).CountFollowees(ctx, meta, accountID)
	})
}

// Like RPCs.

func (h *Hub) CountLikesByAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return call(ctx, h, "like", "count_likes_by_account", func(c *rpc.Client) (int32, error) {
		return api.NewLikeClient(c).CountLikesByAccount(ctx, meta, accountID)
	})
}

func (h *Hub) CountLikesOfPost(ctx context.Context, meta api.RequestMetadata, postID int32) (int32, error) {
	return call(ctx, h, "like", "count_likes_of_post", func(c *rpc.Client) (int32, error) {
		return api.NewLikeClient(c).CountLikesOfPost(ctx, meta, postID)
	})
}

// Post RPCs.

func (h *Hub) CountPostsByAuthor(ctx context.Context, meta api.RequestMetadata, authorID int32) (int32, error) {
	return call(ctx, h, "post", "count_posts_by_author", func(c *rpc.Client) (int32, error) {
		return api.NewPostClient(c).CountPostsByAuthor(ctx, meta, authorID)
	})
}

func (h *Hub) RetrieveExpandedPost(ctx context.Context, meta api.RequestMetadata, postID int32) (api.Post, error) {
	return call(ctx, h, "post", "retrieve_expanded_post", func(c *rpc.Client) (api.Post, error) {
		return api.NewPostClient(c).RetrieveExpandedPost(ctx, meta, postID)
	})
}

// Trending RPCs.

func (h *Hub) ProcessPost(ctx context.Context, meta api.RequestMetadata, text string) error {
	_, err := call(ctx, h, "trending", "process_post", func(c *rpc.Client) (struct{}, error) {
		return struct{}{}, api.NewTrendingClient(c).ProcessPost(ctx, meta, text)
	})
	return err
}

// Wordfilter RPCs.

func (h *Hub) IsValidWord(ctx context.Context, meta api.RequestMetadata, word string) (bool, error) {
	return call(ctx, h, "wordfilter", "is_valid_word", func(c *rpc.Client) (bool, error) {
		return api.NewWordfilterClient(c).IsValidWord(ctx, meta, word)
	})
}

// Uniquepair RPCs.

func (h *Hub) UniquepairGet(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) (api.Uniquepair, error) {
	return call(ctx, h, "uniquepair", "get", func(c *rpc.Client) (api.Uniquepair, error) {
		return api.NewUniquepairClient(c).Get(ctx, meta, uniquepairID)
	})
}

func (h *Hub) UniquepairAdd(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	return call(ctx, h, "uniquepair", "add", func(c *rpc.Client) (api.Uniquepair, error) {
		return api.NewUniquepairClient(c).Add(ctx, meta, domain, firstElem, secondElem)
	})
}

func (h *Hub) UniquepairRemove(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) error {
	_, err := call(ctx, h, "uniquepair", "remove", func(c *rpc.Client) (struct{}, error) {
		return struct{}{}, api.NewUniquepairClient(c).Remove(ctx, meta, uniquepairID)
	})
	return err
}

func (h *Hub) UniquepairFind(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	return call(ctx, h, "uniquepair", "find", func(c *rpc.Client) (api.Uniquepair, error) {
		return api.NewUniquepairClient(c).Find(ctx, meta, domain, firstElem, secondElem)
	})
}

func (h *Hub) UniquepairFetch(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery, limit, offset int32) ([]api.Uniquepair, error) {
	return call(ctx, h, "uniquepair", "fetch", func(c *rpc.Client) ([]api.Uniquepair, error) {
		return api.NewUniquepairClient(c).Fetch(ctx, meta, query, limit, offset)
	})
}

func (h *Hub) UniquepairCount(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery) (int32, error) {
	return call(ctx, h, "uniquepair", "count", func(c *rpc.Client) (int32, error) {
		return api.NewUniquepairClient(c).Count(ctx, meta, query)
	})
}
