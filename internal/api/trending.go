package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// TrendingService is the trending service contract.
type TrendingService interface {
	ProcessPost(ctx context.Context, meta RequestMetadata, text string) error
	FetchTrendingHashtags(ctx context.Context, meta RequestMetadata, limit int32) ([]string, error)
}

// TrendingClient is the client stub over one RPC connection.
type TrendingClient struct {
	c *rpc.Client
}

// NewTrendingClient wraps an established connection.
func NewTrendingClient(c *rpc.Client) *TrendingClient { return &TrendingClient{c: c} }

// Close closes the underlying connection.
func (c *TrendingClient) Close() error { return c.c.Close() }

func (c *TrendingClient) ProcessPost(ctx context.Context, meta RequestMetadata, text string) error {
	r, err := c.c.Call(ctx, "process_post", &metaStringArgs{Meta: meta, S: text})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, nil)
	return err
}

func (c *TrendingClient) FetchTrendingHashtags(ctx context.Context, meta RequestMetadata, limit int32) ([]string, error) {
	r, err := c.c.Call(ctx, "fetch_trending_hashtags", &metaI32Args{Meta: meta, V: limit})
	if err != nil {
		return nil, err
	}
	var out []string
	ok, err := readResult(r, readStringList(&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("fetch_trending_hashtags")
	}
	return out, nil
}

// NewTrendingProcessor builds the server-side dispatcher for a trending
// service implementation.
func NewTrendingProcessor(h TrendingService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("trending")

	p.Register("process_post", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaStringArgs
		if err := decodeArgs("process_post", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.ProcessPost(ctx, args.Meta, args.S); err != nil {
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("fetch_trending_hashtags", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("fetch_trending_hashtags", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.FetchTrendingHashtags(ctx, args.Meta, args.V)
		if err != nil {
			return nil, err
		}
		return stringListResult(out), nil
	})

	return p
}
