package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// WordfilterService is the wordfilter service contract.
type WordfilterService interface {
	IsValidWord(ctx context.Context, meta RequestMetadata, word string) (bool, error)
}

// WordfilterClient is the client stub over one RPC connection.
type WordfilterClient struct {
	c *rpc.Client
}

// NewWordfilterClient wraps an established connection.
func NewWordfilterClient(c *rpc.Client) *WordfilterClient { return &WordfilterClient{c: c} }

// Close closes the underlying connection.
func (c *WordfilterClient) Close() error { return c.c.Close() }

func (c *WordfilterClient) IsValidWord(ctx context.Context, meta RequestMetadata, word string) (bool, error) {
	r, err := c.c.Call(ctx, "is_valid_word", &metaStringArgs{Meta: meta, S: word})
	if err != nil {
		return false, err
	}
	var out bool
	ok, err := readResult(r, readBool(&out), nil)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, missingResult("is_valid_word")
	}
	return out, nil
}

// NewWordfilterProcessor builds the server-side dispatcher for a wordfilter
// service implementation.
func NewWordfilterProcessor(h WordfilterService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("wordfilter")

	p.Register("is_valid_word", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaStringArgs
		if err := decodeArgs("is_valid_word", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.IsValidWord(ctx, args.Meta, args.S)
		if err != nil {
			return nil, err
		}
		return boolResult(out), nil
	})

	return p
}
