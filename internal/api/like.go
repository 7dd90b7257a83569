package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// LikeService is the like service contract.
type LikeService interface {
	LikePost(ctx context.Context, meta RequestMetadata, postID int32) (Like, error)
	RetrieveStandardLike(ctx context.Context, meta RequestMetadata, likeID int32) (Like, error)
	RetrieveExpandedLike(ctx context.Context, meta RequestMetadata, likeID int32) (Like, error)
	DeleteLike(ctx context.Context, meta RequestMetadata, likeID int32) error
	ListLikes(ctx context.Context, meta RequestMetadata, query LikeQuery, limit, offset int32) ([]Like, error)
	CountLikesByAccount(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error)
	CountLikesOfPost(ctx context.Context, meta RequestMetadata, postID int32) (int32, error)
}

// LikeClient is the client stub over one RPC connection.
type LikeClient struct {
	c *rpc.Client
}

// NewLikeClient wraps an established connection.
func NewLikeClient(c *rpc.Client) *LikeClient { return &LikeClient{c: c} }

// Close closes the underlying connection.
func (c *LikeClient) Close() error { return c.c.Close() }

func (c *LikeClient) LikePost(ctx context.Context, meta RequestMetadata, postID int32) (Like, error) {
	r, err := c.c.Call(ctx, "like_post", &metaI32Args{Meta: meta, V: postID})
	if err != nil {
		return Like{}, err
	}
	var out Like
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &LikeAlreadyExistsError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Like{}, err
	}
	if !ok {
		return Like{}, missingResult("like_post")
	}
	return out, nil
}

func (c *LikeClient) RetrieveStandardLike(ctx context.Context, meta RequestMetadata, likeID int32) (Like, error) {
	return c.retrieveLike(ctx, "retrieve_standard_like", meta, likeID)
}

func (c *LikeClient) RetrieveExpandedLike(ctx context.Context, meta RequestMetadata, likeID int32) (Like, error) {
	return c.retrieveLike(ctx, "retrieve_expanded_like", meta, likeID)
}

func (c *LikeClient) retrieveLike(ctx context.Context, method string, meta RequestMetadata, likeID int32) (Like, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: likeID})
	if err != nil {
		return Like{}, err
	}
	var out Like
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &LikeNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Like{}, err
	}
	if !ok {
		return Like{}, missingResult(method)
	}
	return out, nil
}

func (c *LikeClient) DeleteLike(ctx context.Context, meta RequestMetadata, likeID int32) error {
	r, err := c.c.Call(ctx, "delete_like", &metaI32Args{Meta: meta, V: likeID})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, func(id int16, msg string) error {
		switch id {
		case 1:
			return &LikeNotFoundError{Message: msg}
		case 2:
			return &LikeNotAuthorizedError{Message: msg}
		}
		return nil
	})
	return err
}

func (c *LikeClient) ListLikes(ctx context.Context, meta RequestMetadata, query LikeQuery, limit, offset int32) ([]Like, error) {
	r, err := c.c.Call(ctx, "list_likes",
		&queryListArgs[LikeQuery, *LikeQuery]{Meta: meta, Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []Like
	ok, err := readResult(r, readStructList[Like, *Like](&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("list_likes")
	}
	return out, nil
}

func (c *LikeClient) CountLikesByAccount(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error) {
	return c.countLikes(ctx, "count_likes_by_account", meta, accountID)
}

func (c *LikeClient) CountLikesOfPost(ctx context.Context, meta RequestMetadata, postID int32) (int32, error) {
	return c.countLikes(ctx, "count_likes_of_post", meta, postID)
}

func (c *LikeClient) countLikes(ctx context.Context, method string, meta RequestMetadata, id int32) (int32, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: id})
	if err != nil {
		return 0, err
	}
	var out int32
	ok, err := readResult(r, readI32(&out), nil)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missingResult(method)
	}
	return out, nil
}

// NewLikeProcessor builds the server-side dispatcher for a like service
// implementation.
func NewLikeProcessor(h LikeService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("like")

	p.Register("like_post", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("like_post", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.LikePost(ctx, args.Meta, args.V)
		if err != nil {
			if e, ok := err.(*LikeAlreadyExistsError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	retrieve := func(method string, call func(ctx context.Context, meta RequestMetadata, likeID int32) (Like, error)) {
		p.Register(method, func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
			var args metaI32Args
			if err := decodeArgs(method, in, &args); err != nil {
				return nil, err
			}
			ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
			out, err := call(ctx, args.Meta, args.V)
			if err != nil {
				if e, ok := err.(*LikeNotFoundError); ok {
					return excResult(1, e.Message), nil
				}
				return nil, err
			}
			return structResult(&out), nil
		})
	}
	retrieve("retrieve_standard_like", h.RetrieveStandardLike)
	retrieve("retrieve_expanded_like", h.RetrieveExpandedLike)

	p.Register("delete_like", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("delete_like", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.DeleteLike(ctx, args.Meta, args.V); err != nil {
			switch e := err.(type) {
			case *LikeNotFoundError:
				return excResult(1, e.Message), nil
			case *LikeNotAuthorizedError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("list_likes", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryListArgs[LikeQuery, *LikeQuery]
		if err := decodeArgs("list_likes", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.ListLikes(ctx, args.Meta, args.Query, args.Limit, args.Offset)
		if err != nil {
			return nil, err
		}
		return listResult[Like, *Like](out), nil
	})

	count := func(method string, call func(ctx context.Context, meta RequestMetadata, id int32) (int32, error)) {
		p.Register(method, func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
			var args metaI32Args
			if err := decodeArgs(method, in, &args); err != nil {
				return nil, err
			}
			ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
			out, err := call(ctx, args.Meta, args.V)
			if err != nil {
				return nil, err
			}
			return i32Result(out), nil
		})
	}
	count("count_likes_by_account", h.CountLikesByAccount)
	count("count_likes_of_post", h.CountLikesOfPost)

	return p
}
