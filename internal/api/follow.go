package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// FollowService is the follow service contract.
type FollowService interface {
	FollowAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Follow, error)
	RetrieveStandardFollow(ctx context.Context, meta RequestMetadata, followID int32) (Follow, error)
	RetrieveExpandedFollow(ctx context.Context, meta RequestMetadata, followID int32) (Follow, error)
	DeleteFollow(ctx context.Context, meta RequestMetadata, followID int32) error
	ListFollows(ctx context.Context, meta RequestMetadata, query FollowQuery, limit, offset int32) ([]Follow, error)
	CheckFollow(ctx context.Context, meta RequestMetadata, followerID, followeeID int32) (bool, error)
	CountFollowers(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error)
	CountFollowees(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error)
}

// FollowClient is the client stub over one RPC connection.
type FollowClient struct {
	c *rpc.Client
}

// NewFollowClient wraps an established connection.
func NewFollowClient(c *rpc.Client) *FollowClient { return &FollowClient{c: c} }

// Close closes the underlying connection.
func (c *FollowClient) Close() error { return c.c.Close() }

func (c *FollowClient) FollowAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Follow, error) {
	r, err := c.c.Call(ctx, "follow_account", &metaI32Args{Meta: meta, V: accountID})
	if err != nil {
		return Follow{}, err
	}
	var out Follow
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		switch id {
		case 1:
			return &FollowAlreadyExistsError{Message: msg}
		case 2:
			return &FollowInvalidAttributesError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Follow{}, err
	}
	if !ok {
		return Follow{}, missingResult("follow_account")
	}
	return out, nil
}

func (c *FollowClient) RetrieveStandardFollow(ctx context.Context, meta RequestMetadata, followID int32) (Follow, error) {
	return c.retrieveFollow(ctx, "retrieve_standard_follow", meta, followID)
}

func (c *FollowClient) RetrieveExpandedFollow(ctx context.Context, meta RequestMetadata, followID int32) (Follow, error) {
	return c.retrieveFollow(ctx, "retrieve_expanded_follow", meta, followID)
}

func (c *FollowClient) retrieveFollow(ctx context.Context, method string, meta RequestMetadata, followID int32) (Follow, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: followID})
	if err != nil {
		return Follow{}, err
	}
	var out Follow
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &FollowNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Follow{}, err
	}
	if !ok {
		return Follow{}, missingResult(method)
	}
	return out, nil
}

func (c *FollowClient) DeleteFollow(ctx context.Context, meta RequestMetadata, followID int32) error {
	r, err := c.c.Call(ctx, "delete_follow", &metaI32Args{Meta: meta, V: followID})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, func(id int16, msg string) error {
		switch id {
		case 1:
			return &FollowNotFoundError{Message: msg}
		case 2:
			return &FollowNotAuthorizedError{Message: msg}
		}
		return nil
	})
	return err
}

func (c *FollowClient) ListFollows(ctx context.Context, meta RequestMetadata, query FollowQuery, limit, offset int32) ([]Follow, error) {
	r, err := c.c.Call(ctx, "list_follows",
		&queryListArgs[FollowQuery, *FollowQuery]{Meta: meta, Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []Follow
	ok, err := readResult(r, readStructList[Follow, *Follow](&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("list_follows")
	}
	return out, nil
}

func (c *FollowClient) CheckFollow(ctx context.Context, meta RequestMetadata, followerID, followeeID int32) (bool, error) {
	r, err := c.c.Call(ctx, "check_follow", &metaI32I32Args{Meta: meta, A: followerID, B: followeeID})
	if err != nil {
		return false, err
	}
	var out bool
	ok, err := readResult(r, readBool(&out), nil)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, missingResult("check_follow")
	}
	return out, nil
}

func (c *FollowClient) CountFollowers(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error) {
	return c.countFollows(ctx, "count_followers", meta, accountID)
}

func (c *FollowClient) CountFollowees(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error) {
	return c.countFollows(ctx, "count_followees", meta, accountID)
}

func (c *FollowClient) countFollows(ctx context.Context, method string, meta RequestMetadata, accountID int32) (int32, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: accountID})
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

// NewFollowProcessor builds the server-side dispatcher for a follow service
// implementation.
func NewFollowProcessor(h FollowService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("follow")

	p.Register("follow_account", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("follow_account", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.FollowAccount(ctx, args.Meta, args.V)
		if err != nil {
			switch e := err.(type) {
			case *FollowAlreadyExistsError:
				return excResult(1, e.Message), nil
			case *FollowInvalidAttributesError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	retrieve := func(method string, call func(ctx context.Context, meta RequestMetadata, followID int32) (Follow, error)) {
		p.Register(method, func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
			var args metaI32Args
			if err := decodeArgs(method, in, &args); err != nil {
				return nil, err
			}
			ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
			out, err := call(ctx, args.Meta, args.V)
			if err != nil {
				if e, ok := err.(*FollowNotFoundError); ok {
					return excResult(1, e.Message), nil
				}
				return nil, err
			}
			return structResult(&out), nil
		})
	}
	retrieve("retrieve_standard_follow", h.RetrieveStandardFollow)
	retrieve("retrieve_expanded_follow", h.RetrieveExpandedFollow)

	p.Register("delete_follow", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("delete_follow", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.DeleteFollow(ctx, args.Meta, args.V); err != nil {
			switch e := err.(type) {
			case *FollowNotFoundError:
				return excResult(1, e.Message), nil
			case *FollowNotAuthorizedError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("list_follows", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryListArgs[FollowQuery, *FollowQuery]
		if err := decodeArgs("list_follows", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.ListFollows(ctx, args.Meta, args.Query, args.Limit, args.Offset)
		if err != nil {
			return nil, err
		}
		return listResult[Follow, *Follow](out), nil
	})

	p.Register("check_follow", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32I32Args
		if err := decodeArgs("check_follow", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.CheckFollow(ctx, args.Meta, args.A, args.B)
		if err != nil {
			return nil, err
		}
		return boolResult(out), nil
	})

	count := func(method string, call func(ctx context.Context, meta RequestMetadata, accountID int32) (int32, error)) {
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
	count("count_followers", h.CountFollowers)
	count("count_followees", h.CountFollowees)

	return p
}
