package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// PostService is the post service contract.
type PostService interface {
	CreatePost(ctx context.Context, meta RequestMetadata, text string) (Post, error)
	RetrieveStandardPost(ctx context.Context, meta RequestMetadata, postID int32) (Post, error)
	RetrieveExpandedPost(ctx context.Context, meta RequestMetadata, postID int32) (Post, error)
	DeletePost(ctx context.Context, meta RequestMetadata, postID int32) error
	ListPosts(ctx context.Context, meta RequestMetadata, query PostQuery, limit, offset int32) ([]Post, error)
	CountPostsByAuthor(ctx context.Context, meta RequestMetadata, authorID int32) (int32, error)
}

// PostClient is the client stub over one RPC connection.
type PostClient struct {
	c *rpc.Client
}

// NewPostClient wraps an established connection.
func NewPostClient(c *rpc.Client) *PostClient { return &PostClient{c: c} }

// Close closes the underlying connection.
func (c *PostClient) Close() error { return c.c.Close() }

func (c *PostClient) CreatePost(ctx context.Context, meta RequestMetadata, text string) (Post, error) {
	r, err := c.c.Call(ctx, "create_post", &metaStringArgs{Meta: meta, S: text})
	if err != nil {
		return Post{}, err
	}
	var out Post
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &PostInvalidAttributesError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, missingResult("create_post")
	}
	return out, nil
}

func (c *PostClient) RetrieveStandardPost(ctx context.Context, meta RequestMetadata, postID int32) (Post, error) {
	return c.retrievePost(ctx, "retrieve_standard_post", meta, postID)
}

func (c *PostClient) RetrieveExpandedPost(ctx context.Context, meta RequestMetadata, postID int32) (Post, error) {
	return c.retrievePost(ctx, "retrieve_expanded_post", meta, postID)
}

func (c *PostClient) retrievePost(ctx context.Context, method string, meta RequestMetadata, postID int32) (Post, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: postID})
	if err != nil {
		return Post{}, err
	}
	var out Post
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &PostNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, missingResult(method)
	}
	return out, nil
}

func (c *PostClient) DeletePost(ctx context.Context, meta RequestMetadata, postID int32) error {
	r, err := c.c.Call(ctx, "delete_post", &metaI32Args{Meta: meta, V: postID})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, func(id int16, msg string) error {
		switch id {
		case 1:
			return &PostNotFoundError{Message: msg}
		case 2:
			return &PostNotAuthorizedError{Message: msg}
		}
		return nil
	})
	return err
}

func (c *PostClient) ListPosts(ctx context.Context, meta RequestMetadata, query PostQuery, limit, offset int32) ([]Post, error) {
	r, err := c.c.Call(ctx, "list_posts",
		&queryListArgs[PostQuery, *PostQuery]{Meta: meta, Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []Post
	ok, err := readResult(r, readStructList[Post, *Post](&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("list_posts")
	}
	return out, nil
}

func (c *PostClient) CountPostsByAuthor(ctx context.Context, meta RequestMetadata, authorID int32) (int32, error) {
	r, err := c.c.Call(ctx, "count_posts_by_author", &metaI32Args{Meta: meta, V: authorID})
	if err != nil {
		return 0, err
	}
	var out int32
	ok, err := readResult(r, readI32(&out), nil)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missingResult("count_posts_by_author")
	}
	return out, nil
}

// NewPostProcessor builds the server-side dispatcher for a post service
// implementation.
func NewPostProcessor(h PostService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("post")

	p.Register("create_post", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaStringArgs
		if err := decodeArgs("create_post", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.CreatePost(ctx, args.Meta, args.S)
		if err != nil {
			if e, ok := err.(*PostInvalidAttributesError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	retrieve := func(method string, call func(ctx context.Context, meta RequestMetadata, postID int32) (Post, error)) {
		p.Register(method, func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
			var args metaI32Args
			if err := decodeArgs(method, in, &args); err != nil {
				return nil, err
			}
			ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
			out, err := call(ctx, args.Meta, args.V)
			if err != nil {
				if e, ok := err.(*PostNotFoundError); ok {
					return excResult(1, e.Message), nil
				}
				return nil, err
			}
			return structResult(&out), nil
		})
	}
	retrieve("retrieve_standard_post", h.RetrieveStandardPost)
	retrieve("retrieve_expanded_post", h.RetrieveExpandedPost)

	p.Register("delete_post", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("delete_post", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.DeletePost(ctx, args.Meta, args.V); err != nil {
			switch e := err.(type) {
			case *PostNotFoundError:
				return excResult(1, e.Message), nil
			case *PostNotAuthorizedError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("list_posts", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryListArgs[PostQuery, *PostQuery]
		if err := decodeArgs("list_posts", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.ListPosts(ctx, args.Meta, args.Query, args.Limit, args.Offset)
		if err != nil {
			return nil, err
		}
		return listResult[Post, *Post](out), nil
	})

	p.Register("count_posts_by_author", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("count_posts_by_author", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.CountPostsByAuthor(ctx, args.Meta, args.V)
		if err != nil {
			return nil, err
		}
		return i32Result(out), nil
	})

	return p
}
