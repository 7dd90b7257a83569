package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// UniquepairService is the uniquepair service contract. The service keys
// rows by (domain, first_elem, second_elem) and backs both the follow and
// like relations.
type UniquepairService interface {
	Get(ctx context.Context, meta RequestMetadata, uniquepairID int32) (Uniquepair, error)
	Add(ctx context.Context, meta RequestMetadata, domain string, firstElem, secondElem int32) (Uniquepair, error)
	Remove(ctx context.Context, meta RequestMetadata, uniquepairID int32) error
	Find(ctx context.Context, meta RequestMetadata, domain string, firstElem, secondElem int32) (Uniquepair, error)
	Fetch(ctx context.Context, meta RequestMetadata, query UniquepairQuery, limit, offset int32) ([]Uniquepair, error)
	Count(ctx context.Context, meta RequestMetadata, query UniquepairQuery) (int32, error)
}

// UniquepairClient is the client stub over one RPC connection.
type UniquepairClient struct {
	c *rpc.Client
}

// NewUniquepairClient wraps an established connection.
func NewUniquepairClient(c *rpc.Client) *UniquepairClient { return &UniquepairClient{c: c} }

// Close closes the underlying connection.
func (c *UniquepairClient) Close() error { return c.c.Close() }

func (c *UniquepairClient) Get(ctx context.Context, meta RequestMetadata, uniquepairID int32) (Uniquepair, error) {
	r, err := c.c.Call(ctx, "get", &metaI32Args{Meta: meta, V: uniquepairID})
	if err != nil {
		return Uniquepair{}, err
	}
	return c.readUniquepairResult(r, "get")
}

func (c *UniquepairClient) Add(ctx context.Context, meta RequestMetadata, domain string, firstElem, secondElem int32) (Uniquepair, error) {
	r, err := c.c.Call(ctx, "add", &metaStringI32I32Args{Meta: meta, S: domain, A: firstElem, B: secondElem})
	if err != nil {
		return Uniquepair{}, err
	}
	var out Uniquepair
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &UniquepairAlreadyExistsError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Uniquepair{}, err
	}
	if !ok {
		return Uniquepair{}, missingResult("add")
	}
	return out, nil
}

func (c *UniquepairClient) Remove(ctx context.Context, meta RequestMetadata, uniquepairID int32) error {
	r, err := c.c.Call(ctx, "remove", &metaI32Args{Meta: meta, V: uniquepairID})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, func(id int16, msg string) error {
		if id == 1 {
			return &UniquepairNotFoundError{Message: msg}
		}
		return nil
	})
	return err
}

func (c *UniquepairClient) Find(ctx context.Context, meta RequestMetadata, domain string, firstElem, secondElem int32) (Uniquepair, error) {
	r, err := c.c.Call(ctx, "find", &metaStringI32I32Args{Meta: meta, S: domain, A: firstElem, B: secondElem})
	if err != nil {
		return Uniquepair{}, err
	}
	return c.readUniquepairResult(r, "find")
}

func (c *UniquepairClient) readUniquepairResult(r *rpc.Reader, method string) (Uniquepair, error) {
	var out Uniquepair
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &UniquepairNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Uniquepair{}, err
	}
	if !ok {
		return Uniquepair{}, missingResult(method)
	}
	return out, nil
}

func (c *UniquepairClient) Fetch(ctx context.Context, meta RequestMetadata, query UniquepairQuery, limit, offset int32) ([]Uniquepair, error) {
	r, err := c.c.Call(ctx, "fetch",
		&queryListArgs[UniquepairQuery, *UniquepairQuery]{Meta: meta, Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []Uniquepair
	ok, err := readResult(r, readStructList[Uniquepair, *Uniquepair](&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("fetch")
	}
	return out, nil
}

func (c *UniquepairClient) Count(ctx context.Context, meta RequestMetadata, query UniquepairQuery) (int32, error) {
	r, err := c.c.Call(ctx, "count", &queryArgs[UniquepairQuery, *UniquepairQuery]{Meta: meta, Query: query})
	if err != nil {
		return 0, err
	}
	var out int32
	ok, err := readResult(r, readI32(&out), nil)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missingResult("count")
	}
	return out, nil
}

// NewUniquepairProcessor builds the server-side dispatcher for a uniquepair
// service implementation.
func NewUniquepairProcessor(h UniquepairService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("uniquepair")

	p.Register("get", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("get", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.Get(ctx, args.Meta, args.V)
		if err != nil {
			if e, ok := err.(*UniquepairNotFoundError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	p.Register("add", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaStringI32I32Args
		if err := decodeArgs("add", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.Add(ctx, args.Meta, args.S, args.A, args.B)
		if err != nil {
			if e, ok := err.(*UniquepairAlreadyExistsError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	p.Register("remove", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("remove", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.Remove(ctx, args.Meta, args.V); err != nil {
			if e, ok := err.(*UniquepairNotFoundError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("find", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaStringI32I32Args
		if err := decodeArgs("find", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.Find(ctx, args.Meta, args.S, args.A, args.B)
		if err != nil {
			if e, ok := err.(*UniquepairNotFoundError); ok {
				return excResult(1, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	p.Register("fetch", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryListArgs[UniquepairQuery, *UniquepairQuery]
		if err := decodeArgs("fetch", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.Fetch(ctx, args.Meta, args.Query, args.Limit, args.Offset)
		if err != nil {
			return nil, err
		}
		return listResult[Uniquepair, *Uniquepair](out), nil
	})

	p.Register("count", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryArgs[UniquepairQuery, *UniquepairQuery]
		if err := decodeArgs("count", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.Count(ctx, args.Meta, args.Query)
		if err != nil {
			return nil, err
		}
		return i32Result(out), nil
	})

	return p
}
