package api

import (
	"context"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/rpc"
)

// AccountService is the account service contract. Implemented by the server
// handler and by AccountClient.
type AccountService interface {
	AuthenticateUser(ctx context.Context, meta RequestMetadata, username, password string) (Account, error)
	CreateAccount(ctx context.Context, meta RequestMetadata, username, password, firstName, lastName string) (Account, error)
	RetrieveStandardAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Account, error)
	RetrieveExpandedAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Account, error)
	UpdateAccount(ctx context.Context, meta RequestMetadata, accountID int32, password, firstName, lastName string) (Account, error)
	DeleteAccount(ctx context.Context, meta RequestMetadata, accountID int32) error
	ListAccounts(ctx context.Context, meta RequestMetadata, query AccountQuery, limit, offset int32) ([]Account, error)
}

// AccountClient is the client stub over one RPC connection.
type AccountClient struct {
	c *rpc.Client
}

// NewAccountClient wraps an established connection.
func NewAccountClient(c *rpc.Client) *AccountClient { return &AccountClient{c: c} }

// Close closes the underlying connection.
func (c *AccountClient) Close() error { return c.c.Close() }

func (c *AccountClient) AuthenticateUser(ctx context.Context, meta RequestMetadata, username, password string) (Account, error) {
	r, err := c.c.Call(ctx, "authenticate_user", &metaString2Args{Meta: meta, S1: username, S2: password})
	if err != nil {
		return Account{}, err
	}
	var out Account
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		switch id {
		case 1:
			return &AccountInvalidCredentialsError{Message: msg}
		case 2:
			return &AccountDeactivatedError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, missingResult("authenticate_user")
	}
	return out, nil
}

func (c *AccountClient) CreateAccount(ctx context.Context, meta RequestMetadata, username, password, firstName, lastName string) (Account, error) {
	r, err := c.c.Call(ctx, "create_account",
		&metaString4Args{Meta: meta, S1: username, S2: password, S3: firstName, S4: lastName})
	if err != nil {
		return Account{}, err
	}
	var out Account
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		switch id {
		case 1:
			return &AccountUsernameAlreadyExistsError{Message: msg}
		case 2:
			return &AccountInvalidAttributesError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, missingResult("create_account")
	}
	return out, nil
}

func (c *AccountClient) RetrieveStandardAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Account, error) {
	return c.retrieveAccount(ctx, "retrieve_standard_account", meta, accountID)
}

func (c *AccountClient) RetrieveExpandedAccount(ctx context.Context, meta RequestMetadata, accountID int32) (Account, error) {
	return c.retrieveAccount(ctx, "retrieve_expanded_account", meta, accountID)
}

func (c *AccountClient) retrieveAccount(ctx context.Context, method string, meta RequestMetadata, accountID int32) (Account, error) {
	r, err := c.c.Call(ctx, method, &metaI32Args{Meta: meta, V: accountID})
	if err != nil {
		return Account{}, err
	}
	var out Account
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		if id == 1 {
			return &AccountNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, missingResult(method)
	}
	return out, nil
}

func (c *AccountClient) UpdateAccount(ctx context.Context, meta RequestMetadata, accountID int32, password, firstName, lastName string) (Account, error) {
	r, err := c.c.Call(ctx, "update_account",
		&metaI32String3Args{Meta: meta, V: accountID, S1: password, S2: firstName, S3: lastName})
	if err != nil {
		return Account{}, err
	}
	var out Account
	ok, err := readResult(r, readStruct(&out), func(id int16, msg string) error {
		switch id {
		case 1:
			return &AccountNotAuthorizedError{Message: msg}
		case 2:
			return &AccountInvalidAttributesError{Message: msg}
		case 3:
			return &AccountNotFoundError{Message: msg}
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, missingResult("update_account")
	}
	return out, nil
}

func (c *AccountClient) DeleteAccount(ctx context.Context, meta RequestMetadata, accountID int32) error {
	r, err := c.c.Call(ctx, "delete_account", &metaI32Args{Meta: meta, V: accountID})
	if err != nil {
		return err
	}
	_, err = readResult(r, nil, func(id int16, msg string) error {
		switch id {
		case 1:
			return &AccountNotAuthorizedError{Message: msg}
		case 2:
			return &AccountNotFoundError{Message: msg}
		}
		return nil
	})
	return err
}

func (c *AccountClient) ListAccounts(ctx context.Context, meta RequestMetadata, query AccountQuery, limit, offset int32) ([]Account, error) {
	r, err := c.c.Call(ctx, "list_accounts",
		&queryListArgs[AccountQuery, *AccountQuery]{Meta: meta, Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []Account
	ok, err := readResult(r, readStructList[Account, *Account](&out), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingResult("list_accounts")
	}
	return out, nil
}

// NewAccountProcessor builds the server-side dispatcher for an account
// service implementation. Errors outside a method's declared exception set
// surface to the peer as application exceptions.
func NewAccountProcessor(h AccountService) *rpc.ServiceProcessor {
	p := rpc.NewServiceProcessor("account")

	p.Register("authenticate_user", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaString2Args
		if err := decodeArgs("authenticate_user", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.AuthenticateUser(ctx, args.Meta, args.S1, args.S2)
		if err != nil {
			switch e := err.(type) {
			case *AccountInvalidCredentialsError:
				return excResult(1, e.Message), nil
			case *AccountDeactivatedError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	p.Register("create_account", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaString4Args
		if err := decodeArgs("create_account", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.CreateAccount(ctx, args.Meta, args.S1, args.S2, args.S3, args.S4)
		if err != nil {
			switch e := err.(type) {
			case *AccountUsernameAlreadyExistsError:
				return excResult(1, e.Message), nil
			case *AccountInvalidAttributesError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	retrieve := func(method string, call func(ctx context.Context, meta RequestMetadata, accountID int32) (Account, error)) {
		p.Register(method, func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
			var args metaI32Args
			if err := decodeArgs(method, in, &args); err != nil {
				return nil, err
			}
			ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
			out, err := call(ctx, args.Meta, args.V)
			if err != nil {
				if e, ok := err.(*AccountNotFoundError); ok {
					return excResult(1, e.Message), nil
				}
				return nil, err
			}
			return structResult(&out), nil
		})
	}
	retrieve("retrieve_standard_account", h.RetrieveStandardAccount)
	retrieve("retrieve_expanded_account", h.RetrieveExpandedAccount)

	p.Register("update_account", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32String3Args
		if err := decodeArgs("update_account", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.UpdateAccount(ctx, args.Meta, args.V, args.S1, args.S2, args.S3)
		if err != nil {
			switch e := err.(type) {
			case *AccountNotAuthorizedError:
				return excResult(1, e.Message), nil
			case *AccountInvalidAttributesError:
				return excResult(2, e.Message), nil
			case *AccountNotFoundError:
				return excResult(3, e.Message), nil
			}
			return nil, err
		}
		return structResult(&out), nil
	})

	p.Register("delete_account", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args metaI32Args
		if err := decodeArgs("delete_account", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		if err := h.DeleteAccount(ctx, args.Meta, args.V); err != nil {
			switch e := err.(type) {
			case *AccountNotAuthorizedError:
				return excResult(1, e.Message), nil
			case *AccountNotFoundError:
				return excResult(2, e.Message), nil
			}
			return nil, err
		}
		return voidResult(), nil
	})

	p.Register("list_accounts", func(ctx context.Context, in *rpc.Reader) (rpc.Writable, error) {
		var args queryListArgs[AccountQuery, *AccountQuery]
		if err := decodeArgs("list_accounts", in, &args); err != nil {
			return nil, err
		}
		ctx = observability.ContextWithRequestID(ctx, args.Meta.ID)
		out, err := h.ListAccounts(ctx, args.Meta, args.Query, args.Limit, args.Offset)
		if err != nil {
			return nil, err
		}
		return listResult[Account, *Account](out), nil
	})

	return p
}
