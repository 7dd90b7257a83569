// Package account implements the account service. Accounts live in the
// account database; the follow-relationship flags and activity counts on
// the expanded view come from the follow, post, and like services.
package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/fanout"
	"github.com/buzzblog/buzzblog/internal/pgdb"
)

// maxAttrLen bounds every account attribute.
const maxAttrLen = 32

// Querier runs one statement in its own transaction. *pgdb.DB satisfies it.
type Querier interface {
	Query(ctx context.Context, queryType, sql string, scan func(rows pgx.Rows) error, args ...any) error
}

// Backend is the set of nested calls the service issues. *hub.Hub
// satisfies it.
type Backend interface {
	CheckFollow(ctx context.Context, meta api.RequestMetadata, followerID, followeeID int32) (bool, error)
	CountFollowers(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error)
	CountFollowees(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error)
	CountPostsByAuthor(ctx context.Context, meta api.RequestMetadata, authorID int32) (int32, error)
	CountLikesByAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error)
}

// Handler implements api.AccountService.
type Handler struct {
	db      Querier
	backend Backend
}

// New returns a handler backed by the account database and the other
// services.
func New(db Querier, backend Backend) *Handler {
	return &Handler{db: db, backend: backend}
}

// AuthenticateUser checks the password against the stored one. The returned
// record is standard and carries no follow lookup: followed_by_you is
// always false here.
func (h *Handler) AuthenticateUser(ctx context.Context, meta api.RequestMetadata, username, password string) (api.Account, error) {
	account := api.Account{Active: true, Username: username}
	var (
		found          bool
		active         bool
		storedPassword string
	)
	err := h.db.Query(ctx, "select",
		"SELECT id, created_at, active, password, first_name, last_name "+
			"FROM Accounts WHERE username = $1",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&account.ID, &account.CreatedAt, &active,
					&storedPassword, &account.FirstName, &account.LastName); err != nil {
					return err
				}
			}
			return nil
		}, username)
	if err != nil {
		return api.Account{}, err
	}
	if !found {
		return api.Account{}, &api.AccountInvalidCredentialsError{
			Message: "unknown username or wrong password",
		}
	}
	if !active {
		return api.Account{}, &api.AccountDeactivatedError{
			Message: fmt.Sprintf("account %d is deactivated", account.ID),
		}
	}
	if password != storedPassword {
		return api.Account{}, &api.AccountInvalidCredentialsError{
			Message: "unknown username or wrong password",
		}
	}
	account.FollowedByYou = api.Bool(false)
	return account, nil
}

func (h *Handler) CreateAccount(ctx context.Context, meta api.RequestMetadata, username, password, firstName, lastName string) (api.Account, error) {
	if !validAttributes(username, password, firstName, lastName) {
		return api.Account{}, &api.AccountInvalidAttributesError{
			Message: fmt.Sprintf("every attribute must be 1 to %d characters", maxAttrLen),
		}
	}
	account := api.Account{Active: true, Username: username, FirstName: firstName, LastName: lastName}
	err := h.db.Query(ctx, "insert",
		"INSERT INTO Accounts (created_at, username, password, first_name, last_name) "+
			"VALUES (extract(epoch from now()), $1, $2, $3, $4) RETURNING id, created_at",
		func(rows pgx.Rows) error {
			for rows.Next() {
				if err := rows.Scan(&account.ID, &account.CreatedAt); err != nil {
					return err
				}
			}
			return nil
		}, username, password, firstName, lastName)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return api.Account{}, &api.AccountUsernameAlreadyExistsError{
				Message: fmt.Sprintf("username %q is taken", username),
			}
		}
		return api.Account{}, err
	}
	return account, nil
}

// RetrieveStandardAccount reads the row and issues one follow check
// (requester -> account) to fill followed_by_you.
func (h *Handler) RetrieveStandardAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error) {
	account, err := h.readAccount(ctx, accountID)
	if err != nil {
		return api.Account{}, err
	}
	followedByYou, err := h.backend.CheckFollow(ctx, meta, meta.RequesterID, accountID)
	if err != nil {
		return api.Account{}, err
	}
	account.FollowedByYou = api.Bool(followedByYou)
	return account, nil
}

func (h *Handler) RetrieveExpandedAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error) {
	account, err := h.RetrieveStandardAccount(ctx, meta, accountID)
	if err != nil {
		return api.Account{}, err
	}
	g := fanout.NewGroup(0)
	if err := h.spawnExpand(ctx, g, meta, accountID).join(&account); err != nil {
		return api.Account{}, err
	}
	return account, nil
}

func (h *Handler) UpdateAccount(ctx context.Context, meta api.RequestMetadata, accountID int32, password, firstName, lastName string) (api.Account, error) {
	if meta.RequesterID != accountID {
		return api.Account{}, &api.AccountNotAuthorizedError{
			Message: fmt.Sprintf("account %d cannot update account %d", meta.RequesterID, accountID),
		}
	}
	// The username is not updatable, so it is validated with a stand-in.
	if !validAttributes("john.doe", password, firstName, lastName) {
		return api.Account{}, &api.AccountInvalidAttributesError{
			Message: fmt.Sprintf("every attribute must be 1 to %d characters", maxAttrLen),
		}
	}
	account := api.Account{ID: accountID, FirstName: firstName, LastName: lastName}
	found := false
	err := h.db.Query(ctx, "update",
		"UPDATE Accounts SET password = $1, first_name = $2, last_name = $3 "+
			"WHERE id = $4 RETURNING created_at, active, username",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&account.CreatedAt, &account.Active, &account.Username); err != nil {
					return err
				}
			}
			return nil
		}, password, firstName, lastName, accountID)
	if err != nil {
		return api.Account{}, err
	}
	if !found {
		return api.Account{}, &api.AccountNotFoundError{
			Message: fmt.Sprintf("no account with id %d", accountID),
		}
	}
	return account, nil
}

func (h *Handler) DeleteAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) error {
	if meta.RequesterID != accountID {
		return &api.AccountNotAuthorizedError{
			Message: fmt.Sprintf("account %d cannot delete account %d", meta.RequesterID, accountID),
		}
	}
	found := false
	err := h.db.Query(ctx, "update",
		"UPDATE Accounts SET active = FALSE WHERE id = $1 RETURNING id",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				var id int32
				if err := rows.Scan(&id); err != nil {
					return err
				}
			}
			return nil
		}, accountID)
	if err != nil {
		return err
	}
	if !found {
		return &api.AccountNotFoundError{
			Message: fmt.Sprintf("no account with id %d", accountID),
		}
	}
	return nil
}

func (h *Handler) ListAccounts(ctx context.Context, meta api.RequestMetadata, query api.AccountQuery, limit, offset int32) ([]api.Account, error) {
	where := "active = true"
	args := []any{}
	if query.Username != nil {
		args = append(args, *query.Username)
		where += fmt.Sprintf(" AND username = $%d", len(args))
	}
	sql := fmt.Sprintf(
		"SELECT id, created_at, active, username, first_name, last_name "+
			"FROM Accounts WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var accounts []api.Account
	err := h.db.Query(ctx, "select", sql, func(rows pgx.Rows) error {
		for rows.Next() {
			var a api.Account
			if err := rows.Scan(&a.ID, &a.CreatedAt, &a.Active, &a.Username,
				&a.FirstName, &a.LastName); err != nil {
				return err
			}
			accounts = append(accounts, a)
		}
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}

	// Rows come from a plain select, so the followed_by_you check joins the
	// fan-out here instead of riding on the standard retrieval.
	g := fanout.NewGroup(0)
	followedByYou := make([]*fanout.Task[bool], len(accounts))
	expansions := make([]expansion, len(accounts))
	for i := range accounts {
		accountID := accounts[i].ID
		followedByYou[i] = fanout.Go(ctx, g, func(ctx context.Context) (bool, error) {
			return h.backend.CheckFollow(ctx, meta, meta.RequesterID, accountID)
		})
		expansions[i] = h.spawnExpand(ctx, g, meta, accountID)
	}
	for i := range accounts {
		followed, err := followedByYou[i].Get()
		if err != nil {
			return nil, err
		}
		accounts[i].FollowedByYou = api.Bool(followed)
		if err := expansions[i].join(&accounts[i]); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func (h *Handler) readAccount(ctx context.Context, accountID int32) (api.Account, error) {
	account := api.Account{ID: accountID}
	found := false
	err := h.db.Query(ctx, "select",
		"SELECT created_at, active, username, first_name, last_name "+
			"FROM Accounts WHERE id = $1",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&account.CreatedAt, &account.Active, &account.Username,
					&account.FirstName, &account.LastName); err != nil {
					return err
				}
			}
			return nil
		}, accountID)
	if err != nil {
		return api.Account{}, err
	}
	if !found {
		return api.Account{}, &api.AccountNotFoundError{
			Message: fmt.Sprintf("no account with id %d", accountID),
		}
	}
	return account, nil
}

// expansion holds the in-flight activity lookups for one account.
type expansion struct {
	followsYou *fanout.Task[bool]
	nFollowers *fanout.Task[int32]
	nFollowing *fanout.Task[int32]
	nPosts     *fanout.Task[int32]
	nLikes     *fanout.Task[int32]
}

func (h *Handler) spawnExpand(ctx context.Context, g *fanout.Group, meta api.RequestMetadata, accountID int32) expansion {
	return expansion{
		followsYou: fanout.Go(ctx, g, func(ctx context.Context) (bool, error) {
			return h.backend.CheckFollow(ctx, meta, accountID, meta.RequesterID)
		}),
		nFollowers: fanout.Go(ctx, g, func(ctx context.Context) (int32, error) {
			return h.backend.CountFollowers(ctx, meta, accountID)
		}),
		nFollowing: fanout.Go(ctx, g, func(ctx context.Context) (int32, error) {
			return h.backend.CountFollowees(ctx, meta, accountID)
		}),
		nPosts: fanout.Go(ctx, g, func(ctx context.Context) (int32, error) {
			return h.backend.CountPostsByAuthor(ctx, meta, accountID)
		}),
		nLikes: fanout.Go(ctx, g, func(ctx context.Context) (int32, error) {
			return h.backend.CountLikesByAccount(ctx, meta, accountID)
		}),
	}
}

func (e expansion) join(account *api.Account) error {
	followsYou, err := e.followsYou.Get()
	if err != nil {
		return err
	}
	nFollowers, err := e.nFollowers.Get()
	if err != nil {
		return err
	}
	nFollowing, err := e.nFollowing.Get()
	if err != nil {
		return err
	}
	nPosts, err := e.nPosts.Get()
	if err != nil {
		return err
	}
	nLikes, err := e.nLikes.Get()
	if err != nil {
		return err
	}
	account.FollowsYou = api.Bool(followsYou)
	account.NFollowers = api.I32(nFollowers)
	account.NFollowing = api.I32(nFollowing)
	account.NPosts = api.I32(nPosts)
	account.NLikes = api.I32(nLikes)
	return nil
}

func validAttributes(attrs ...string) bool {
	for _, a := range attrs {
		if len(a) == 0 || len(a) > maxAttrLen {
			return false
		}
	}
	return true
}
