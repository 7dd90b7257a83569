package account

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/pgdb"
	"github.com/buzzblog/buzzblog/internal/pool"
)

// fakeBackend answers nested calls from canned data and counts them.
type fakeBackend struct {
	mu      sync.Mutex
	follows map[[2]int32]bool
	calls   int
}

func (f *fakeBackend) CheckFollow(_ context.Context, _ api.RequestMetadata, followerID, followeeID int32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.follows[[2]int32{followerID, followeeID}], nil
}

func (f *fakeBackend) count() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 2, nil
}

func (f *fakeBackend) CountFollowers(context.Context, api.RequestMetadata, int32) (int32, error) {
	return f.count()
}

func (f *fakeBackend) CountFollowees(context.Context, api.RequestMetadata, int32) (int32, error) {
	return f.count()
}

func (f *fakeBackend) CountPostsByAuthor(context.Context, api.RequestMetadata, int32) (int32, error) {
	return f.count()
}

func (f *fakeBackend) CountLikesByAccount(context.Context, api.RequestMetadata, int32) (int32, error) {
	return f.count()
}

func newHandler(t *testing.T, backend *fakeBackend) (*Handler, pgxmock.PgxConnIface) {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)

	db, err := pgdb.Open(pgdb.Options{
		LocalService: "account",
		Name:         "account",
		Endpoint:     pool.Endpoint{Host: "account_database", Port: 5432},
		MaxSize:      1,
		Dial: func(pool.Endpoint) (*pgdb.Session, error) {
			return pgdb.NewSession(mock), nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return New(db, backend), mock
}

func authRow(active bool, password string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "created_at", "active", "password", "first_name", "last_name"}).
		AddRow(int32(7), int64(1600000000), active, password, "Alice", "Smith")
}

func TestAuthenticateUser(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, password, first_name, last_name FROM Accounts").
		WithArgs("alice").
		WillReturnRows(authRow(true, "secret"))
	mock.ExpectCommit()

	account, err := h.AuthenticateUser(context.Background(), api.RequestMetadata{}, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int32(7), account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.True(t, account.Active)
	// Authentication never triggers a follow lookup.
	require.NotNil(t, account.FollowedByYou)
	assert.False(t, *account.FollowedByYou)
}

func TestAuthenticateUserWrongPassword(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, password, first_name, last_name FROM Accounts").
		WithArgs("alice").
		WillReturnRows(authRow(true, "secret"))
	mock.ExpectCommit()

	_, err := h.AuthenticateUser(context.Background(), api.RequestMetadata{}, "alice", "wrong")
	var invalid *api.AccountInvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
}

func TestAuthenticateUserUnknownUsername(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, password, first_name, last_name FROM Accounts").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "active", "password", "first_name", "last_name"}))
	mock.ExpectCommit()

	_, err := h.AuthenticateUser(context.Background(), api.RequestMetadata{}, "ghost", "secret")
	var invalid *api.AccountInvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
}

func TestAuthenticateUserDeactivated(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, password, first_name, last_name FROM Accounts").
		WithArgs("alice").
		WillReturnRows(authRow(false, "secret"))
	mock.ExpectCommit()

	_, err := h.AuthenticateUser(context.Background(), api.RequestMetadata{}, "alice", "secret")
	var deactivated *api.AccountDeactivatedError
	require.ErrorAs(t, err, &deactivated)
}

func TestCreateAccount(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO Accounts").
		WithArgs("alice", "secret", "Alice", "Smith").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int32(7), int64(1600000000)))
	mock.ExpectCommit()

	account, err := h.CreateAccount(context.Background(), api.RequestMetadata{}, "alice", "secret", "Alice", "Smith")
	require.NoError(t, err)
	assert.Equal(t, int32(7), account.ID)
	assert.True(t, account.Active)
}

func TestCreateAccountValidatesAttributes(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, &fakeBackend{})
	ctx := context.Background()

	var invalid *api.AccountInvalidAttributesError
	_, err := h.CreateAccount(ctx, api.RequestMetadata{}, "", "secret", "Alice", "Smith")
	require.ErrorAs(t, err, &invalid)

	_, err = h.CreateAccount(ctx, api.RequestMetadata{}, "alice", strings.Repeat("x", 33), "Alice", "Smith")
	require.ErrorAs(t, err, &invalid)
}

func TestCreateAccountAcceptsMaxLengthAttributes(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	username := strings.Repeat("u", 32)
	password := strings.Repeat("p", 32)
	firstName := strings.Repeat("f", 32)
	lastName := strings.Repeat("l", 32)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO Accounts").
		WithArgs(username, password, firstName, lastName).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int32(7), int64(1600000000)))
	mock.ExpectCommit()

	account, err := h.CreateAccount(context.Background(), api.RequestMetadata{},
		username, password, firstName, lastName)
	require.NoError(t, err)
	assert.Equal(t, username, account.Username)
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO Accounts").
		WithArgs("alice", "secret", "Alice", "Smith").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := h.CreateAccount(context.Background(), api.RequestMetadata{}, "alice", "secret", "Alice", "Smith")
	var taken *api.AccountUsernameAlreadyExistsError
	require.ErrorAs(t, err, &taken)
}

func standardRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"created_at", "active", "username", "first_name", "last_name"}).
		AddRow(int64(1600000000), true, "alice", "Alice", "Smith")
}

func TestRetrieveStandardAccountSetsFollowedByYou(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{follows: map[[2]int32]bool{{3, 7}: true}}
	h, mock := newHandler(t, backend)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT created_at, active, username, first_name, last_name FROM Accounts").
		WithArgs(int32(7)).
		WillReturnRows(standardRow())
	mock.ExpectCommit()

	account, err := h.RetrieveStandardAccount(context.Background(), api.RequestMetadata{RequesterID: 3}, 7)
	require.NoError(t, err)
	require.NotNil(t, account.FollowedByYou)
	assert.True(t, *account.FollowedByYou)
	assert.Nil(t, account.NFollowers)
}

func TestRetrieveStandardAccountNotFound(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT created_at, active, username, first_name, last_name FROM Accounts").
		WithArgs(int32(404)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "active", "username", "first_name", "last_name"}))
	mock.ExpectCommit()

	_, err := h.RetrieveStandardAccount(context.Background(), api.RequestMetadata{}, 404)
	var notFound *api.AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRetrieveExpandedAccount(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{follows: map[[2]int32]bool{{7, 3}: true}}
	h, mock := newHandler(t, backend)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT created_at, active, username, first_name, last_name FROM Accounts").
		WithArgs(int32(7)).
		WillReturnRows(standardRow())
	mock.ExpectCommit()

	account, err := h.RetrieveExpandedAccount(context.Background(), api.RequestMetadata{RequesterID: 3}, 7)
	require.NoError(t, err)
	require.NotNil(t, account.FollowsYou)
	assert.True(t, *account.FollowsYou)
	require.NotNil(t, account.FollowedByYou)
	assert.False(t, *account.FollowedByYou)
	assert.Equal(t, int32(2), *account.NFollowers)
	assert.Equal(t, int32(2), *account.NFollowing)
	assert.Equal(t, int32(2), *account.NPosts)
	assert.Equal(t, int32(2), *account.NLikes)
}

func TestUpdateAccount(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE Accounts SET password").
		WithArgs("newpass", "Alice", "Jones", int32(7)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "active", "username"}).
			AddRow(int64(1600000000), true, "alice"))
	mock.ExpectCommit()

	account, err := h.UpdateAccount(context.Background(), api.RequestMetadata{RequesterID: 7}, 7,
		"newpass", "Alice", "Jones")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "Jones", account.LastName)
}

func TestUpdateAccountRequiresOwner(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, &fakeBackend{})

	_, err := h.UpdateAccount(context.Background(), api.RequestMetadata{RequesterID: 8}, 7,
		"newpass", "Alice", "Jones")
	var notAuthorized *api.AccountNotAuthorizedError
	require.ErrorAs(t, err, &notAuthorized)
}

func TestDeleteAccountRequiresOwner(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	// No mock expectations: the authorization check precedes any row lookup,
	// so a foreign requester is rejected even for accounts that don't exist.
	err := h.DeleteAccount(context.Background(), api.RequestMetadata{RequesterID: 99}, 1)
	var notAuthorized *api.AccountNotAuthorizedError
	require.ErrorAs(t, err, &notAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountDeactivatesRow(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE Accounts SET active = FALSE").
		WithArgs(int32(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int32(7)))
	mock.ExpectCommit()

	require.NoError(t, h.DeleteAccount(context.Background(), api.RequestMetadata{RequesterID: 7}, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountNotFound(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE Accounts SET active = FALSE").
		WithArgs(int32(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := h.DeleteAccount(context.Background(), api.RequestMetadata{RequesterID: 7}, 7)
	var notFound *api.AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListAccountsExpandsEveryRow(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{follows: map[[2]int32]bool{{3, 7}: true}}
	h, mock := newHandler(t, backend)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, username, first_name, last_name FROM Accounts").
		WithArgs(int32(10), int32(0)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "active", "username", "first_name", "last_name"}).
			AddRow(int32(8), int64(1600000001), true, "bob", "Bob", "Brown").
			AddRow(int32(7), int64(1600000000), true, "alice", "Alice", "Smith"))
	mock.ExpectCommit()

	accounts, err := h.ListAccounts(context.Background(), api.RequestMetadata{RequesterID: 3},
		api.AccountQuery{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "bob", accounts[0].Username)
	assert.False(t, *accounts[0].FollowedByYou)
	assert.True(t, *accounts[1].FollowedByYou)
	assert.Equal(t, int32(2), *accounts[0].NFollowers)
	// Six nested calls per row.
	assert.Equal(t, 12, backend.calls)
}

func TestListAccountsFiltersByUsername(t *testing.T) {
	t.Parallel()
	h, mock := newHandler(t, &fakeBackend{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, created_at, active, username, first_name, last_name FROM Accounts").
		WithArgs("alice", int32(5), int32(0)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "active", "username", "first_name", "last_name"}))
	mock.ExpectCommit()

	accounts, err := h.ListAccounts(context.Background(), api.RequestMetadata{},
		api.AccountQuery{Username: api.String("alice")}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
