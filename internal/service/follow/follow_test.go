package follow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/api"
)

// fakeBackend is an in-memory uniquepair and account store.
type fakeBackend struct {
	mu       sync.Mutex
	next     int32
	pairs    map[int32]api.Uniquepair
	accounts map[int32]api.Account
}

func newFakeBackend(accountIDs ...int32) *fakeBackend {
	f := &fakeBackend{
		pairs:    make(map[int32]api.Uniquepair),
		accounts: make(map[int32]api.Account),
	}
	for _, id := range accountIDs {
		f.accounts[id] = api.Account{ID: id, Active: true, Username: fmt.Sprintf("user%d", id)}
	}
	return f
}

func (f *fakeBackend) UniquepairGet(_ context.Context, _ api.RequestMetadata, id int32) (api.Uniquepair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	up, ok := f.pairs[id]
	if !ok {
		return api.Uniquepair{}, &api.UniquepairNotFoundError{}
	}
	return up, nil
}

func (f *fakeBackend) UniquepairAdd(_ context.Context, _ api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, up := range f.pairs {
		if up.Domain == domain && up.FirstElem == firstElem && up.SecondElem == secondElem {
			return api.Uniquepair{}, &api.UniquepairAlreadyExistsError{}
		}
	}
	f.next++
	up := api.Uniquepair{ID: f.next, CreatedAt: int64(1600000000 + f.next), Domain: domain,
		FirstElem: firstElem, SecondElem: secondElem}
	f.pairs[up.ID] = up
	return up, nil
}

func (f *fakeBackend) UniquepairRemove(_ context.Context, _ api.RequestMetadata, id int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pairs[id]; !ok {
		return &api.UniquepairNotFoundError{}
	}
	delete(f.pairs, id)
	return nil
}

func (f *fakeBackend) UniquepairFind(_ context.Context, _ api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, up := range f.pairs {
		if up.Domain == domain && up.FirstElem == firstElem && up.SecondElem == secondElem {
			return up, nil
		}
	}
	return api.Uniquepair{}, &api.UniquepairNotFoundError{}
}

func (f *fakeBackend) UniquepairFetch(_ context.Context, _ api.RequestMetadata, query api.UniquepairQuery, limit, offset int32) ([]api.Uniquepair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Uniquepair
	for id := f.next; id >= 1; id-- {
		up, ok := f.pairs[id]
		if !ok || up.Domain != query.Domain {
			continue
		}
		if query.FirstElem != nil && up.FirstElem != *query.FirstElem {
			continue
		}
		if query.SecondElem != nil && up.SecondElem != *query.SecondElem {
			continue
		}
		out = append(out, up)
	}
	return out, nil
}

func (f *fakeBackend) UniquepairCount(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery) (int32, error) {
	pairs, err := f.UniquepairFetch(ctx, meta, query, 0, 0)
	if err != nil {
		return 0, err
	}
	return int32(len(pairs)), nil
}

func (f *fakeBackend) RetrieveStandardAccount(_ context.Context, _ api.RequestMetadata, accountID int32) (api.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return api.Account{}, &api.AccountNotFoundError{}
	}
	return a, nil
}

func TestFollowLifecycle(t *testing.T) {
	t.Parallel()
	h := New(newFakeBackend(1, 2))
	ctx := context.Background()
	meta1 := api.RequestMetadata{ID: "req-1", RequesterID: 1}

	follow, err := h.FollowAccount(ctx, meta1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), follow.FollowerID)
	assert.Equal(t, int32(2), follow.FolloweeID)

	got, err := h.CheckFollow(ctx, meta1, 1, 2)
	require.NoError(t, err)
	assert.True(t, got)
	got, err = h.CheckFollow(ctx, meta1, 2, 1)
	require.NoError(t, err)
	assert.False(t, got)

	var exists *api.FollowAlreadyExistsError
	_, err = h.FollowAccount(ctx, meta1, 2)
	require.ErrorAs(t, err, &exists)

	var notAuthorized *api.FollowNotAuthorizedError
	err = h.DeleteFollow(ctx, api.RequestMetadata{RequesterID: 2}, follow.ID)
	require.ErrorAs(t, err, &notAuthorized)

	require.NoError(t, h.DeleteFollow(ctx, meta1, follow.ID))
	got, err = h.CheckFollow(ctx, meta1, 1, 2)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestFollowAccountRejectsSelfFollow(t *testing.T) {
	t.Parallel()
	h := New(newFakeBackend(1))

	var invalid *api.FollowInvalidAttributesError
	_, err := h.FollowAccount(context.Background(), api.RequestMetadata{RequesterID: 1}, 1)
	require.ErrorAs(t, err, &invalid)
}

func TestRetrieveExpandedFollow(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend(1, 2)
	h := New(backend)
	ctx := context.Background()
	meta := api.RequestMetadata{RequesterID: 1}

	created, err := h.FollowAccount(ctx, meta, 2)
	require.NoError(t, err)

	follow, err := h.RetrieveExpandedFollow(ctx, meta, created.ID)
	require.NoError(t, err)
	require.NotNil(t, follow.Follower)
	require.NotNil(t, follow.Followee)
	assert.Equal(t, "user1", follow.Follower.Username)
	assert.Equal(t, "user2", follow.Followee.Username)
}

func TestRetrieveStandardFollowNotFound(t *testing.T) {
	t.Parallel()
	h := New(newFakeBackend())

	var notFound *api.FollowNotFoundError
	_, err := h.RetrieveStandardFollow(context.Background(), api.RequestMetadata{}, 404)
	require.ErrorAs(t, err, &notFound)
}

func TestListFollowsExpandsInFetchOrder(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend(1, 2, 3)
	h := New(backend)
	ctx := context.Background()

	_, err := h.FollowAccount(ctx, api.RequestMetadata{RequesterID: 1}, 2)
	require.NoError(t, err)
	_, err = h.FollowAccount(ctx, api.RequestMetadata{RequesterID: 3}, 2)
	require.NoError(t, err)

	follows, err := h.ListFollows(ctx, api.RequestMetadata{},
		api.FollowQuery{FolloweeID: api.I32(2)}, 10, 0)
	require.NoError(t, err)
	require.Len(t, follows, 2)
	// Newest first.
	assert.Equal(t, "user3", follows[0].Follower.Username)
	assert.Equal(t, "user1", follows[1].Follower.Username)
	assert.Equal(t, "user2", follows[0].Followee.Username)
}

func TestCounts(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend(1, 2, 3)
	h := New(backend)
	ctx := context.Background()

	_, err := h.FollowAccount(ctx, api.RequestMetadata{RequesterID: 1}, 2)
	require.NoError(t, err)
	_, err = h.FollowAccount(ctx, api.RequestMetadata{RequesterID: 3}, 2)
	require.NoError(t, err)
	_, err = h.FollowAccount(ctx, api.RequestMetadata{RequesterID: 1}, 3)
	require.NoError(t, err)

	n, err := h.CountFollowers(ctx, api.RequestMetadata{}, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)

	n, err = h.CountFollowees(ctx, api.RequestMetadata{}, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
}
