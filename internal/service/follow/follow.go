// Package follow implements the follow service. It keeps no state of its
// own: follows are uniquepair rows under domain "follow", with first_elem
// the follower and second_elem the followee.
package follow

import (
	"context"
	"errors"
	"fmt"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/fanout"
)

const domain = "follow"

// Backend is the set of nested calls the service issues. *hub.Hub
// satisfies it.
type Backend interface {
	UniquepairGet(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) (api.Uniquepair, error)
	UniquepairAdd(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error)
	UniquepairRemove(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) error
	UniquepairFind(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error)
	UniquepairFetch(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery, limit, offset int32) ([]api.Uniquepair, error)
	UniquepairCount(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery) (int32, error)
	RetrieveStandardAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error)
}

// Handler implements api.FollowService.
type Handler struct {
	backend Backend
}

// New returns a handler backed by the uniquepair and account services.
func New(backend Backend) *Handler { return &Handler{backend: backend} }

func (h *Handler) FollowAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Follow, error) {
	if meta.RequesterID == accountID {
		return api.Follow{}, &api.FollowInvalidAttributesError{
			Message: "an account cannot follow itself",
		}
	}
	up, err := h.backend.UniquepairAdd(ctx, meta, domain, meta.RequesterID, accountID)
	if err != nil {
		var exists *api.UniquepairAlreadyExistsError
		if errors.As(err, &exists) {
			return api.Follow{}, &api.FollowAlreadyExistsError{
				Message: fmt.Sprintf("account %d already follows account %d", meta.RequesterID, accountID),
			}
		}
		return api.Follow{}, err
	}
	return followFromPair(up), nil
}

func (h *Handler) RetrieveStandardFollow(ctx context.Context, meta api.RequestMetadata, followID int32) (api.Follow, error) {
	up, err := h.backend.UniquepairGet(ctx, meta, followID)
	if err != nil {
		return api.Follow{}, mapNotFound(err, followID)
	}
	return followFromPair(up), nil
}

func (h *Handler) RetrieveExpandedFollow(ctx context.Context, meta api.RequestMetadata, followID int32) (api.Follow, error) {
	follow, err := h.RetrieveStandardFollow(ctx, meta, followID)
	if err != nil {
		return api.Follow{}, err
	}
	g := fanout.NewGroup(0)
	if err := h.spawnExpand(ctx, g, meta, &follow).join(&follow); err != nil {
		return api.Follow{}, err
	}
	return follow, nil
}

func (h *Handler) DeleteFollow(ctx context.Context, meta api.RequestMetadata, followID int32) error {
	up, err := h.backend.UniquepairGet(ctx, meta, followID)
	if err != nil {
		return mapNotFound(err, followID)
	}
	if meta.RequesterID != up.FirstElem {
		return &api.FollowNotAuthorizedError{
			Message: fmt.Sprintf("follow %d does not belong to account %d", followID, meta.RequesterID),
		}
	}
	if err := h.backend.UniquepairRemove(ctx, meta, followID); err != nil {
		return mapNotFound(err, followID)
	}
	return nil
}

func (h *Handler) ListFollows(ctx context.Context, meta api.RequestMetadata, query api.FollowQuery, limit, offset int32) ([]api.Follow, error) {
	upq := api.UniquepairQuery{
		Domain:     domain,
		FirstElem:  query.FollowerID,
		SecondElem: query.FolloweeID,
	}
	pairs, err := h.backend.UniquepairFetch(ctx, meta, upq, limit, offset)
	if err != nil {
		return nil, err
	}

	follows := make([]api.Follow, len(pairs))
	g := fanout.NewGroup(0)
	expansions := make([]expansion, len(pairs))
	for i, up := range pairs {
		follows[i] = followFromPair(up)
		expansions[i] = h.spawnExpand(ctx, g, meta, &follows[i])
	}
	for i := range follows {
		if err := expansions[i].join(&follows[i]); err != nil {
			return nil, err
		}
	}
	return follows, nil
}

// CheckFollow reports whether follower follows followee. A missing pair is
// a false result, not an error.
func (h *Handler) CheckFollow(ctx context.Context, meta api.RequestMetadata, followerID, followeeID int32) (bool, error) {
	_, err := h.backend.UniquepairFind(ctx, meta, domain, followerID, followeeID)
	if err != nil {
		var notFound *api.UniquepairNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (h *Handler) CountFollowers(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return h.backend.UniquepairCount(ctx, meta, api.UniquepairQuery{
		Domain:     domain,
		SecondElem: api.I32(accountID),
	})
}

func (h *Handler) CountFollowees(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return h.backend.UniquepairCount(ctx, meta, api.UniquepairQuery{
		Domain:    domain,
		FirstElem: api.I32(accountID),
	})
}

// expansion holds the in-flight account lookups for one follow.
type expansion struct {
	follower *fanout.Task[api.Account]
	followee *fanout.Task[api.Account]
}

func (h *Handler) spawnExpand(ctx context.Context, g *fanout.Group, meta api.RequestMetadata, follow *api.Follow) expansion {
	followerID, followeeID := follow.FollowerID, follow.FolloweeID
	return expansion{
		follower: fanout.Go(ctx, g, func(ctx context.Context) (api.Account, error) {
			return h.backend.RetrieveStandardAccount(ctx, meta, followerID)
		}),
		followee: fanout.Go(ctx, g, func(ctx context.Context) (api.Account, error) {
			return h.backend.RetrieveStandardAccount(ctx, meta, followeeID)
		}),
	}
}

func (e expansion) join(follow *api.Follow) error {
	follower, err := e.follower.Get()
	if err != nil {
		return err
	}
	followee, err := e.followee.Get()
	if err != nil {
		return err
	}
	follow.Follower = &follower
	follow.Followee = &followee
	return nil
}

func followFromPair(up api.Uniquepair) api.Follow {
	return api.Follow{
		ID:         up.ID,
		CreatedAt:  up.CreatedAt,
		FollowerID: up.FirstElem,
		FolloweeID: up.SecondElem,
	}
}

func mapNotFound(err error, followID int32) error {
	var notFound *api.UniquepairNotFoundError
	if errors.As(err, &notFound) {
		return &api.FollowNotFoundError{
			Message: fmt.Sprintf("no follow with id %d", followID),
		}
	}
	return err
}
