// Package like implements the like service. Likes are uniquepair rows
// under domain "like", with first_elem the liking account and second_elem
// the liked post. Unlike follows, liking your own post is allowed.
package like

import (
	"context"
	"errors"
	"fmt"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/fanout"
)

const domain = "like"

// Backend is the set of nested calls the service issues. *hub.Hub
// satisfies it.
type Backend interface {
	UniquepairGet(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) (api.Uniquepair, error)
	UniquepairAdd(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error)
	UniquepairRemove(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) error
	UniquepairFetch(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery, limit, offset int32) ([]api.Uniquepair, error)
	UniquepairCount(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery) (int32, error)
	RetrieveStandardAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error)
	RetrieveExpandedPost(ctx context.Context, meta api.RequestMetadata, postID int32) (api.Post, error)
}

// Handler implements api.LikeService.
type Handler struct {
	backend Backend
}

// New returns a handler backed by the uniquepair, account, and post
// services.
func New(backend Backend) *Handler { return &Handler{backend: backend} }

func (h *Handler) LikePost(ctx context.Context, meta api.RequestMetadata, postID int32) (api.Like, error) {
	up, err := h.backend.UniquepairAdd(ctx, meta, domain, meta.RequesterID, postID)
	if err != nil {
		var exists *api.UniquepairAlreadyExistsError
		if errors.As(err, &exists) {
			return api.Like{}, &api.LikeAlreadyExistsError{
				Message: fmt.Sprintf("account %d already likes post %d", meta.RequesterID, postID),
			}
		}
		return api.Like{}, err
	}
	return likeFromPair(up), nil
}

func (h *Handler) RetrieveStandardLike(ctx context.Context, meta api.RequestMetadata, likeID int32) (api.Like, error) {
	up, err := h.backend.UniquepairGet(ctx, meta, likeID)
	if err != nil {
		return api.Like{}, mapNotFound(err, likeID)
	}
	return likeFromPair(up), nil
}

// RetrieveExpandedLike fills the account and the expanded post, so the
// caller gets the post's author and like count in the same round trip.
func (h *Handler) RetrieveExpandedLike(ctx context.Context, meta api.RequestMetadata, likeID int32) (api.Like, error) {
	like, err := h.RetrieveStandardLike(ctx, meta, likeID)
	if err != nil {
		return api.Like{}, err
	}
	g := fanout.NewGroup(0)
	if err := h.spawnExpand(ctx, g, meta, &like).join(&like); err != nil {
		return api.Like{}, err
	}
	return like, nil
}

func (h *Handler) DeleteLike(ctx context.Context, meta api.RequestMetadata, likeID int32) error {
	up, err := h.backend.UniquepairGet(ctx, meta, likeID)
	if err != nil {
		return mapNotFound(err, likeID)
	}
	if meta.RequesterID != up.FirstElem {
		return &api.LikeNotAuthorizedError{
			Message: fmt.Sprintf("like %d does not belong to account %d", likeID, meta.RequesterID),
		}
	}
	if err := h.backend.UniquepairRemove(ctx, meta, likeID); err != nil {
		return mapNotFound(err, likeID)
	}
	return nil
}

func (h *Handler) ListLikes(ctx context.Context, meta api.RequestMetadata, query api.LikeQuery, limit, offset int32) ([]api.Like, error) {
	upq := api.UniquepairQuery{
		Domain:     domain,
		FirstElem:  query.AccountID,
		SecondElem: query.PostID,
	}
	pairs, err := h.backend.UniquepairFetch(ctx, meta, upq, limit, offset)
	if err != nil {
		return nil, err
	}

	likes := make([]api.Like, len(pairs))
	g := fanout.NewGroup(0)
	expansions := make([]expansion, len(pairs))
	for i, up := range pairs {
		likes[i] = likeFromPair(up)
		expansions[i] = h.spawnExpand(ctx, g, meta, &likes[i])
	}
	for i := range likes {
		if err := expansions[i].join(&likes[i]); err != nil {
			return nil, err
		}
	}
	return likes, nil
}

func (h *Handler) CountLikesByAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (int32, error) {
	return h.backend.UniquepairCount(ctx, meta, api.UniquepairQuery{
		Domain:    domain,
		FirstElem: api.I32(accountID),
	})
}

func (h *Handler) CountLikesOfPost(ctx context.Context, meta api.RequestMetadata, postID int32) (int32, error) {
	return h.backend.UniquepairCount(ctx, meta, api.UniquepairQuery{
		Domain:     domain,
		SecondElem: api.I32(postID),
	})
}

// expansion holds the in-flight nested calls for one like.
type expansion struct {
	account *fanout.Task[api.Account]
	post    *fanout.Task[api.Post]
}

func (h *Handler) spawnExpand(ctx context.Context, g *fanout.Group, meta api.RequestMetadata, like *api.Like) expansion {
	accountID, postID := like.AccountID, like.PostID
	return expansion{
		account: fanout.Go(ctx, g, func(ctx context.Context) (api.Account, error) {
			return h.backend.RetrieveStandardAccount(ctx, meta, accountID)
		}),
		post: fanout.Go(ctx, g, func(ctx context.Context) (api.Post, error) {
			return h.backend.RetrieveExpandedPost(ctx, meta, postID)
		}),
	}
}

func (e expansion) join(like *api.Like) error {
	account, err := e.account.Get()
	if err != nil {
		return err
	}
	post, err := e.post.Get()
	if err != nil {
		return err
	}
	like.Account = &account
	like.Post = &post
	return nil
}

func likeFromPair(up api.Uniquepair) api.Like {
	return api.Like{
		ID:        up.ID,
		CreatedAt: up.CreatedAt,
		AccountID: up.FirstElem,
		PostID:    up.SecondElem,
	}
}

func mapNotFound(err error, likeID int32) error {
	var notFound *api.UniquepairNotFoundError
	if errors.As(err, &notFound) {
		return &api.LikeNotFoundError{
			Message: fmt.Sprintf("no like with id %d", likeID),
		}
	}
	return err
}
