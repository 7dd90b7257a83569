// Package post implements the post service. Posts live in the post
// database; the expanded view pulls the author and like count from the
// account and like services, and every new post is fed to the trending
// service for hashtag scoring.
package post

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/fanout"
)

// maxTextLen bounds the post body.
const maxTextLen = 200

// Querier runs one statement in its own transaction. *pgdb.DB satisfies it.
type Querier interface {
	Query(ctx context.Context, queryType, sql string, scan func(rows pgx.Rows) error, args ...any) error
}

// Backend is the set of nested calls the service issues. *hub.Hub
// satisfies it.
type Backend interface {
	RetrieveStandardAccount(ctx context.Context, meta api.RequestMetadata, accountID int32) (api.Account, error)
	CountLikesOfPost(ctx context.Context, meta api.RequestMetadata, postID int32) (int32, error)
	ProcessPost(ctx context.Context, meta api.RequestMetadata, text string) error
}

// Handler implements api.PostService.
type Handler struct {
	db      Querier
	backend Backend
}

// New returns a handler backed by the post database and the other services.
func New(db Querier, backend Backend) *Handler {
	return &Handler{db: db, backend: backend}
}

// CreatePost inserts the post and feeds its text to the trending service.
// The trending call runs concurrently with the insert and is joined before
// returning, so a trending failure fails the whole operation.
func (h *Handler) CreatePost(ctx context.Context, meta api.RequestMetadata, text string) (api.Post, error) {
	if len(text) == 0 || len(text) > maxTextLen {
		return api.Post{}, &api.PostInvalidAttributesError{
			Message: fmt.Sprintf("text must be 1 to %d characters", maxTextLen),
		}
	}

	g := fanout.NewGroup(0)
	trending := fanout.Go(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.backend.ProcessPost(ctx, meta, text)
	})

	post := api.Post{Active: true, Text: text, AuthorID: meta.RequesterID}
	err := h.db.Query(ctx, "insert",
		"INSERT INTO Posts (text, author_id, created_at) "+
			"VALUES ($1, $2, extract(epoch from now())) RETURNING id, created_at",
		func(rows pgx.Rows) error {
			for rows.Next() {
				if err := rows.Scan(&post.ID, &post.CreatedAt); err != nil {
					return err
				}
			}
			return nil
		}, text, meta.RequesterID)
	if err != nil {
		return api.Post{}, err
	}

	if _, err := trending.Get(); err != nil {
		return api.Post{}, err
	}
	return post, nil
}

func (h *Handler) RetrieveStandardPost(ctx context.Context, meta api.RequestMetadata, postID int32) (api.Post, error) {
	post := api.Post{ID: postID}
	found := false
	err := h.db.Query(ctx, "select",
		"SELECT created_at, active, text, author_id FROM Posts WHERE id = $1",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&post.CreatedAt, &post.Active, &post.Text, &post.AuthorID); err != nil {
					return err
				}
			}
			return nil
		}, postID)
	if err != nil {
		return api.Post{}, err
	}
	if !found {
		return api.Post{}, &api.PostNotFoundError{
			Message: fmt.Sprintf("no post with id %d", postID),
		}
	}
	return post, nil
}

func (h *Handler) RetrieveExpandedPost(ctx context.Context, meta api.RequestMetadata, postID int32) (api.Post, error) {
	post, err := h.RetrieveStandardPost(ctx, meta, postID)
	if err != nil {
		return api.Post{}, err
	}
	g := fanout.NewGroup(0)
	if err := h.spawnExpand(ctx, g, meta, &post).join(&post); err != nil {
		return api.Post{}, err
	}
	return post, nil
}

// expansion holds the in-flight nested calls for one post.
type expansion struct {
	author *fanout.Task[api.Account]
	nLikes *fanout.Task[int32]
}

func (h *Handler) spawnExpand(ctx context.Context, g *fanout.Group, meta api.RequestMetadata, post *api.Post) expansion {
	authorID, postID := post.AuthorID, post.ID
	return expansion{
		author: fanout.Go(ctx, g, func(ctx context.Context) (api.Account, error) {
			return h.backend.RetrieveStandardAccount(ctx, meta, authorID)
		}),
		nLikes: fanout.Go(ctx, g, func(ctx context.Context) (int32, error) {
			return h.backend.CountLikesOfPost(ctx, meta, postID)
		}),
	}
}

func (e expansion) join(post *api.Post) error {
	a, err := e.author.Get()
	if err != nil {
		return err
	}
	n, err := e.nLikes.Get()
	if err != nil {
		return err
	}
	post.Author = &a
	post.NLikes = api.I32(n)
	return nil
}

func (h *Handler) DeletePost(ctx context.Context, meta api.RequestMetadata, postID int32) error {
	post, err := h.RetrieveStandardPost(ctx, meta, postID)
	if err != nil {
		return err
	}
	if meta.RequesterID != post.AuthorID {
		return &api.PostNotAuthorizedError{
			Message: fmt.Sprintf("post %d does not belong to account %d", postID, meta.RequesterID),
		}
	}
	return h.db.Query(ctx, "update",
		"UPDATE Posts SET active = FALSE WHERE id = $1", nil, postID)
}

func (h *Handler) ListPosts(ctx context.Context, meta api.RequestMetadata, query api.PostQuery, limit, offset int32) ([]api.Post, error) {
	where := "active = true"
	args := []any{}
	if query.AuthorID != nil {
		args = append(args, *query.AuthorID)
		where += fmt.Sprintf(" AND author_id = $%d", len(args))
	}
	sql := fmt.Sprintf(
		"SELECT id, created_at, active, text, author_id FROM Posts "+
			"WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var posts []api.Post
	err := h.db.Query(ctx, "select", sql, func(rows pgx.Rows) error {
		for rows.Next() {
			var p api.Post
			if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Active, &p.Text, &p.AuthorID); err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}

	g := fanout.NewGroup(0)
	expansions := make([]expansion, len(posts))
	for i := range posts {
		expansions[i] = h.spawnExpand(ctx, g, meta, &posts[i])
	}
	for i := range posts {
		if err := expansions[i].join(&posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// CountPostsByAuthor counts all of the author's posts, inactive included.
func (h *Handler) CountPostsByAuthor(ctx context.Context, meta api.RequestMetadata, authorID int32) (int32, error) {
	var n int32
	err := h.db.Query(ctx, "select",
		"SELECT COUNT(*) FROM Posts WHERE author_id = $1",
		func(rows pgx.Rows) error {
			for rows.Next() {
				if err := rows.Scan(&n); err != nil {
					return err
				}
			}
			return nil
		}, authorID)
	if err != nil {
		return 0, err
	}
	return n, nil
}
