// Package uniquepair implements the uniquepair service: a generic store of
// (domain, first_elem, second_elem) rows with a uniqueness constraint. The
// follow and like services are thin layers over it.
package uniquepair

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/pgdb"
)

// Querier runs one statement in its own transaction. *pgdb.DB satisfies it.
type Querier interface {
	Query(ctx context.Context, queryType, sql string, scan func(rows pgx.Rows) error, args ...any) error
}

// Handler implements api.UniquepairService.
type Handler struct {
	db Querier
}

// New returns a handler backed by the uniquepair database.
func New(db Querier) *Handler { return &Handler{db: db} }

func (h *Handler) Get(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) (api.Uniquepair, error) {
	up := api.Uniquepair{ID: uniquepairID}
	found := false
	err := h.db.Query(ctx, "select",
		"SELECT created_at, domain, first_elem, second_elem FROM Uniquepairs WHERE id = $1",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&up.CreatedAt, &up.Domain, &up.FirstElem, &up.SecondElem); err != nil {
					return err
				}
			}
			return nil
		}, uniquepairID)
	if err != nil {
		return api.Uniquepair{}, err
	}
	if !found {
		return api.Uniquepair{}, &api.UniquepairNotFoundError{
			Message: fmt.Sprintf("no uniquepair with id %d", uniquepairID),
		}
	}
	return up, nil
}

func (h *Handler) Add(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	up := api.Uniquepair{Domain: domain, FirstElem: firstElem, SecondElem: secondElem}
	err := h.db.Query(ctx, "insert",
		"INSERT INTO Uniquepairs (domain, first_elem, second_elem, created_at) "+
			"VALUES ($1, $2, $3, extract(epoch from now())) RETURNING id, created_at",
		func(rows pgx.Rows) error {
			for rows.Next() {
				if err := rows.Scan(&up.ID, &up.CreatedAt); err != nil {
					return err
				}
			}
			return nil
		}, domain, firstElem, secondElem)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return api.Uniquepair{}, &api.UniquepairAlreadyExistsError{
				Message: fmt.Sprintf("pair (%s, %d, %d) already exists", domain, firstElem, secondElem),
			}
		}
		return api.Uniquepair{}, err
	}
	return up, nil
}

func (h *Handler) Remove(ctx context.Context, meta api.RequestMetadata, uniquepairID int32) error {
	found := false
	err := h.db.Query(ctx, "delete",
		"DELETE FROM Uniquepairs WHERE id = $1 RETURNING id",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				var id int32
				if err := rows.Scan(&id); err != nil {
					return err
				}
			}
			return nil
		}, uniquepairID)
	if err != nil {
		return err
	}
	if !found {
		return &api.UniquepairNotFoundError{
			Message: fmt.Sprintf("no uniquepair with id %d", uniquepairID),
		}
	}
	return nil
}

func (h *Handler) Find(ctx context.Context, meta api.RequestMetadata, domain string, firstElem, secondElem int32) (api.Uniquepair, error) {
	up := api.Uniquepair{Domain: domain, FirstElem: firstElem, SecondElem: secondElem}
	found := false
	err := h.db.Query(ctx, "select",
		"SELECT id, created_at FROM Uniquepairs "+
			"WHERE domain = $1 AND first_elem = $2 AND second_elem = $3",
		func(rows pgx.Rows) error {
			for rows.Next() {
				found = true
				if err := rows.Scan(&up.ID, &up.CreatedAt); err != nil {
					return err
				}
			}
			return nil
		}, domain, firstElem, secondElem)
	if err != nil {
		return api.Uniquepair{}, err
	}
	if !found {
		return api.Uniquepair{}, &api.UniquepairNotFoundError{
			Message: fmt.Sprintf("pair (%s, %d, %d) not found", domain, firstElem, secondElem),
		}
	}
	return up, nil
}

func (h *Handler) Fetch(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery, limit, offset int32) ([]api.Uniquepair, error) {
	where, args := whereClause(query)
	sql := fmt.Sprintf(
		"SELECT id, created_at, first_elem, second_elem FROM Uniquepairs "+
			"WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var out []api.Uniquepair
	err := h.db.Query(ctx, "select", sql, func(rows pgx.Rows) error {
		for rows.Next() {
			up := api.Uniquepair{Domain: query.Domain}
			if err := rows.Scan(&up.ID, &up.CreatedAt, &up.FirstElem, &up.SecondElem); err != nil {
				return err
			}
			out = append(out, up)
		}
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Handler) Count(ctx context.Context, meta api.RequestMetadata, query api.UniquepairQuery) (int32, error) {
	where, args := whereClause(query)
	sql := fmt.Sprintf("SELECT COUNT(*) FROM Uniquepairs WHERE %s", where)

	var n int32
	err := h.db.Query(ctx, "select", sql, func(rows pgx.Rows) error {
		for rows.Next() {
			if err := rows.Scan(&n); err != nil {
				return err
			}
		}
		return nil
	}, args...)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// whereClause builds the filter shared by Fetch and Count. Domain is always
// present; the element filters are optional.
func whereClause(query api.UniquepairQuery) (string, []any) {
	where := "domain = $1"
	args := []any{query.Domain}
	if query.FirstElem != nil {
		args = append(args, *query.FirstElem)
		where += fmt.Sprintf(" AND first_elem = $%d", len(args))
	}
	if query.SecondElem != nil {
		args = append(args, *query.SecondElem)
		where += fmt.Sprintf(" AND second_elem = $%d", len(args))
	}
	return where, args
}
