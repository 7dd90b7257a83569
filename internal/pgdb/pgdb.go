// Package pgdb provides the pooled Postgres session layer. Every query runs
// in its own transaction on a session checked out from the pool; sessions
// are never shared across handlers.
package pgdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/buzzblog/buzzblog/internal/observability"
	"github.com/buzzblog/buzzblog/internal/pool"
)

// connTimeout bounds the initial connect of one session.
const connTimeout = 30000 * time.Millisecond

// Conn is the minimal subset of *pgx.Conn the session layer needs. pgxmock
// satisfies it, which keeps the query path testable without a server.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Session is one pooled database connection.
type Session struct {
	conn Conn
}

// NewSession wraps an established connection.
func NewSession(conn Conn) *Session { return &Session{conn: conn} }

// Close closes the underlying connection.
func (s *Session) Close() error { return s.conn.Close(context.Background()) }

// Options configures a DB.
type Options struct {
	// LocalService is the owning service, logged as ls=.
	LocalService string
	// Name is the database name; by convention it matches the service name.
	Name string

	Endpoint       pool.Endpoint
	User           string
	Password       string
	MinSize        int
	MaxSize        int
	AllowEphemeral bool

	CallLog *slog.Logger
	ConnLog *slog.Logger

	// Dial overrides the default pgx connect; tests inject mock sessions
	// here.
	Dial func(ep pool.Endpoint) (*Session, error)
}

// DB runs queries against one database through a bounded session pool.
type DB struct {
	opts Options
	pool *pool.Pool[*Session]
}

// Open builds the session pool. Sessions are dialed lazily on first use, so
// Open succeeds even when the database is not reachable yet.
func Open(opts Options) (*DB, error) {
	dial := opts.Dial
	if dial == nil {
		dial = func(ep pool.Endpoint) (*Session, error) {
			dsn := fmt.Sprintf("postgres://%s:%s@%s/%s",
				opts.User, opts.Password, ep, opts.Name)
			ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
			defer cancel()
			conn, err := pgx.Connect(ctx, dsn)
			if err != nil {
				return nil, err
			}
			return NewSession(conn), nil
		}
	}
	p, err := pool.New(pool.Options[*Session]{
		Name:           "postgres_" + opts.Name,
		LocalService:   opts.LocalService,
		RemoteKey:      "db",
		RemoteName:     opts.Name,
		Endpoints:      []pool.Endpoint{opts.Endpoint},
		MinSize:        opts.MinSize,
		MaxSize:        opts.MaxSize,
		AllowEphemeral: opts.AllowEphemeral,
		Dial:           dial,
		ConnLog:        opts.ConnLog,
	})
	if err != nil {
		return nil, err
	}
	return &DB{opts: opts, pool: p}, nil
}

// Close drains the session pool.
func (db *DB) Close() { db.pool.Close() }

// Query checks out a session, runs the statement in its own transaction,
// and hands the result rows to scan. queryType tags the query_call log line
// and metrics (select, insert, update). The call is logged on success and
// failure alike.
func (db *DB) Query(ctx context.Context, queryType, sql string, scan func(rows pgx.Rows) error, args ...any) error {
	s, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("op=pgdb.query db=%s: %w", db.opts.Name, err)
	}
	defer db.pool.Release(s)

	start := time.Now()
	err = db.runInTx(ctx, s, sql, scan, args)
	elapsed := time.Since(start)

	attrs := []any{
		slog.String("db", db.opts.Name),
		slog.String("ls", db.opts.LocalService),
		slog.String("qt", queryType),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	observability.LogLatency(ctx, db.opts.CallLog, "query", elapsed, attrs...)
	observability.ObserveQuery(db.opts.Name, queryType, elapsed)

	if err != nil {
		return fmt.Errorf("op=pgdb.query db=%s: %w", db.opts.Name, err)
	}
	return nil
}

func (db *DB) runInTx(ctx context.Context, s *Session, sql string, scan func(rows pgx.Rows) error, args []any) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if scan != nil {
		if err := scan(rows); err != nil {
			rows.Close()
			_ = tx.Rollback(ctx)
			return err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Stats reports the session pool's size, idle count, and backlog length.
func (db *DB) Stats() (size, idle, backlog int) { return db.pool.Stats() }

// IsUniqueViolation reports whether err is a unique-constraint conflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
