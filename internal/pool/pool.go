// Package pool implements the bounded connection pool shared by the RPC and
// database layers. The pool lazily grows to a minimum size, then to a
// maximum; acquirers beyond the maximum wait in a backlog unless ephemeral
// connections are allowed. A maximum size of zero disables pooling entirely:
// every acquire dials a fresh connection and every release closes it.
package pool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/buzzblog/buzzblog/internal/observability"
)

// Endpoint is one dialable server address.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Options configures a Pool.
type Options[T io.Closer] struct {
	// Name labels the pool in metrics.
	Name string
	// LocalService is the owning service, logged as ls=.
	LocalService string
	// RemoteKey and RemoteName identify the far side in connection log
	// lines: rs=<service> for RPC pools, db=<database> for database pools.
	RemoteKey  string
	RemoteName string

	Endpoints      []Endpoint
	MinSize        int
	MaxSize        int
	AllowEphemeral bool

	// Dial opens one connection to the endpoint. The dialer owns its own
	// connect timeout.
	Dial func(ep Endpoint) (T, error)

	// ConnLog receives one line per acquisition; nil disables logging.
	ConnLog *slog.Logger
}

// Pool is a bounded connection pool. All methods are safe for concurrent
// use.
type Pool[T io.Closer] struct {
	opts Options[T]

	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	backlog int
	idle    []T
	closed  bool
}

// New validates the sizing parameters and returns an empty pool. Connections
// are dialed lazily on first use.
func New[T io.Closer](opts Options[T]) (*Pool[T], error) {
	if opts.MinSize < 0 || opts.MaxSize < 0 {
		return nil, fmt.Errorf("op=pool.new name=%s: negative pool size", opts.Name)
	}
	if opts.MaxSize > 0 && opts.MaxSize < opts.MinSize {
		return nil, fmt.Errorf("op=pool.new name=%s: max size %d below min size %d",
			opts.Name, opts.MaxSize, opts.MinSize)
	}
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("op=pool.new name=%s: no endpoints", opts.Name)
	}
	p := &Pool[T]{opts: opts}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Acquire returns a connection, dialing one when the pool is below its
// bounds and blocking in the backlog when it is at capacity. The caller must
// hand the connection back with Release, on the error path included.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	start := time.Now()
	var (
		conn       T
		backlogLen int
	)

	if p.opts.MaxSize > 0 {
		p.mu.Lock()
		switch {
		case p.size < p.opts.MinSize:
			ep := p.opts.Endpoints[p.size%len(p.opts.Endpoints)]
			p.size++
			p.mu.Unlock()
			c, err := p.dial(ep)
			if err != nil {
				var zero T
				return zero, err
			}
			conn = c
		case len(p.idle) > 0:
			conn = p.popIdle()
			p.mu.Unlock()
		case p.size < p.opts.MaxSize || p.opts.AllowEphemeral:
			ep := p.opts.Endpoints[p.size%len(p.opts.Endpoints)]
			p.size++
			p.mu.Unlock()
			c, err := p.dial(ep)
			if err != nil {
				var zero T
				return zero, err
			}
			conn = c
		default:
			p.backlog++
			backlogLen = p.backlog
			for len(p.idle) == 0 {
				p.cond.Wait()
			}
			p.backlog--
			conn = p.popIdle()
			p.mu.Unlock()
		}
	} else {
		ep := p.opts.Endpoints[rand.IntN(len(p.opts.Endpoints))]
		c, err := p.dial(ep)
		if err != nil {
			var zero T
			return zero, err
		}
		conn = c
	}

	if p.opts.ConnLog != nil {
		observability.LogLatency(ctx, p.opts.ConnLog, "conn acquired", time.Since(start),
			slog.String("ls", p.opts.LocalService),
			slog.String(p.opts.RemoteKey, p.opts.RemoteName),
			slog.Int("bl", backlogLen))
	}
	p.publishStats()
	return conn, nil
}

// dial opens a connection outside the pool lock. The slot was already
// reserved; a failed dial gives it back so the pool's accounting cannot
// leak.
func (p *Pool[T]) dial(ep Endpoint) (T, error) {
	conn, err := p.opts.Dial(ep)
	if err != nil {
		if p.opts.MaxSize > 0 {
			p.mu.Lock()
			p.size--
			p.mu.Unlock()
		}
		var zero T
		return zero, fmt.Errorf("op=pool.dial name=%s endpoint=%s: %w", p.opts.Name, ep, err)
	}
	return conn, nil
}

func (p *Pool[T]) popIdle() T {
	conn := p.idle[0]
	p.idle = p.idle[1:]
	return conn
}

// Release hands a connection back. Connections beyond the pool's bounds are
// closed; otherwise the connection returns to the idle queue and one waiter
// is woken.
func (p *Pool[T]) Release(conn T) {
	if p.opts.MaxSize > 0 {
		p.mu.Lock()
		if p.closed || p.size > p.opts.MaxSize || (p.size > p.opts.MinSize && len(p.idle) > 1) {
			_ = conn.Close()
			p.size--
		} else {
			p.idle = append(p.idle, conn)
			p.cond.Signal()
		}
		p.mu.Unlock()
	} else {
		_ = conn.Close()
	}
	p.publishStats()
}

// Stats reports the pool's current size, idle count, and backlog length.
func (p *Pool[T]) Stats() (size, idle, backlog int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size, len(p.idle), p.backlog
}

// Close drains the idle queue, closing every idle connection. Connections
// currently lent out are closed as Release hands them back.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, conn := range p.idle {
		_ = conn.Close()
		p.size--
	}
	p.idle = nil
}

func (p *Pool[T]) publishStats() {
	size, idle, backlog := p.Stats()
	observability.SetPoolStats(p.opts.Name, size, idle, backlog)
}
