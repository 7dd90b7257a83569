// Package fanout runs the per-request expansion calls: one task per
// dependent call, joined in input order. Concurrency within one group is
// bounded so that a large list expansion cannot open an unbounded number of
// downstream connections at once.
package fanout

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit bounds concurrent tasks per group when no limit is given.
const DefaultLimit = 16

// Group bounds the tasks spawned while handling one request. Groups are
// cheap; create one per handler invocation that fans out.
type Group struct {
	sem *semaphore.Weighted
}

// NewGroup returns a group running at most limit tasks concurrently.
// A non-positive limit selects DefaultLimit.
func NewGroup(limit int64) *Group {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Group{sem: semaphore.NewWeighted(limit)}
}

// Task is the handle to one spawned call.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go spawns f on its own goroutine, gated by the group's limit. The context
// is handed to f unchanged so the request id and any deadline propagate into
// the nested call.
func Go[T any](ctx context.Context, g *Group, f func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		if err := g.sem.Acquire(ctx, 1); err != nil {
			t.err = err
			return
		}
		defer g.sem.Release(1)
		t.val, t.err = f(ctx)
	}()
	return t
}

// Get blocks until the task completes and returns its value or error.
// Get may be called more than once.
func (t *Task[T]) Get() (T, error) {
	<-t.done
	return t.val, t.err
}
