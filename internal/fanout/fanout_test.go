package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzblog/buzzblog/internal/observability"
)

func TestJoinInInputOrder(t *testing.T) {
	t.Parallel()
	g := NewGroup(4)
	ctx := context.Background()

	tasks := make([]*Task[int], 8)
	for i := range tasks {
		i := i
		tasks[i] = Go(ctx, g, func(context.Context) (int, error) {
			return i * i, nil
		})
	}
	for i, task := range tasks {
		v, err := task.Get()
		require.NoError(t, err)
		assert.Equal(t, i*i, v)
	}
}

func TestErrorSurfacesOnJoin(t *testing.T) {
	t.Parallel()
	g := NewGroup(2)
	ctx := context.Background()

	boom := errors.New("downstream unavailable")
	ok := Go(ctx, g, func(context.Context) (string, error) { return "fine", nil })
	bad := Go(ctx, g, func(context.Context) (string, error) { return "", boom })

	v, err := ok.Get()
	require.NoError(t, err)
	assert.Equal(t, "fine", v)

	_, err = bad.Get()
	assert.ErrorIs(t, err, boom)
}

func TestConcurrencyIsBounded(t *testing.T) {
	t.Parallel()
	const limit = 3
	g := NewGroup(limit)
	ctx := context.Background()

	var (
		running atomic.Int32
		peak    atomic.Int32
	)
	var wg sync.WaitGroup
	release := make(chan struct{})
	tasks := make([]*Task[struct{}], 10)
	for i := range tasks {
		wg.Add(1)
		tasks[i] = Go(ctx, g, func(context.Context) (struct{}, error) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return struct{}{}, nil
		})
	}
	close(release)
	for _, task := range tasks {
		_, err := task.Get()
		require.NoError(t, err)
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestContextPropagatesIntoTasks(t *testing.T) {
	t.Parallel()
	g := NewGroup(1)
	ctx := observability.ContextWithRequestID(context.Background(), "req-42")

	task := Go(ctx, g, func(ctx context.Context) (string, error) {
		return observability.RequestIDFromContext(ctx), nil
	})
	rid, err := task.Get()
	require.NoError(t, err)
	assert.Equal(t, "req-42", rid)
}

func TestCanceledContextFailsAcquire(t *testing.T) {
	t.Parallel()
	g := NewGroup(1)
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	holder := Go(ctx, g, func(context.Context) (struct{}, error) {
		close(started)
		<-block
		return struct{}{}, nil
	})
	<-started

	waiter := Go(ctx, g, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	cancel()
	_, err := waiter.Get()
	assert.Error(t, err)

	close(block)
	_, err = holder.Get()
	require.NoError(t, err)
}
