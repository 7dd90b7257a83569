package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	text string
}

func (a *echoArgs) Write(w *Writer) {
	w.WriteFieldBegin(TypeString, 1)
	w.WriteString(a.text)
	w.WriteFieldStop()
}

type echoResult struct {
	text string
}

func (r *echoResult) Write(w *Writer) {
	w.WriteFieldBegin(TypeString, 0)
	w.WriteString(r.text)
	w.WriteFieldStop()
}

func readEchoArgs(r *Reader) (string, error) {
	text := ""
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return "", err
		}
		if ft == TypeStop {
			return text, nil
		}
		if id == 1 && ft == TypeString {
			if text, err = r.ReadString(); err != nil {
				return "", err
			}
			continue
		}
		if err := r.Skip(ft); err != nil {
			return "", err
		}
	}
}

func readEchoResult(t *testing.T, r *Reader) string {
	t.Helper()
	text := ""
	for {
		ft, id, err := r.ReadFieldBegin()
		require.NoError(t, err)
		if ft == TypeStop {
			return text
		}
		if id == 0 && ft == TypeString {
			text, err = r.ReadString()
			require.NoError(t, err)
			continue
		}
		require.NoError(t, r.Skip(ft))
	}
}

func echoProcessor() *ServiceProcessor {
	p := NewServiceProcessor("echo")
	p.Register("echo", func(_ context.Context, in *Reader) (Writable, error) {
		text, err := readEchoArgs(in)
		if err != nil {
			return nil, err
		}
		return &echoResult{text: text}, nil
	})
	p.Register("boom", func(_ context.Context, in *Reader) (Writable, error) {
		if _, err := readEchoArgs(in); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("op=echo.boom: storage offline")
	})
	return p
}

// startServer serves s on a kernel-picked loopback port and returns a dialer.
func startServer(t *testing.T, s *Server) func() *Client {
	t.Helper()
	s.Host = "127.0.0.1"
	s.Port = 0

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()
	t.Cleanup(func() {
		s.Shutdown()
		require.NoError(t, <-done)
	})
	require.Eventually(t, func() bool { return s.Addr() != nil },
		2*time.Second, 5*time.Millisecond)

	addr := s.Addr().(*net.TCPAddr)
	return func() *Client {
		c, err := Dial("127.0.0.1", addr.Port, time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
}

func TestCallRoundTrip(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor()})
	c := dial()

	r, err := c.Call(context.Background(), "echo", &echoArgs{text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", readEchoResult(t, r))
}

func TestSequentialCallsShareOneConnection(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor()})
	c := dial()

	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("msg-%d", i)
		r, err := c.Call(context.Background(), "echo", &echoArgs{text: text})
		require.NoError(t, err)
		assert.Equal(t, text, readEchoResult(t, r))
	}
}

func TestUnknownMethodReturnsApplicationException(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor()})
	c := dial()

	_, err := c.Call(context.Background(), "nope", &echoArgs{})
	exc := &ApplicationException{}
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, ExcUnknownMethod, exc.Code)

	// The connection survives the exception reply.
	r, err := c.Call(context.Background(), "echo", &echoArgs{text: "still up"})
	require.NoError(t, err)
	assert.Equal(t, "still up", readEchoResult(t, r))
}

func TestHandlerErrorBecomesInternalException(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor()})
	c := dial()

	_, err := c.Call(context.Background(), "boom", &echoArgs{})
	exc := &ApplicationException{}
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, ExcInternalError, exc.Code)
	assert.Contains(t, exc.Message, "storage offline")
}

func TestObserveReportsOutcomePerCall(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	outcomes := map[string]string{}
	srv := &Server{
		Processor: echoProcessor(),
		Observe: func(method, outcome string, elapsed time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			outcomes[method] = outcome
			assert.GreaterOrEqual(t, elapsed, time.Duration(0))
		},
	}
	dial := startServer(t, srv)
	c := dial()

	_, err := c.Call(context.Background(), "echo", &echoArgs{text: "x"})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "boom", &echoArgs{})
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{"echo": "ok", "boom": "error"}, outcomes)
}

func TestConcurrentClientsAreServed(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor(), ConcurrentClientLimit: 2})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		c := dial()
		wg.Add(1)
		go func(c *Client, i int) {
			defer wg.Done()
			r, err := c.Call(context.Background(), "echo", &echoArgs{text: fmt.Sprintf("c%d", i)})
			assert.NoError(t, err)
			if err == nil {
				assert.Equal(t, fmt.Sprintf("c%d", i), readEchoResult(t, r))
			}
		}(c, i)
	}
	wg.Wait()
}

func TestCallAfterCloseFails(t *testing.T) {
	t.Parallel()

	dial := startServer(t, &Server{Processor: echoProcessor()})
	c := dial()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Call(context.Background(), "echo", &echoArgs{})
	require.ErrorContains(t, err, "client closed")
}

func TestServeReturnsNilOnShutdown(t *testing.T) {
	t.Parallel()

	srv := &Server{Host: "127.0.0.1", Port: 0, Processor: echoProcessor()}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil },
		2*time.Second, 5*time.Millisecond)

	srv.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after Shutdown")
	}
}

func TestContextCancelStopsServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{Host: "127.0.0.1", Port: 0, Processor: echoProcessor()}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil },
		2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestFrameLimitDropsOversizedPeer(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	frames := newFrameIO(bufioReadWriter(a), 8)
	go func() {
		peer := newFrameIO(bufioReadWriter(b), 0)
		_ = peer.writeFrame(make([]byte, 64))
	}()

	_, err := frames.readFrame()
	require.ErrorContains(t, err, "exceeds limit")
}
