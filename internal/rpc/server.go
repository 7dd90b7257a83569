package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"
)

// MethodHandler decodes the argument struct from in and returns the encoded
// result struct, or an error when the failure is not part of the method's
// declared exception set.
type MethodHandler func(ctx context.Context, in *Reader) (Writable, error)

// ServiceProcessor dispatches decoded calls to registered method handlers.
type ServiceProcessor struct {
	service string
	methods map[string]MethodHandler
}

// NewServiceProcessor returns an empty processor for the named service.
func NewServiceProcessor(service string) *ServiceProcessor {
	return &ServiceProcessor{service: service, methods: make(map[string]MethodHandler)}
}

// Register installs the handler for a wire method name.
func (p *ServiceProcessor) Register(method string, h MethodHandler) {
	p.methods[method] = h
}

// Service returns the name the processor was created with.
func (p *ServiceProcessor) Service() string { return p.service }

// Server accepts TCP connections and serves sequential framed calls on each
// one. Connections are handled one goroutine apiece; ConcurrentClientLimit
// caps how many are served simultaneously.
type Server struct {
	Host string
	Port int
	// ConcurrentClientLimit caps simultaneously served connections.
	// Zero means unlimited.
	ConcurrentClientLimit int
	// AcceptBacklog is accepted for interface parity with the other
	// implementations of this protocol; the Go listener does not expose the
	// listen backlog, so the value is only logged.
	AcceptBacklog int
	Processor     *ServiceProcessor
	Log           *slog.Logger
	// Observe, when set, is called once per dispatched method with the
	// outcome "ok" or "error".
	Observe func(method, outcome string, elapsed time.Duration)

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
}

// Serve listens and accepts until ctx is canceled or Shutdown is called.
// It returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("op=rpc.serve addr=%s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	if s.Log != nil {
		s.Log.Info("rpc server listening",
			slog.String("service", s.Processor.Service()),
			slog.String("addr", addr),
			slog.Int("threads", s.ConcurrentClientLimit),
			slog.Int("accept_backlog", s.AcceptBacklog))
	}

	var sem chan struct{}
	if s.ConcurrentClientLimit > 0 {
		sem = make(chan struct{}, s.ConcurrentClientLimit)
	}

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.shutdown
			s.mu.Unlock()
			if stopping {
				break
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			wg.Wait()
			return fmt.Errorf("op=rpc.accept addr=%s: %w", addr, err)
		}
		if sem != nil {
			sem <- struct{}{}
		}
		s.track(conn, true)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				s.track(conn, false)
				_ = conn.Close()
				if sem != nil {
					<-sem
				}
			}()
			s.serveConn(ctx, conn)
		}()
	}
	wg.Wait()
	return nil
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return
	}
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Addr returns the bound listener address, or nil before Serve binds it.
// Useful when Port is zero and the kernel picks the port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and closes all open connections.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// serveConn reads sequential requests from one connection and writes the
// responses on the same stream. There is no multiplexing within a
// connection.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	frames := newFrameIO(bufioReadWriter(conn), 0)
	w := NewWriter()
	for {
		frame, err := frames.readFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && s.Log != nil {
				s.Log.Warn("rpc connection error",
					slog.String("remote", conn.RemoteAddr().String()),
					slog.Any("error", err))
			}
			return
		}
		reply, err := s.handleFrame(ctx, frame, w)
		if err != nil {
			if s.Log != nil {
				s.Log.Warn("rpc protocol error",
					slog.String("remote", conn.RemoteAddr().String()),
					slog.Any("error", err))
			}
			return
		}
		if err := frames.writeFrame(reply); err != nil {
			return
		}
	}
}

// handleFrame decodes one call, invokes the handler, and encodes the reply
// frame. Protocol-level failures (the peer cannot be answered coherently)
// are returned as errors and drop the connection.
func (s *Server) handleFrame(ctx context.Context, frame []byte, w *Writer) ([]byte, error) {
	r := NewReader(frame)
	name, typ, seq, err := r.ReadMessageBegin()
	if err != nil {
		return nil, err
	}
	if typ != MessageCall {
		return nil, fmt.Errorf("op=rpc.handle: unexpected message type %d", typ)
	}

	handler, ok := s.Processor.methods[name]
	if !ok {
		return exceptionFrame(w, name, seq,
			NewApplicationException(ExcUnknownMethod, "unknown method: "+name)), nil
	}

	start := time.Now()
	result, err := handler(ctx, r)
	if s.Observe != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.Observe(name, outcome, time.Since(start))
	}
	if err != nil {
		appExc := &ApplicationException{}
		if !errors.As(err, &appExc) {
			appExc = NewApplicationException(ExcInternalError, err.Error())
		}
		if s.Log != nil {
			s.Log.Warn("rpc handler error",
				slog.String("method", name),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err))
		}
		return exceptionFrame(w, name, seq, appExc), nil
	}

	w.Reset()
	w.WriteMessageBegin(name, MessageReply, seq)
	result.Write(w)
	return w.Bytes(), nil
}

func exceptionFrame(w *Writer, name string, seq int32, exc *ApplicationException) []byte {
	w.Reset()
	w.WriteMessageBegin(name, MessageException, seq)
	exc.Write(w)
	return w.Bytes()
}
