package rpc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Client is a blocking synchronous RPC client. It owns one TCP connection;
// calls are serialized, one request and one response in flight at a time.
// Closing the client closes the socket.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	frames *frameIO
	w      *Writer
	seq    int32
	closed bool
}

// Dial connects to host:port within connTimeout and returns a ready client.
func Dial(host string, port int, connTimeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, connTimeout)
	if err != nil {
		return nil, fmt.Errorf("op=rpc.dial addr=%s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		frames: newFrameIO(bufioReadWriter(conn), 0),
		w:      NewWriter(),
	}, nil
}

type readWriter struct {
	r *bufio.Reader
	w net.Conn
}

func (rw readWriter) Read(p []byte) (int, error)  { return rw.r.Read(p) }
func (rw readWriter) Write(p []byte) (int, error) { return rw.w.Write(p) }

func bufioReadWriter(conn net.Conn) readWriter {
	return readWriter{r: bufio.NewReader(conn), w: conn}
}

// Call performs one synchronous RPC. args is encoded as the call's argument
// struct; the returned Reader is positioned at the start of the result
// struct. A context deadline, when present, bounds the whole exchange.
//
// If the server replied with an ApplicationException, that exception is
// returned as the error.
func (c *Client) Call(ctx context.Context, method string, args Writable) (*Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("op=rpc.call method=%s: client closed", method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("op=rpc.call method=%s: %w", method, err)
		}
	} else {
		if err := c.conn.SetDeadline(time.Time{}); err != nil {
			return nil, fmt.Errorf("op=rpc.call method=%s: %w", method, err)
		}
	}

	c.seq++
	c.w.Reset()
	c.w.WriteMessageBegin(method, MessageCall, c.seq)
	args.Write(c.w)
	if err := c.frames.writeFrame(c.w.Bytes()); err != nil {
		return nil, err
	}

	frame, err := c.frames.readFrame()
	if err != nil {
		return nil, fmt.Errorf("op=rpc.call method=%s: %w", method, err)
	}
	r := NewReader(frame)
	name, typ, seq, err := r.ReadMessageBegin()
	if err != nil {
		return nil, err
	}
	if seq != c.seq {
		return nil, NewApplicationException(ExcBadSequenceID,
			fmt.Sprintf("%s: got seqid %d, want %d", method, seq, c.seq))
	}
	if name != method {
		return nil, NewApplicationException(ExcWrongMethodName,
			fmt.Sprintf("got reply for %q, want %q", name, method))
	}
	switch typ {
	case MessageReply:
		return r, nil
	case MessageException:
		exc := &ApplicationException{}
		if err := exc.Read(r); err != nil {
			return nil, err
		}
		return nil, exc
	default:
		return nil, NewApplicationException(ExcInvalidMessageType,
			fmt.Sprintf("%s: unexpected message type %d", method, typ))
	}
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
