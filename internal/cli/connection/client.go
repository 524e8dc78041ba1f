package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/respkv/pkg/resp"
)

// DefaultAddr is the server address used when none is given.
const DefaultAddr = "127.0.0.1:6379"

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection: client closed")

// Options configures a Client.
type Options struct {
	// Addr is the server address in host:port form.
	Addr string
	// Timeout bounds dialing and each command round trip. Zero means no
	// timeout beyond the caller's context.
	Timeout time.Duration
	// TLS enables TLS when non-nil.
	TLS *tls.Config
}

// Client is a RESP client over a single connection. It is safe for
// concurrent use; commands are serialized.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	r      *resp.Reader
	w      *resp.Writer
	closed bool
}

// Dial connects to the server described by opts.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		conn net.Conn
		err  error
	)
	if opts.TLS != nil {
		d := &tls.Dialer{Config: opts.TLS}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}

	return &Client{
		addr:    addr,
		timeout: opts.Timeout,
		conn:    conn,
		r:       resp.NewReader(conn, resp.WithNullValues()),
		w:       resp.NewWriter(conn),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and waits for its reply.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("connection: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return resp.Value{}, ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if c.timeout > 0 {
		if d := time.Now().Add(c.timeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		c.conn.SetDeadline(deadline)
	} else {
		c.conn.SetDeadline(time.Time{})
	}

	// Unblock the round trip if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	bufs := make([][]byte, len(args))
	for i, a := range args {
		bufs[i] = []byte(a)
	}
	if err := c.w.WriteCommand(bufs...); err != nil {
		return resp.Value{}, c.fail(ctx, "write", err)
	}
	if err := c.w.Flush(); err != nil {
		return resp.Value{}, c.fail(ctx, "write", err)
	}

	v, err := c.r.ReadValue()
	if err != nil {
		return resp.Value{}, c.fail(ctx, "read", err)
	}
	return v, nil
}

// fail closes the connection after an I/O error: the stream position is
// unknown, so it cannot be reused.
func (c *Client) fail(ctx context.Context, op string, err error) error {
	c.closed = true
	c.conn.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("connection: %s: %w", op, ctxErr)
	}
	// The socket deadline can fire just before the context's own timer.
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return fmt.Errorf("connection: %s: %w", op, context.DeadlineExceeded)
	}
	return fmt.Errorf("connection: %s: %w", op, err)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
