package redisserver

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv/pkg/resp"
)

// Conn is a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	r       *resp.Reader
	w       *resp.Writer

	closed atomic.Bool
}

func newConn(c net.Conn, limits resp.Limits) *Conn {
	return &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		r:       resp.NewReader(c, resp.WithLimits(limits)),
		w:       resp.NewWriter(c),
	}
}

// ID returns the connection's ULID.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the connection. It is safe to call more than once and from
// other goroutines.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// remoteIP returns the peer IP, or the whole address when it has no port.
func (c *Conn) remoteIP() string {
	addr := c.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// setReadDeadline sets a read deadline d from now. A zero d clears it.
func (c *Conn) setReadDeadline(d time.Duration) error {
	return c.netConn.SetReadDeadline(deadline(d))
}

func (c *Conn) setWriteDeadline(d time.Duration) error {
	return c.netConn.SetWriteDeadline(deadline(d))
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
