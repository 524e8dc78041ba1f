package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
	"github.com/yndnr/respkv/pkg/cmap"
	"github.com/yndnr/respkv/pkg/resp"
)

// Executor runs a parsed command and returns the reply.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command) resp.Value
}

// Config holds the RESP server configuration.
type Config struct {
	// Address is the plaintext TCP listen address. Empty disables it.
	Address string
	// TLSAddress is the TLS listen address. Empty disables it.
	TLSAddress string
	// TLSConfig is required when TLSAddress is set.
	TLSConfig *tls.Config
	// ReadTimeout bounds reading one command once its first byte arrived.
	// Zero means no timeout.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply. Zero means no timeout.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next command. Zero means no timeout.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per client IP.
	// Zero disables rate limiting.
	RateLimit int
	// RateBurst is the token bucket size; zero means RateLimit.
	RateBurst int
	// Limits bounds decoding of a single command.
	Limits resp.Limits
	// OnAcceptError is called when a listener fails for good while the
	// server is running. Connections already open keep being served.
	OnAcceptError func(error)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address: "127.0.0.1:6379",
		Limits:  resp.DefaultLimits(),
	}
}

// Server is the RESP protocol server.
type Server struct {
	cfg     *Config
	exec    Executor
	metrics *metric.Registry
	logger  *slog.Logger
	limiter *rateLimiter

	mu      sync.Mutex
	plainLn net.Listener
	tlsLn   net.Listener

	conns   *cmap.Map[string, *Conn]
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server. metrics and logger may be nil.
func New(cfg *Config, exec Executor, metrics *metric.Registry, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		exec:    exec,
		metrics: metrics,
		logger:  log,
		conns:   cmap.New[string, *Conn](),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// Start binds the configured listeners and serves them in the background.
// Bind failures are returned before anything is served.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == "" && s.cfg.TLSAddress == "" {
		return errors.New("redisserver: no listen address configured")
	}
	if s.cfg.TLSAddress != "" && s.cfg.TLSConfig == nil {
		return errors.New("redisserver: TLS address set without TLS config")
	}

	var plainLn, tlsLn net.Listener
	if s.cfg.Address != "" {
		ln, err := net.Listen("tcp", s.cfg.Address)
		if err != nil {
			return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
		}
		plainLn = ln
	}
	if s.cfg.TLSAddress != "" {
		ln, err := tls.Listen("tcp", s.cfg.TLSAddress, s.cfg.TLSConfig)
		if err != nil {
			if plainLn != nil {
				_ = plainLn.Close()
			}
			return fmt.Errorf("redisserver: listen tls %s: %w", s.cfg.TLSAddress, err)
		}
		tlsLn = ln
	}

	s.mu.Lock()
	s.plainLn, s.tlsLn = plainLn, tlsLn
	s.mu.Unlock()
	s.running.Store(true)

	for _, ln := range []net.Listener{plainLn, tlsLn} {
		if ln == nil {
			continue
		}
		s.logger.Info("resp server listening", "address", ln.Addr().String())
		s.wg.Add(1)
		go func(ln net.Listener) {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
				s.logger.Error("accept loop stopped", "address", ln.Addr().String(), "error", err)
				if s.cfg.OnAcceptError != nil {
					s.cfg.OnAcceptError(err)
				}
			}
		}(ln)
	}
	return nil
}

// Addr returns the bound plaintext address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// TLSAddr returns the bound TLS address, or nil when TLS is off.
func (s *Server) TLSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tlsLn == nil {
		return nil
	}
	return s.tlsLn.Addr()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.running.Load()
}

// ConnCount returns the number of open client connections.
func (s *Server) ConnCount() int {
	return s.conns.Count()
}

// Shutdown stops accepting, closes every client connection and waits for
// the connection goroutines to exit or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	s.mu.Lock()
	for _, ln := range []net.Listener{s.plainLn, s.tlsLn} {
		if ln == nil {
			continue
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) && firstErr == nil {
			firstErr = err
		}
	}
	s.mu.Unlock()

	for _, c := range s.conns.Drain() {
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// Transient, for example file descriptor exhaustion.
				backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
				s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		c := newConn(nc, s.cfg.Limits)
		s.conns.Set(c.id, c)
		if !s.running.Load() {
			// Shutdown may have drained the registry before this Set.
			s.conns.Delete(c.id)
			_ = c.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.Delete(c.id)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	if s.metrics != nil {
		s.metrics.ConnOpened()
		defer s.metrics.ConnClosed()
	}

	ctx = logger.WithConnID(ctx, c.id)
	log := s.logger.With("remote", c.RemoteAddr().String())
	log.DebugContext(ctx, "connection accepted")

	for {
		if err := c.setReadDeadline(s.cfg.IdleTimeout); err != nil {
			return
		}
		if err := c.r.Peek(); err != nil {
			s.handleReadError(ctx, log, c, err)
			return
		}
		if err := c.setReadDeadline(s.cfg.ReadTimeout); err != nil {
			return
		}

		v, err := c.r.ReadValue()
		if err != nil {
			s.handleReadError(ctx, log, c, err)
			return
		}

		reply := s.dispatch(ctx, log, c, v)

		if err := c.setWriteDeadline(s.cfg.WriteTimeout); err != nil {
			return
		}
		if err := c.w.WriteValue(reply); err != nil {
			s.handleWriteError(ctx, log, c, err)
			return
		}
		if err := c.w.Flush(); err != nil {
			s.handleWriteError(ctx, log, c, err)
			return
		}
	}
}

// dispatch parses and executes one command.
func (s *Server) dispatch(ctx context.Context, log *slog.Logger, c *Conn, v resp.Value) resp.Value {
	cmd := Parse(v)

	if s.limiter != nil && !s.limiter.allow(c.remoteIP()) {
		if s.metrics != nil {
			s.metrics.IncRateLimited()
		}
		log.DebugContext(ctx, "command rate limited", "command", cmd.Name())
		return resp.Error(domain.ErrRateLimited.Reply)
	}

	if inv, ok := cmd.(domain.Invalid); ok {
		log.DebugContext(ctx, "invalid command", "reason", inv.Reason)
	}

	start := time.Now()
	reply := s.exec.Execute(ctx, cmd)
	if s.metrics != nil {
		s.metrics.RecordCommand(cmd.Name(), resultLabel(reply), time.Since(start))
	}
	return reply
}

func (s *Server) handleReadError(ctx context.Context, log *slog.Logger, c *Conn, err error) {
	switch {
	case errors.Is(err, resp.ErrDisconnected):
		log.DebugContext(ctx, "client disconnected")
	case c.Closed() || !s.running.Load():
		log.DebugContext(ctx, "connection closed by server")
	case isTimeout(err):
		log.DebugContext(ctx, "connection timed out")
	case errors.Is(err, resp.ErrLimitExceeded):
		detail := protocolDetail(err, resp.ErrLimitExceeded)
		log.WarnContext(ctx, "protocol limit exceeded", "detail", detail)
		s.rejectProtocol(c, "limit", detail)
	case errors.Is(err, resp.ErrProtocol):
		detail := protocolDetail(err, resp.ErrProtocol)
		log.WarnContext(ctx, "protocol error", "detail", detail)
		s.rejectProtocol(c, "protocol", detail)
	default:
		log.ErrorContext(ctx, "connection read failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordProtocolError("io")
		}
	}
}

func (s *Server) handleWriteError(ctx context.Context, log *slog.Logger, c *Conn, err error) {
	if c.Closed() || !s.running.Load() {
		log.DebugContext(ctx, "connection closed by server")
		return
	}
	if errors.Is(err, resp.ErrInvalidValue) {
		log.ErrorContext(ctx, "reply could not be encoded", "error", err)
		return
	}
	log.ErrorContext(ctx, "connection write failed", "error", err)
}

// rejectProtocol sends a best-effort error before the connection closes.
func (s *Server) rejectProtocol(c *Conn, reason, detail string) {
	if s.metrics != nil {
		s.metrics.RecordProtocolError(reason)
	}
	_ = c.setWriteDeadline(time.Second)
	_ = c.w.WriteError("ERR Protocol error: " + detail)
	_ = c.w.Flush()
}

// maxProtocolDetail bounds the text echoed after "ERR Protocol error: ".
const maxProtocolDetail = 256

// protocolDetail strips the sentinel prefix from err's message and keeps
// it on one bounded line.
func protocolDetail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		msg = sentinel.Error()
	}
	if len(msg) > maxProtocolDetail {
		msg = msg[:maxProtocolDetail] + "..."
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func resultLabel(v resp.Value) string {
	switch v.Kind {
	case resp.KindSimpleError:
		return metric.ResultError
	case resp.KindNull:
		return metric.ResultNull
	default:
		return metric.ResultOK
	}
}
