package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv/internal/server/httpserver/handler"
)

const headerRequestID = "X-Request-ID"

type requestInfoKey struct{}

// requestInfo is stored in the request context by RequestID.
type requestInfo struct {
	id    string
	start time.Time
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed sees the request
// first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID keeps the caller's X-Request-ID or assigns a ULID-based one,
// echoes it in the response and records the start time.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = "req-" + ulid.Make().String()
				r.Header.Set(headerRequestID, id)
			}
			w.Header().Set(headerRequestID, id)

			ctx := context.WithValue(r.Context(), requestInfoKey{}, requestInfo{id: id, start: time.Now()})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the ID assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info.id
}

// AccessLog logs each request once it completes. Successful requests are
// logged at debug level since Prometheus scrapes them every few seconds.
func AccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			info, ok := r.Context().Value(requestInfoKey{}).(requestInfo)
			if !ok {
				info.start = time.Now()
			}
			level := slog.LevelDebug
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "admin request",
				"request_id", info.id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(info.start).Milliseconds(),
				"client_ip", clientIP(r),
			)
		})
	}
}

// Recover answers a panicking handler with 500 instead of dropping the
// connection.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("admin handler panic",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"error", v)
					writeError(w, http.StatusInternalServerError, handler.CodeInternal, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACLConfig holds configuration for the network ACL middleware.
type NetworkACLConfig struct {
	// AllowList holds IP addresses and CIDR prefixes. Unparseable entries
	// are logged and skipped; a list with no valid entry allows everyone.
	AllowList []string

	Logger *slog.Logger
}

// NetworkACL answers 403 to peers outside the allow list. Only the TCP
// peer address is checked; forwarding headers are client-controlled.
func NetworkACL(cfg *NetworkACLConfig) Middleware {
	allowed := parseAllowList(cfg.AllowList, cfg.Logger)

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, err := netip.ParseAddr(remoteIP(r))
			if err != nil {
				writeError(w, http.StatusForbidden, "KV-ADMIN-4031", "invalid client IP")
				return
			}
			addr = addr.Unmap()
			for _, p := range allowed {
				if p.Contains(addr) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if cfg.Logger != nil {
				cfg.Logger.Warn("admin request denied", "client_ip", addr.String(), "path", r.URL.Path)
			}
			writeError(w, http.StatusForbidden, "KV-ADMIN-4031", "IP not in allowlist")
		})
	}
}

func parseAllowList(entries []string, logger *slog.Logger) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		var (
			p   netip.Prefix
			err error
		)
		if strings.Contains(e, "/") {
			p, err = netip.ParsePrefix(e)
			p = p.Masked()
		} else {
			var a netip.Addr
			if a, err = netip.ParseAddr(e); err == nil {
				p = netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen())
			}
		}
		if err != nil {
			if logger != nil {
				logger.Warn("ignoring admin allowlist entry", "entry", e, "error", err)
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

// clientIP is the address shown in access logs. It prefers proxy headers
// and must not be used for access decisions.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
