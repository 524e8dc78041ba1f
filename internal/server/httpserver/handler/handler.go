package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes used in admin responses.
const (
	CodeNotReady = "KV-SYS-5030"
	CodeInternal = "KV-SYS-5000"
)

// ReadyFunc reports whether the RESP listener is serving.
type ReadyFunc func() bool

// Options configures a Handler.
type Options struct {
	// Ready backs GET /ready. Nil means always ready.
	Ready ReadyFunc
	// Connections reports open RESP connections for GET /ready. Nil
	// reports zero.
	Connections func() int
	// Metrics backs GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
	// Logger for encode failures. Nil uses slog.Default.
	Logger *slog.Logger
}

// Handler routes admin requests.
type Handler struct {
	ready  ReadyFunc
	conns  func() int
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler.
func New(opts Options) *Handler {
	h := &Handler{
		ready:  opts.Ready,
		conns:  opts.Connections,
		logger: opts.Logger,
		mux:    http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.ready == nil {
		h.ready = func() bool { return true }
	}
	if h.conns == nil {
		h.conns = func() int { return 0 }
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	if opts.Metrics != nil {
		h.mux.Handle("GET /metrics", opts.Metrics)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, envelope(r.Header.Get("X-Request-ID"), codeOK, messageOK, data))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, status, envelope(r.Header.Get("X-Request-ID"), code, message, nil))
}

// write encodes body; the request ID header is set by the RequestID
// middleware when the handler runs behind the router.
func (h *Handler) write(w http.ResponseWriter, status int, body *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode admin response", "error", err)
	}
}
