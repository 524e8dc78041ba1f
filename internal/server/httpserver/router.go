package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/respkv/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Ready reports whether the RESP listener is serving.
	Ready handler.ReadyFunc

	// Connections reports open RESP connections on GET /ready.
	Connections func() int

	// Metrics serves GET /metrics. Nil disables the endpoint.
	Metrics http.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// AllowList is the IP/CIDR allowlist (empty = no restriction).
	AllowList []string
}

// NewRouter builds the admin handler with its middleware chain.
// Order: Recover -> RequestID -> NetworkACL -> AccessLog -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(handler.Options{
		Ready:       cfg.Ready,
		Connections: cfg.Connections,
		Metrics:     cfg.Metrics,
		Logger:      logger,
	})

	middlewares := []Middleware{
		Recover(logger),
		RequestID(),
	}
	if len(cfg.AllowList) > 0 {
		middlewares = append(middlewares, NetworkACL(&NetworkACLConfig{
			AllowList: cfg.AllowList,
			Logger:    logger,
		}))
	}
	middlewares = append(middlewares, AccessLog(logger))

	return Chain(h, middlewares...)
}
