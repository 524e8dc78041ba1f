// Package handler provides the admin HTTP handlers for respkv.
//
// Endpoints:
//
//   - GET /health: liveness with build version
//   - GET /ready: 200 while the RESP listener runs, 503 otherwise
//   - GET /metrics: Prometheus exposition, when a metrics handler is set
package handler
