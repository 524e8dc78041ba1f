// Package httpserver provides the admin HTTP server for respkv.
//
// It serves health, readiness and Prometheus metrics using stdlib
// net/http behind a small middleware chain: Recover, RequestID, an
// optional network ACL and an access log.
package httpserver
