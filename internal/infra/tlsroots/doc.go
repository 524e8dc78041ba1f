// Package tlsroots provides TLS certificate management for respkv.
//
//   - roots.go: system certificates plus custom CAs, for clients
//   - watcher.go: server certificate hot-reload via fsnotify
package tlsroots
