// Package domain defines the core domain model for respkv.
//
// It has no I/O dependencies. It contains:
//
//   - Command: the closed set of commands the server executes
//   - Errors: domain error codes shared by the store and the executor
package domain
