// Package service provides the command executor for respkv.
//
// Executor applies a parsed domain.Command to a Store and returns the
// reply value. It holds no state of its own; all state lives in the Store
// it is given.
package service
