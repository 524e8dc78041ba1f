// Package repl provides the interactive mode of respkv-cli.
//
//   - repl.go: the read-eval-print loop
//   - split.go: redis-cli style argument splitting with quotes
//   - completer.go: command names and usage for completion and help
//   - history.go: command history persistence
//
// Lines are split into arguments and sent to the server as-is, so commands
// the client does not know about still reach the server.
package repl
