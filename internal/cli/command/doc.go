// Package command provides CLI command definitions for respkv-cli.
//
// It uses urfave/cli/v2 for command parsing. Every command opens one
// connection, sends a single RESP command and prints the reply in the
// selected output format. Running without a command starts the REPL.
package command
