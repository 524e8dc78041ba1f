// Package main provides the entry point for respkv-cli.
//
// respkv-cli sends single commands to a respkv server, or starts an
// interactive REPL when run without a command:
//
//	respkv-cli ping
//	respkv-cli set --px 5000 session:42 alice
//	respkv-cli -o json config get dir
//	respkv-cli -s 10.0.0.5:6379 repl
//
// Exit status is 0 on success, 1 when the command failed or the server
// replied with an error.
package main
