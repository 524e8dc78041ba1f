// Package main provides the entry point for respkv-server.
//
// respkv-server is an in-memory key-value server speaking the RESP wire
// protocol. It serves PING, ECHO, GET, SET (with PX expiry) and CONFIG GET
// to any Redis-compatible client.
//
// Usage:
//
//	respkv-server [flags]
//	respkv-server --dir /var/lib/respkv --dbfilename dump.rdb
//	respkv-server --config /etc/respkv/config.yaml
//
// Configuration is layered: defaults, the YAML file, a dotenv file,
// RESPKV_* environment variables (with "__" separating nested keys, for
// example RESPKV_SERVER__REDIS__ADDR) and finally flags.
//
// An unknown flag is a usage error: the process exits with status 2
// before binding any listener.
package main
