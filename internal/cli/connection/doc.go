// Package connection provides the RESP client used by respkv-cli.
//
// A Client holds one TCP (or TLS) connection and sends commands as RESP
// arrays of bulk strings, one at a time. Error replies from the server are
// returned as values, not as Go errors; a Go error means the connection
// itself failed and should be discarded.
package connection
