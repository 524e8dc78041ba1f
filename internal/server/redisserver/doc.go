// Package redisserver serves the RESP protocol over TCP.
//
// Each accepted connection gets its own goroutine that reads one value at
// a time with pkg/resp, turns it into a domain.Command with Parse, runs it
// through the executor and writes the reply before reading the next value.
//
// Supported commands:
//   - PING
//   - ECHO message
//   - GET key
//   - SET key value [PX milliseconds]
//   - CONFIG GET dir|dbfilename
//
// Malformed commands get an error reply and the connection stays open.
// Malformed framing closes the connection.
package redisserver
