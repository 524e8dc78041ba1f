// Package config defines the respkv server configuration.
//
// A ServerConfig starts from Default, is filled by confloader, then passes
// through Sanitize and Verify before the server uses it. The snapshot
// section holds the dir and dbfilename values that CONFIG GET reports;
// CheckSnapshotPaths only warns about them, since the server never writes
// a snapshot.
package config
