// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Snapshot SnapshotSection `koanf:"snapshot"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	Admin AdminConfig `koanf:"admin"`
}

// RedisConfig configures the RESP protocol server.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	TLSAddr  string `koanf:"tls_addr"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// Zero disables the corresponding timeout.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is commands per second per client IP; zero disables it.
	RateLimit int `koanf:"rate_limit"`
	RateBurst int `koanf:"rate_burst"`

	MaxDepth    int   `koanf:"max_depth"`
	MaxArrayLen int   `koanf:"max_array_len"`
	MaxBulkLen  int64 `koanf:"max_bulk_len"`
	MaxLineLen  int   `koanf:"max_line_len"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	// Addr is empty to disable the admin server.
	Addr      string   `koanf:"addr"`
	AllowList []string `koanf:"allow_list"`
}

// SnapshotSection holds the snapshot location reported by CONFIG GET.
// Nothing is read from or written to it.
type SnapshotSection struct {
	Dir        string `koanf:"dir"`
	DBFilename string `koanf:"dbfilename"`
}

// Supplied reports whether any snapshot setting was given.
func (s SnapshotSection) Supplied() bool {
	return s.Dir != "" || s.DBFilename != ""
}

// Resolve returns the effective values, with the default file name filled
// in. ok is false when nothing was supplied.
func (s SnapshotSection) Resolve() (dir, dbfilename string, ok bool) {
	if !s.Supplied() {
		return "", "", false
	}
	dbfilename = s.DBFilename
	if dbfilename == "" {
		dbfilename = domain.DefaultDBFilename
	}
	return s.Dir, dbfilename, true
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
