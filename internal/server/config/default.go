// Package config defines the server configuration structure.
package config

import "github.com/yndnr/respkv/pkg/resp"

// Default configuration values.
const (
	DefaultRedisAddr = "127.0.0.1:6379"
	DefaultAdminAddr = "127.0.0.1:9121"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration. The snapshot section
// is left empty so that CONFIG GET reports it as not configured.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:        DefaultRedisAddr,
				MaxDepth:    resp.DefaultMaxDepth,
				MaxArrayLen: resp.DefaultMaxArrayLen,
				MaxBulkLen:  resp.DefaultMaxBulkLen,
				MaxLineLen:  resp.DefaultMaxLineLen,
			},
			Admin: AdminConfig{
				Addr: DefaultAdminAddr,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Limits returns the decode limits for the RESP reader.
func (c RedisConfig) Limits() resp.Limits {
	return resp.Limits{
		MaxDepth:    c.MaxDepth,
		MaxArrayLen: c.MaxArrayLen,
		MaxBulkLen:  c.MaxBulkLen,
		MaxLineLen:  c.MaxLineLen,
	}
}
