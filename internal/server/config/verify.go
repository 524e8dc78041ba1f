// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/yndnr/respkv/internal/telemetry/logger"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyRedis(&cfg.Server.Redis),
		verifyAdmin(&cfg.Server.Admin),
		verifySnapshot(&cfg.Snapshot),
		verifyLog(&cfg.Log),
	)
}

func verifyRedis(cfg *RedisConfig) error {
	var errs []error

	if cfg.Addr == "" && cfg.TLSAddr == "" {
		errs = append(errs, errors.New("server.redis.addr or server.redis.tls_addr is required"))
	}
	if cfg.Addr != "" {
		errs = append(errs, verifyAddr("server.redis.addr", cfg.Addr))
	}
	if cfg.TLSAddr != "" {
		errs = append(errs, verifyAddr("server.redis.tls_addr", cfg.TLSAddr))
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			errs = append(errs, errors.New("server.redis.tls_addr requires cert_file and key_file"))
		}
	}

	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.redis timeouts must not be negative"))
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		errs = append(errs, errors.New("server.redis.rate_limit and rate_burst must not be negative"))
	}
	if cfg.MaxDepth < 0 || cfg.MaxArrayLen < 0 || cfg.MaxBulkLen < 0 || cfg.MaxLineLen < 0 {
		errs = append(errs, errors.New("server.redis max_* limits must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyAdmin(cfg *AdminConfig) error {
	if cfg.Addr == "" {
		return nil
	}
	return verifyAddr("server.admin.addr", cfg.Addr)
}

func verifySnapshot(cfg *SnapshotSection) error {
	name := cfg.DBFilename
	if name == "" {
		return nil
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("snapshot.dbfilename %q must be a file name without directories", name)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch cfg.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", cfg.Format))
	}
	return errors.Join(errs...)
}

func verifyAddr(field, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s %q: %w", field, addr, err)
	}
	if port == "" {
		return fmt.Errorf("%s %q: missing port", field, addr)
	}
	return nil
}
