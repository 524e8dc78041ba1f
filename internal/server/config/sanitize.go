// Package config defines the server configuration structure.
package config

import "strings"

// Sanitize returns a normalized copy of the config, suitable for
// validation and for logging. The input is not modified.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Server.Redis.Addr = strings.TrimSpace(cfg.Server.Redis.Addr)
	sanitized.Server.Redis.TLSAddr = strings.TrimSpace(cfg.Server.Redis.TLSAddr)
	sanitized.Server.Admin.Addr = strings.TrimSpace(cfg.Server.Admin.Addr)
	if cfg.Server.Admin.AllowList != nil {
		sanitized.Server.Admin.AllowList = make([]string, 0, len(cfg.Server.Admin.AllowList))
		for _, entry := range cfg.Server.Admin.AllowList {
			if entry = strings.TrimSpace(entry); entry != "" {
				sanitized.Server.Admin.AllowList = append(sanitized.Server.Admin.AllowList, entry)
			}
		}
	}

	sanitized.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	sanitized.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	return &sanitized
}
