package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "RESPKV_"

// EnvNestingSeparator separates nesting levels in environment variable
// names. Single underscores stay part of the key, so
// RESPKV_SERVER__REDIS__READ_TIMEOUT is server.redis.read_timeout.
const EnvNestingSeparator = "__"

// Loader merges configuration layers into one koanf tree. A Loader is
// used for a single Load; the config watcher builds a fresh one per
// reload.
type Loader struct {
	k          *koanf.Koanf
	envPrefix  string
	filePath   string
	dotEnvPath string
	overrides  map[string]any
	loaded     bool
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile adds a YAML file as the lowest layer.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithDotEnv adds a dotenv file above the config file and below the
// process environment.
func WithDotEnv(path string) Option {
	return func(l *Loader) { l.dotEnvPath = path }
}

// WithOverrides adds the top layer. Keys are dotted paths such as
// "server.redis.addr"; command-line flags arrive this way.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New("."), envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type layer struct {
	name string
	load func() error
}

// Load merges, from lowest to highest priority, the config file, the
// dotenv file, the environment and the overrides, then decodes the result
// into target. Fields no layer sets keep the values target already holds,
// so callers pass a struct filled with defaults.
func (l *Loader) Load(target any) error {
	layers := []layer{
		{"config file", func() error { return l.LoadFile(l.filePath) }},
		{"dotenv", func() error {
			if l.dotEnvPath == "" {
				return nil
			}
			return l.LoadDotEnv(l.dotEnvPath)
		}},
		{"env", l.LoadEnv},
		{"overrides", func() error {
			if len(l.overrides) == 0 {
				return nil
			}
			return l.LoadMap(l.overrides)
		}},
	}
	for _, ly := range layers {
		if err := ly.load(); err != nil {
			return fmt.Errorf("load %s: %w", ly.name, err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	l.loaded = true
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges prefixed variables of the process environment.
func (l *Loader) LoadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil)
}

// LoadDotEnv merges prefixed variables from a dotenv file, named as for
// LoadEnv. The process environment is left untouched.
func (l *Loader) LoadDotEnv(path string) error {
	p := dotEnvProvider{path: path, prefix: l.envPrefix, key: l.envKey}
	if err := l.k.Load(p, nil); err != nil {
		return fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return nil
}

// LoadMap merges a map whose dotted keys are expanded into sections.
func (l *Loader) LoadMap(data map[string]any) error {
	return l.k.Load(newMapProvider(data), nil)
}

// envKey maps a variable name to a config key. A name without the
// nesting separator yields "", which koanf skips; RESPKV_SERVER, the CLI's
// server address, must not leak into the server config this way.
func (l *Loader) envKey(name string) string {
	name = strings.TrimPrefix(name, l.envPrefix)
	if !strings.Contains(name, EnvNestingSeparator) {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(name), EnvNestingSeparator, ".")
}

// GetString returns the merged value at a dotted key.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// Keys lists every merged key.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// IsLoaded reports whether Load has completed.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}
