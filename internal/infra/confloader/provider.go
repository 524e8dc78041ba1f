// Package confloader provides configuration loading mechanism.
package confloader

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a
// provider that only supports Read.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported, use Read() instead")

// mapProvider is a simple koanf provider that loads configuration from a map.
//
// Note: koanf.Provider supports either ReadBytes() or Read() depending on the
// provider implementation; koanf will use whichever is available.
// For map-based providers, Read() is the appropriate method.
type mapProvider map[string]any

func newMapProvider(data map[string]any) mapProvider {
	return mapProvider(maps.Unflatten(data, "."))
}

// ReadBytes returns an error as map provider doesn't support byte serialization.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the configuration map.
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// dotEnvProvider reads prefixed variables from a dotenv file.
type dotEnvProvider struct {
	path   string
	prefix string
	key    func(string) string
}

// ReadBytes is not supported.
func (p dotEnvProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read parses the file and returns the matching variables as a nested map.
func (p dotEnvProvider) Read() (map[string]any, error) {
	vars, err := godotenv.Read(p.path)
	if err != nil {
		return nil, err
	}

	flat := make(map[string]any, len(vars))
	for name, value := range vars {
		if !strings.HasPrefix(name, p.prefix) {
			continue
		}
		if key := p.key(name); key != "" {
			flat[key] = value
		}
	}
	return maps.Unflatten(flat, "."), nil
}
