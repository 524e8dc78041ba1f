package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Redis struct {
			Addr        string        `koanf:"addr"`
			ReadTimeout time.Duration `koanf:"read_timeout"`
			RateLimit   int           `koanf:"rate_limit"`
		} `koanf:"redis"`
	} `koanf:"server"`
	Snapshot struct {
		Dir        string `koanf:"dir"`
		DBFilename string `koanf:"dbfilename"`
	} `koanf:"snapshot"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithDotEnv("/path/to/.env"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
	if l.dotEnvPath != "/path/to/.env" {
		t.Errorf("dotEnvPath = %q, want %q", l.dotEnvPath, "/path/to/.env")
	}
}

// ============================================================
// Individual sources
// ============================================================

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "0.0.0.0:6379"
    read_timeout: 5s
log:
  level: debug
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if addr := l.GetString("server.redis.addr"); addr != "0.0.0.0:6379" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "0.0.0.0:6379")
	}
	if level := l.GetString("log.level"); level != "debug" {
		t.Errorf("log.level = %q, want debug", level)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
	if err := l.LoadFile(writeConfig(t, "server: [unclosed")); err == nil {
		t.Error("LoadFile() should return error for invalid YAML")
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("RESPKV_SERVER__REDIS__ADDR", "127.0.0.1:7000")
	t.Setenv("RESPKV_SERVER__REDIS__READ_TIMEOUT", "2s")
	t.Setenv("RESPKV_SERVER", "client-only:6379")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if addr := l.GetString("server.redis.addr"); addr != "127.0.0.1:7000" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "127.0.0.1:7000")
	}
	if v := l.GetString("server.redis.read_timeout"); v != "2s" {
		t.Errorf("server.redis.read_timeout = %q, want 2s", v)
	}
	if v := l.GetString("server"); v == "client-only:6379" {
		t.Error("un-nested variable should be ignored")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG__LEVEL", "warn")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if level := l.GetString("log.level"); level != "warn" {
		t.Errorf("log.level = %q, want %q", level, "warn")
	}
}

func TestLoader_LoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "RESPKV_SNAPSHOT__DIR=/tmp/redis-files\n" +
		"# comment\n" +
		"RESPKV_LOG__LEVEL=\"debug\"\n" +
		"OTHER_APP__KEY=ignored\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	if err := l.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if dir := l.GetString("snapshot.dir"); dir != "/tmp/redis-files" {
		t.Errorf("snapshot.dir = %q", dir)
	}
	if level := l.GetString("log.level"); level != "debug" {
		t.Errorf("log.level = %q, want debug", level)
	}
	if v := l.GetString("other_app.key"); v != "" {
		t.Errorf("unprefixed variable loaded: %v", v)
	}
	if _, ok := os.LookupEnv("RESPKV_SNAPSHOT__DIR"); ok {
		t.Error("LoadDotEnv() modified the process environment")
	}
}

func TestLoader_LoadDotEnv_Missing(t *testing.T) {
	l := NewLoader()
	if err := l.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadDotEnv() should fail for a missing file")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"server.redis.addr": "localhost:3000",
		"snapshot": map[string]any{
			"dir": "/data",
		},
	}
	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if addr := l.GetString("server.redis.addr"); addr != "localhost:3000" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "localhost:3000")
	}
	if dir := l.GetString("snapshot.dir"); dir != "/data" {
		t.Errorf("snapshot.dir = %q, want /data", dir)
	}
	if len(l.Keys()) != 2 {
		t.Errorf("Keys() = %v, want 2 keys", l.Keys())
	}
}

// ============================================================
// Load
// ============================================================

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "from-file:1"
    rate_limit: 10
snapshot:
  dir: /from/file
  dbfilename: file.rdb
log:
  level: error
`)
	dotenv := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(dotenv, []byte(
		"RESPKV_SERVER__REDIS__ADDR=from-dotenv:2\nRESPKV_SNAPSHOT__DIR=/from/dotenv\nRESPKV_LOG__LEVEL=warn\n",
	), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RESPKV_SERVER__REDIS__ADDR", "from-env:3")
	t.Setenv("RESPKV_LOG__LEVEL", "info")

	l := NewLoader(
		WithConfigFile(path),
		WithDotEnv(dotenv),
		WithOverrides(map[string]any{"log.level": "debug"}),
	)

	var cfg testConfig
	cfg.Server.Redis.ReadTimeout = time.Second // default kept when unset
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"env over dotenv and file", cfg.Server.Redis.Addr, "from-env:3"},
		{"dotenv over file", cfg.Snapshot.Dir, "/from/dotenv"},
		{"file only", cfg.Snapshot.DBFilename, "file.rdb"},
		{"override over env", cfg.Log.Level, "debug"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if cfg.Server.Redis.RateLimit != 10 {
		t.Errorf("RateLimit = %d, want 10", cfg.Server.Redis.RateLimit)
	}
	if cfg.Server.Redis.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want default 1s", cfg.Server.Redis.ReadTimeout)
	}
}

func TestLoader_Load_DurationAndInt(t *testing.T) {
	t.Setenv("RESPKV_SERVER__REDIS__READ_TIMEOUT", "250ms")
	t.Setenv("RESPKV_SERVER__REDIS__RATE_LIMIT", "42")

	var cfg testConfig
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Redis.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", cfg.Server.Redis.ReadTimeout)
	}
	if cfg.Server.Redis.RateLimit != 42 {
		t.Errorf("RateLimit = %d, want 42", cfg.Server.Redis.RateLimit)
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile("/nonexistent/config.yaml")).Load(&cfg)
	if err == nil {
		t.Fatal("Load() should fail for a missing config file")
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}
