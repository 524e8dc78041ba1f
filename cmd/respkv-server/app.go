package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/infra/tlsroots"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/httpserver"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const shutdownTimeout = 30 * time.Second

// usageError marks a command line that could not be parsed.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// flagKeys maps flags to the configuration keys they override.
var flagKeys = map[string]string{
	"dir":        "snapshot.dir",
	"dbfilename": "snapshot.dbfilename",
	"addr":       "server.redis.addr",
	"admin-addr": "server.admin.addr",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// run executes the server with args and returns the process exit code.
func run(ctx context.Context, args []string) int {
	return runWithOutput(ctx, args, os.Stdout, os.Stderr)
}

func runWithOutput(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)

	err := app.RunContext(ctx, args)
	var uerr *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "Incorrect usage: %v\n", uerr.err)
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", app.Name)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            "respkv-server",
		Usage:           "In-memory key-value server speaking RESP",
		Version:         buildinfo.String(),
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Flags:           serverFlags(),
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return &usageError{err: err}
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return &usageError{err: fmt.Errorf("unexpected argument %q", c.Args().First())}
			}
			return serve(c)
		},
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Directory reported by CONFIG GET dir",
		},
		&cli.StringFlag{
			Name:  "dbfilename",
			Usage: "Snapshot file name reported by CONFIG GET dbfilename (default dump.rdb when set)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			EnvVars: []string{"RESPKV_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file with RESPKV_* settings",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "RESP listen address (default " + config.DefaultRedisAddr + ")",
		},
		&cli.StringFlag{
			Name:  "admin-addr",
			Usage: "Admin HTTP listen address, empty to disable (default " + config.DefaultAdminAddr + ")",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// overrides collects the flags given on the command line. Flags left out
// do not mask lower configuration layers.
func overrides(c *cli.Context) map[string]any {
	values := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			values[key] = c.String(flag)
		}
	}
	return values
}

func loaderOptions(c *cli.Context) []confloader.Option {
	opts := []confloader.Option{confloader.WithOverrides(overrides(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if path := c.String("env-file"); path != "" {
		opts = append(opts, confloader.WithDotEnv(path))
	}
	return opts
}

// loadConfig loads, normalizes and validates the configuration.
func loadConfig(opts []confloader.Option) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	cfg = config.Sanitize(cfg)
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	opts := loaderOptions(c)
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := logger.Slog(log)

	log.Info("starting respkv-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", c.String("config"))

	for _, w := range config.CheckSnapshotPaths(afero.NewOsFs(), cfg.Snapshot) {
		log.Warn("snapshot location", "warning", w)
	}

	store := newStore(cfg)
	metrics := metric.NewRegistry()
	metrics.MustRegister(metric.NewStoreCollector(func() (int, uint64) {
		st := store.Stats()
		return st.Keys, st.Expired
	}))

	hooks := shutdown.NewHandler(shutdownTimeout, slogger)

	redisCfg := &redisserver.Config{
		Address:      cfg.Server.Redis.Addr,
		TLSAddress:   cfg.Server.Redis.TLSAddr,
		ReadTimeout:  cfg.Server.Redis.ReadTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		RateLimit:    cfg.Server.Redis.RateLimit,
		RateBurst:    cfg.Server.Redis.RateBurst,
		Limits:       cfg.Server.Redis.Limits(),
		OnAcceptError: func(err error) {
			hooks.Trigger("resp listener failed: " + err.Error())
		},
	}
	if cfg.Server.Redis.TLSAddr != "" {
		certs, err := tlsroots.NewWatcher(cfg.Server.Redis.CertFile, cfg.Server.Redis.KeyFile,
			tlsroots.WithLogger(slogger))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		certs.StartAsync()
		hooks.OnShutdown("tls-watcher", func(context.Context) error {
			certs.Stop()
			return nil
		})
		redisCfg.TLSConfig = certs.ServerTLSConfig()
	}

	redisSrv := redisserver.New(redisCfg, service.NewExecutor(store), metrics, slogger)
	if err := redisSrv.Start(c.Context); err != nil {
		hooks.Run()
		return fmt.Errorf("start RESP server: %w", err)
	}
	hooks.OnShutdown("redis", func(ctx context.Context) error {
		log.Info("shutting down RESP server")
		return redisSrv.Shutdown(ctx)
	})

	if cfg.Server.Admin.Addr != "" {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Ready:       redisSrv.Running,
			Connections: redisSrv.ConnCount,
			Metrics:     metrics.Handler(),
			Logger:      slogger,
			AllowList:   cfg.Server.Admin.AllowList,
		})
		adminSrv := httpserver.New(cfg.Server.Admin.Addr, router, slogger)
		if err := adminSrv.Start(); err != nil {
			hooks.Run()
			return fmt.Errorf("start admin server: %w", err)
		}
		hooks.OnShutdown("admin", func(ctx context.Context) error {
			log.Info("shutting down admin server")
			return adminSrv.Shutdown(ctx)
		})
	}

	if path := c.String("config"); path != "" {
		stop, err := watchConfig(path, opts, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			hooks.OnShutdown("config-watcher", func(context.Context) error {
				return stop()
			})
		}
	}

	log.Info("server started", "addr", redisSrv.Addr(), "tls_addr", redisSrv.TLSAddr())
	if err := hooks.WaitContext(c.Context); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newStore(cfg *config.ServerConfig) *memory.Store {
	dir, dbfilename, ok := cfg.Snapshot.Resolve()
	if !ok {
		return memory.New()
	}
	return memory.New(memory.WithSnapshotConfig(memory.SnapshotConfig{
		Dir:        dir,
		DBFilename: dbfilename,
	}))
}

// watchConfig reloads the configuration file on change and applies the
// settings that can change at runtime. Only log.level does so far.
func watchConfig(path string, opts []confloader.Option, log *slog.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(opts)
		if err != nil {
			log.Error("config reload failed, keeping current settings", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Error("config reload: set log level", "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w.Stop, nil
}
