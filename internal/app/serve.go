package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/camelCaseNick/dialect/internal/cli"
	"github.com/camelCaseNick/dialect/internal/config"
	"github.com/camelCaseNick/dialect/internal/locale"
	"github.com/camelCaseNick/dialect/internal/logging"
	"github.com/camelCaseNick/dialect/internal/provider"
	"github.com/camelCaseNick/dialect/internal/search"
	"github.com/camelCaseNick/dialect/internal/searchapi"
	"github.com/camelCaseNick/dialect/internal/settings"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (overrides DIALECT_HOST)")
	port := fs.Int("port", 0, "HTTP port (overrides DIALECT_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*host) != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	unlock, err := acquireInstanceLock(cfg.RuntimeDir)
	if err != nil {
		logger.Error().Err(err).Msg("another instance appears to be running")
		fmt.Fprintf(os.Stderr, "Failed to acquire instance lock: %v\n", err)
		return 1
	}
	defer func() {
		if unlockErr := unlock(); unlockErr != nil {
			logger.Warn().Err(unlockErr).Msg("releasing instance lock failed")
		}
	}()

	store := settings.New(logger)
	if path := strings.TrimSpace(cfg.SettingsFile); path != "" {
		if err := store.LoadFile(path); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("settings file rejected, continuing with defaults")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	messages := locale.FromEnv()
	transport := provider.NewHTTPTransport(cfg.RequestTimeout)
	orch := search.NewOrchestrator(store, transport, messages, logger)

	// Subscribed before the initial load so a settings change racing the
	// startup reload is never dropped.
	watcher := search.NewConfigWatcher(orch, store, logger)
	go watcher.Run(ctx)

	// The initial backend load runs in the background: the protocol surface
	// answers with the static hint until it completes.
	go orch.Reload(ctx)

	launcher := search.NewExecLauncher(cfg.AppPath, logger)
	adapter := search.NewAdapter(orch, launcher, messages, logger)

	srv := searchapi.NewServer(adapter, orch, logger, searchapi.Options{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})
	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("search provider exited with error")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}
