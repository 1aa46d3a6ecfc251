package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/server"
	"github.com/iudanet/authkeeper/internal/server/events"
	"github.com/iudanet/authkeeper/internal/server/storage/boltdb"
	"github.com/iudanet/authkeeper/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "Path to the SQLite database (overrides config)")
	sessionsPath := flag.String("sessions-db", "", "Path to the sessions database (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath, *addr, *dbPath, *sessionsPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "authkeeper-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, dbPath, sessionsPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags win over the file
	if addr != "" {
		cfg.Addr = addr
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if sessionsPath != "" {
		cfg.SessionsPath = sessionsPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting authkeeper server",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr))

	settings, err := config.NewStore(cfg.Settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open token database: %w", err)
	}
	defer db.Close()

	sessions, err := boltdb.New(ctx, cfg.SessionsPath)
	if err != nil {
		return fmt.Errorf("failed to open sessions database: %w", err)
	}
	defer sessions.Close()

	router := server.NewRouter(server.Config{
		Logger:   logger,
		Users:    db,
		Tokens:   db,
		Sessions: sessions,
		Settings: settings,
		Events:   events.NewLogSink(logger),
		Version:  Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go watchReload(ctx, logger, settings, configPath)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// watchReload re-reads the config file on SIGHUP and swaps the auth settings.
// A reload that fails validation is rejected and the running settings stay
// in effect. Listen address and storage paths require a restart.
func watchReload(ctx context.Context, logger *slog.Logger, settings *config.Store, configPath string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if configPath == "" {
				logger.Warn("reload requested but no config file was given")
				continue
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				logger.Error("config reload failed, keeping current settings", slog.Any("error", err))
				continue
			}
			if err := settings.Swap(cfg.Settings); err != nil {
				logger.Error("config reload rejected", slog.Any("error", err))
				continue
			}

			logger.Info("settings reloaded", slog.String("config", configPath))
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("AuthKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
