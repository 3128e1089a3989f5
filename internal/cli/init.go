// Package cli holds the initialization steps shared by cmd/registro and
// cmd/registro-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"registro/internal/config"
	"registro/internal/log"
	"registro/internal/store/sqlite"
)

// SetupLogger initializes structured logging and installs the logger as
// the process default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files
// are fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository at the given path, exiting the
// process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *sqlite.Repository {
	repo, err := sqlite.NewRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown sets up signal handling. The returned context is
// cancelled on SIGINT/SIGTERM; the channel closes once cleanup ran or
// the timeout expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()
		awaitCleanup(logger, timeout, cleanup)
		close(done)
	}()

	return ctx, done
}

// awaitCleanup runs cleanup and waits for it to finish. The timeout
// bounds the wait so a wedged cleanup cannot block process exit.
func awaitCleanup(logger *log.Logger, timeout time.Duration, cleanup func()) {
	cleanupDone := make(chan struct{})
	go func() {
		if cleanup != nil {
			cleanup()
		}
		close(cleanupDone)
	}()

	select {
	case <-cleanupDone:
		logger.Info("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}

// WaitForShutdown blocks until the context is cancelled and cleanup
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
