package backend

import (
	"context"
	"fmt"

	"registro/internal/amqp"
	"registro/internal/log"
	"registro/internal/store/memory"
	"registro/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Component(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional. A broker that is down at startup disables change
	// events instead of failing the server.
	var notifier *amqp.Client
	if config.AMQPURL != "" {
		notifier, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
			notifier = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", notifier != nil)

	cleanup := func() error {
		if notifier != nil {
			if err := notifier.Close(); err != nil {
				f.logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		return repo.Close()
	}

	return &Result{
		Repository: repo,
		Notifier:   notifier,
		Cleanup:    cleanup,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(Config) (*Result, error) {
	f.logger.Info("Initialized memory backend")

	return &Result{
		Repository: memory.New(),
		Cleanup:    nil,
	}, nil
}
