package backend

import (
	"context"
	"fmt"

	"finadvisor/internal/amqp"
	"finadvisor/internal/log"
	"finadvisor/internal/services"
	"finadvisor/internal/store/memory"
	"finadvisor/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachEvents(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	db, err := sqlite.Open(config.SQLiteDBPath,
		sqlite.WithRules(config.Rules()),
		sqlite.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"read_only", config.ReadOnly)

	return &BackendResult{
		Store:   db,
		Cleanup: db.Close,
		Ready:   db.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	s := memory.NewFromDir(dataDir, memory.WithRules(config.Rules()))

	f.logger.Info("Initialized memory backend",
		"data_directory", dataDir,
		"read_only", config.ReadOnly)

	return &BackendResult{
		Store: s,
		Ready: func(context.Context) error { return nil },
	}
}

// attachEvents wraps the store so committed transaction writes are
// published. A broker that cannot be reached leaves events disabled.
func (f *DefaultFactory) attachEvents(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Store = services.WithEvents(result.Store, client, f.logger)
	result.EventsEnabled = true

	cleanup := result.Cleanup
	result.Cleanup = func() error {
		if err := client.Close(); err != nil {
			f.logger.Warn("Failed to close AMQP client", log.FieldError, err.Error())
		}
		if cleanup != nil {
			return cleanup()
		}
		return nil
	}
}
