package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/services"
	"budgetbook/internal/storage"
	"budgetbook/internal/storage/gormstore"
	"budgetbook/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the ledger, connects AMQP when configured and wraps
// both in a LedgerService. Cleanup closes everything.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ledger, err := f.openLedger(config)
	if err != nil {
		return nil, err
	}
	if err := ledger.Ping(ctx); err != nil {
		ledger.Close()
		return nil, fmt.Errorf("ping %s backend: %w", config.Type, err)
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(ledger, amqpClient)
	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Ledger:  ledger,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) openLedger(config Config) (storage.Ledger, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite ledger", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		store, err := gormstore.Open(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		f.logger.Info("Opened postgres ledger")
		return store, nil
	case MemoryBackend:
		if config.CategoriesFile != "" {
			f.logger.Info("Opened memory ledger", "categories_file", config.CategoriesFile)
			return memory.NewFromFile(config.CategoriesFile), nil
		}
		f.logger.Info("Opened memory ledger with starter categories")
		return memory.NewStarter(), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
