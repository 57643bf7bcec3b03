package backend

import (
	"context"
	"fmt"
	"log/slog"

	"saldo/internal/ledger/bigquery"
	"saldo/internal/ledger/memory"
	"saldo/internal/ledger/mongo"
	"saldo/internal/ledger/postgres"
	"saldo/internal/ledger/sheets"
	"saldo/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case BigQueryBackend:
		return f.createBigQueryBackend(ctx, config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory ledger: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Source: store, Writer: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Source: repo, Writer: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	src, err := postgres.Open(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres source: %w", err)
	}
	f.logger.Info("Initialized Postgres backend")
	return &BackendResult{Source: src, Cleanup: src.Close}, nil
}

func (f *DefaultFactory) createBigQueryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	src, err := bigquery.Open(ctx, config.BigQueryProject, config.BigQueryDataset, config.BigQueryTable)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize BigQuery source: %w", err)
	}
	f.logger.Info("Initialized BigQuery backend",
		"project", config.BigQueryProject,
		"dataset", config.BigQueryDataset,
		"table", config.BigQueryTable)
	return &BackendResult{Source: src, Cleanup: src.Close}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	src, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase, config.MongoCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB source: %w", err)
	}
	f.logger.Info("Initialized MongoDB backend",
		"database", config.MongoDatabase,
		"collection", config.MongoCollection)
	return &BackendResult{Source: src, Cleanup: src.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.NewFromEnv(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &BackendResult{Source: cli}, nil
}
