// Package backend builds the configured Ledger Store.
package backend

import (
	"context"

	"saldo/internal/ledger"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready Ledger Store. Writer is nil for read-only stores.
type BackendResult struct {
	Source  ledger.TransactionSource
	Writer  ledger.TransactionWriter
	Cleanup CleanupFunc
}

// Close runs Cleanup when present.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything any backend may need.
type Config struct {
	Type BackendType

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresDSN string

	// BigQuery
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType names a Ledger Store implementation.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	BigQueryBackend BackendType = "bigquery"
	MongoBackend    BackendType = "mongo"
	SheetsBackend   BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, BigQueryBackend, MongoBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
