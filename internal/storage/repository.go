// Package storage is the SQLite Ledger Store. The schema lives in embedded
// migrations applied when the repository opens.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

const (
	insertTransaction = `INSERT INTO transactions
    (account_id, id, date, description, category, kind, status, amount)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectTransactions = `SELECT id, date, description, category, kind, status, amount
    FROM transactions
    WHERE account_id = ? AND date >= ? AND date <= ?
    ORDER BY seq`

	selectAccounts = `SELECT DISTINCT account_id FROM transactions ORDER BY account_id`
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.TransactionWriter.
func (r *SQLiteRepository) Append(ctx context.Context, accountID string, tx core.Transaction) error {
	if err := r.insert(ctx, r.db, accountID, tx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"account_id", accountID,
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"amount", tx.Amount.String(),
		"date", tx.Date.String())
	return nil
}

// Import appends every record in a single database transaction. Nothing is
// written when any record fails.
func (r *SQLiteRepository) Import(ctx context.Context, records []ledger.Record) (accounts []string, err error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dbtx.Rollback()
		}
	}()

	seen := map[string]struct{}{}
	for _, rec := range records {
		if err := r.insert(ctx, dbtx, rec.AccountID, rec.Transaction); err != nil {
			return nil, err
		}
		if _, ok := seen[rec.AccountID]; !ok {
			seen[rec.AccountID] = struct{}{}
			accounts = append(accounts, rec.AccountID)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Imported transactions into SQLite", "count", len(records), "accounts", len(accounts))
	return accounts, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) insert(ctx context.Context, db execer, accountID string, tx core.Transaction) error {
	if accountID == "" {
		return ledger.ErrEmptyAccount
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, insertTransaction,
		accountID, tx.ID, tx.Date.String(), tx.Description, tx.Category,
		string(tx.Kind), string(tx.Status), tx.Amount.String())
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("%w: %s", ledger.ErrDuplicateID, tx.ID)
		}
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

// FetchTransactions implements ledger.TransactionSource.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context, accountID string, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions, accountID, dr.Start.String(), dr.End.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx           core.Transaction
			date, kind   string
			status, amnt string
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Category, &kind, &status, &amnt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		tx.Kind = core.Kind(kind)
		tx.Status = core.Status(status)
		if tx.Amount, err = decimal.NewFromString(amnt); err != nil {
			return nil, fmt.Errorf("transaction %s: %w: %v", tx.ID, core.ErrInvalidAmount, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Accounts implements ledger.AccountLister.
func (r *SQLiteRepository) Accounts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

var (
	_ ledger.Store         = (*SQLiteRepository)(nil)
	_ ledger.AccountLister = (*SQLiteRepository)(nil)
)
