// Package postgres reads transactions from a Postgres ledger table:
//
//	CREATE TABLE ledger_transactions (
//	    seq         BIGSERIAL PRIMARY KEY,
//	    account_id  TEXT NOT NULL,
//	    id          TEXT NOT NULL,
//	    date        DATE NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    category    TEXT NOT NULL DEFAULT '',
//	    kind        TEXT NOT NULL,
//	    status      TEXT NOT NULL DEFAULT 'settled',
//	    amount      NUMERIC(18, 4) NOT NULL,
//	    UNIQUE (account_id, id)
//	);
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

const selectTransactions = `SELECT id, date, description, category, kind, status, amount
	FROM ledger_transactions
	WHERE account_id = $1 AND date BETWEEN $2 AND $3
	ORDER BY seq`

type Source struct {
	db *sql.DB
}

func New(db *sql.DB) *Source {
	return &Source{db: db}
}

// Open connects with a lib/pq DSN and checks the connection.
func Open(ctx context.Context, dsn string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, selectTransactions, accountID, r.Start.Time, r.End.Time)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx           core.Transaction
			date         time.Time
			kind, status string
			amount       decimal.Decimal
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Category, &kind, &status, &amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = core.DateOf(date)
		tx.Amount = amount
		if tx.Kind, err = core.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if tx.Status, err = core.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

var _ ledger.TransactionSource = (*Source)(nil)
