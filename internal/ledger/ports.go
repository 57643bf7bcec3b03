// Package ledger defines the Ledger Store boundary: the ports the dashboard
// reads transactions through, and the CSV format used to seed and import
// ledgers.
package ledger

import (
	"context"
	"errors"

	"saldo/internal/core"
)

var (
	ErrDuplicateID  = errors.New("duplicate transaction id")
	ErrEmptyAccount = errors.New("empty account id")
)

// Ports for outbound adapters.
type (
	// TransactionSource returns the account's transactions dated inside r,
	// in ledger insertion order. Results are already authorized and carry
	// no duplicate ids.
	TransactionSource interface {
		FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error)
	}

	// TransactionWriter records a new transaction. Duplicate ids within an
	// account are rejected with ErrDuplicateID.
	TransactionWriter interface {
		Append(ctx context.Context, accountID string, tx core.Transaction) error
	}

	// AccountLister enumerates the accounts holding transactions, sorted.
	AccountLister interface {
		Accounts(ctx context.Context) ([]string, error)
	}

	// Store is a Ledger Store that can be both read and written.
	Store interface {
		TransactionSource
		TransactionWriter
	}
)
