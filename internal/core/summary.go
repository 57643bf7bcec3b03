package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
	Flat     Direction = "flat"
)

type (
	// Direction is the movement of a metric between two periods.
	Direction string

	// Trend compares a metric with its value in the comparison period.
	// Delta is the relative change and is nil when the previous value is zero.
	Trend struct {
		Delta     *decimal.Decimal `json:"delta"`
		Direction Direction        `json:"direction"`
		Favorable bool             `json:"favorable"`
	}

	// MetricsSummary holds the dashboard figures. It is derived on every
	// request and never persisted.
	MetricsSummary struct {
		TotalBalance        decimal.Decimal `json:"total_balance"`
		PeriodIncome        decimal.Decimal `json:"period_income"`
		PeriodExpense       decimal.Decimal `json:"period_expense"`
		PendingCount        int             `json:"pending_count"`
		PendingIncomeCount  int             `json:"pending_income_count"`
		PendingExpenseCount int             `json:"pending_expense_count"`
		BalanceTrend        Trend           `json:"balance_trend"`
		IncomeTrend         Trend           `json:"income_trend"`
		ExpenseTrend        Trend           `json:"expense_trend"`
	}

	// DisplayTransaction is a listing row with raw values; formatting is
	// left to the presentation layer.
	DisplayTransaction struct {
		ID           string          `json:"id"`
		Description  string          `json:"description"`
		Category     string          `json:"category"`
		Date         Date            `json:"date"`
		Amount       decimal.Decimal `json:"amount"`
		Kind         Kind            `json:"kind"`
		Status       Status          `json:"status"`
		Inconsistent bool            `json:"inconsistent,omitempty"`
	}

	// InconsistencyWarning reports a transaction whose amount sign disagrees
	// with its kind. The transaction is still aggregated by kind.
	InconsistencyWarning struct {
		TransactionID string          `json:"transaction_id"`
		Kind          Kind            `json:"kind"`
		Amount        decimal.Decimal `json:"amount"`
	}

	// Dashboard is the full result of one aggregation.
	Dashboard struct {
		Period       DateRange              `json:"period"`
		Previous     DateRange              `json:"previous"`
		Summary      MetricsSummary         `json:"summary"`
		Transactions []DisplayTransaction   `json:"transactions"`
		Warnings     []InconsistencyWarning `json:"warnings"`
	}
)

func (w InconsistencyWarning) Error() string {
	return fmt.Sprintf("%s: transaction %s is %s with amount %s",
		ErrInconsistentTransaction, w.TransactionID, w.Kind, w.Amount.String())
}

func (w InconsistencyWarning) Is(target error) bool {
	return target == ErrInconsistentTransaction
}

// HasWarnings reports whether any transaction was aggregated despite an
// inconsistency.
func (d Dashboard) HasWarnings() bool {
	return len(d.Warnings) > 0
}

// Truncate keeps at most n listing rows; n <= 0 keeps all of them.
func (d *Dashboard) Truncate(n int) {
	if n > 0 && len(d.Transactions) > n {
		d.Transactions = d.Transactions[:n]
	}
}

func newDisplayTransaction(t Transaction) DisplayTransaction {
	return DisplayTransaction{
		ID:           t.ID,
		Description:  t.Description,
		Category:     t.Category,
		Date:         t.Date,
		Amount:       t.Amount,
		Kind:         t.Kind,
		Status:       t.Status,
		Inconsistent: !t.Consistent(),
	}
}
