// Package bigquery reads transactions from a BigQuery ledger table with the
// columns account_id, id, date (DATE), description, category, kind, status,
// amount (NUMERIC) and seq (INT64, insertion order).
package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

// Row is the BigQuery representation of a ledger transaction.
type Row struct {
	AccountID   string              `bigquery:"account_id"`
	ID          string              `bigquery:"id"`
	Date        civil.Date          `bigquery:"date"`
	Description bigquery.NullString `bigquery:"description"`
	Category    bigquery.NullString `bigquery:"category"`
	Kind        string              `bigquery:"kind"`
	Status      bigquery.NullString `bigquery:"status"`
	Amount      *big.Rat            `bigquery:"amount"`
}

type Source struct {
	client *bigquery.Client
	table  string
}

// Open creates a client for project and reads from dataset.table.
func Open(ctx context.Context, project, dataset, table string, opts ...option.ClientOption) (*Source, error) {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Source{
		client: client,
		table:  fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *Source) Close() error {
	return s.client.Close()
}

func (s *Source) query() string {
	return `SELECT account_id, id, date, description, category, kind, status, amount
		FROM ` + s.table + `
		WHERE account_id = @account_id
		  AND date >= @start_date
		  AND date <= @end_date
		ORDER BY seq`
}

func (s *Source) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	q := s.client.Query(s.query())
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "start_date", Value: civil.DateOf(r.Start.Time)},
		{Name: "end_date", Value: civil.DateOf(r.End.Time)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var out []core.Transaction
	for {
		var row Row
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		tx, err := row.Transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Transaction converts the row to the core model.
func (r Row) Transaction() (core.Transaction, error) {
	if !r.Date.IsValid() {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w: %s", r.ID, core.ErrInvalidDate, r.Date)
	}
	if r.Amount == nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w: null amount", r.ID, core.ErrInvalidAmount)
	}
	kind, err := core.ParseKind(r.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	status, err := core.ParseStatus(r.Status.StringVal)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	// NUMERIC has nine fractional digits.
	amount, err := decimal.NewFromString(r.Amount.FloatString(9))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w: %v", r.ID, core.ErrInvalidAmount, err)
	}
	return core.Transaction{
		ID:          r.ID,
		Description: r.Description.StringVal,
		Amount:      amount,
		Kind:        kind,
		Date:        core.NewDate(r.Date.Year, int(r.Date.Month), r.Date.Day),
		Category:    r.Category.StringVal,
		Status:      status,
	}, nil
}

var _ ledger.TransactionSource = (*Source)(nil)
