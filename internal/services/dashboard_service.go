package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/ledger"
)

// maxConcurrentAccounts bounds the fetches started by Dashboards.
const maxConcurrentAccounts = 4

var ErrEmptyAccount = errors.New("account id is required")

// Query selects an account's dashboard. Limit caps the listing; zero keeps
// every row of the period.
type Query struct {
	AccountID string
	Period    core.DateRange
	Previous  core.DateRange
	Limit     int
}

// MonthQuery compares a calendar month with the month before it.
func MonthQuery(accountID string, year, month, limit int) Query {
	period := core.MonthRange(year, month)
	return Query{
		AccountID: accountID,
		Period:    period,
		Previous:  period.PreviousMonth(),
		Limit:     limit,
	}
}

// DashboardService reads an account's ledger and aggregates it
type DashboardService struct {
	source    ledger.TransactionSource
	publisher events.Publisher
	topic     string
}

// NewDashboardService builds the service. publisher may be nil, in which
// case inconsistency reports are only logged.
func NewDashboardService(source ledger.TransactionSource, publisher events.Publisher, topic string) *DashboardService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &DashboardService{source: source, publisher: publisher, topic: topic}
}

// Dashboard fetches the full history of the account, since the running
// balance covers every transaction, and aggregates it for q.
func (s *DashboardService) Dashboard(ctx context.Context, q Query) (core.Dashboard, error) {
	if q.AccountID == "" {
		return core.Dashboard{}, ErrEmptyAccount
	}
	start := time.Now()

	txs, err := s.source.FetchTransactions(ctx, q.AccountID, core.AllTime())
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("fetch transactions: %w", err)
	}

	d, err := core.Aggregate(txs, q.Period, q.Previous)
	if err != nil {
		return core.Dashboard{}, err
	}

	if d.HasWarnings() {
		s.reportWarnings(ctx, q, d.Warnings)
	}
	d.Truncate(q.Limit)

	slog.DebugContext(ctx, "Dashboard aggregated",
		"account_id", q.AccountID,
		"period", q.Period.String(),
		"transactions", len(txs),
		"warnings", len(d.Warnings),
		"duration", time.Since(start))
	return d, nil
}

// Dashboards aggregates q for every account concurrently. Results keep the
// order of accountIDs; the first failure cancels the rest.
func (s *DashboardService) Dashboards(ctx context.Context, accountIDs []string, q Query) ([]core.Dashboard, error) {
	out := make([]core.Dashboard, len(accountIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAccounts)

	for i, id := range accountIDs {
		g.Go(func() error {
			aq := q
			aq.AccountID = id
			d, err := s.Dashboard(ctx, aq)
			if err != nil {
				return fmt.Errorf("account %s: %w", id, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) reportWarnings(ctx context.Context, q Query, warnings []core.InconsistencyWarning) {
	for _, w := range warnings {
		slog.WarnContext(ctx, "Inconsistent transaction aggregated by kind",
			"account_id", q.AccountID,
			"transaction_id", w.TransactionID,
			"kind", string(w.Kind),
			"amount", w.Amount.String())
	}

	report := events.NewInconsistencyReport(q.AccountID, q.Period, warnings)
	if err := s.publisher.Publish(ctx, s.topic, report); err != nil {
		// Don't fail the request, the dashboard is still valid
		slog.ErrorContext(ctx, "Failed to publish inconsistency report",
			"account_id", q.AccountID,
			"report_id", report.ID,
			"error", err)
	}
}
