package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/ledger/memory"
)

type recordingPublisher struct {
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

type failingSource struct{ err error }

func (f failingSource) FetchTransactions(context.Context, string, core.DateRange) ([]core.Transaction, error) {
	return nil, f.err
}

func sampleStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	for _, tx := range memory.SampleTransactions() {
		if err := store.Append(context.Background(), "acc", tx); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	return store
}

func TestMonthQuery(t *testing.T) {
	q := MonthQuery("acc", 2024, 1, 5)

	if q.Period != core.MonthRange(2024, 1) {
		t.Errorf("Period = %s", q.Period)
	}
	if q.Previous != core.MonthRange(2023, 12) {
		t.Errorf("Previous = %s, want December 2023", q.Previous)
	}
	if q.AccountID != "acc" || q.Limit != 5 {
		t.Errorf("q = %+v", q)
	}
}

func TestDashboardService_Dashboard(t *testing.T) {
	svc := NewDashboardService(sampleStore(t), nil, "")

	d, err := svc.Dashboard(context.Background(), MonthQuery("acc", 2024, 11, 2))
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if !d.Summary.TotalBalance.Equal(decimal.NewFromInt(9850)) {
		t.Errorf("TotalBalance = %s, want 9850", d.Summary.TotalBalance)
	}
	if len(d.Transactions) != 2 {
		t.Fatalf("listing has %d rows, want limit 2", len(d.Transactions))
	}
	if d.Transactions[0].ID != "5" || d.Transactions[1].ID != "4" {
		t.Errorf("listing = %s, %s, want newest first 5, 4", d.Transactions[0].ID, d.Transactions[1].ID)
	}
	if !d.Summary.PeriodIncome.Equal(decimal.NewFromInt(13200)) {
		t.Errorf("PeriodIncome = %s, want 13200 before truncation", d.Summary.PeriodIncome)
	}
}

func TestDashboardService_UnlimitedListing(t *testing.T) {
	svc := NewDashboardService(sampleStore(t), nil, "")

	d, err := svc.Dashboard(context.Background(), MonthQuery("acc", 2024, 11, 0))
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(d.Transactions) != len(memory.SampleTransactions()) {
		t.Errorf("listing has %d rows, want all", len(d.Transactions))
	}
}

func TestDashboardService_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewDashboardService(sampleStore(t), nil, "").Dashboard(ctx, Query{}); !errors.Is(err, ErrEmptyAccount) {
		t.Errorf("empty account error = %v", err)
	}

	boom := errors.New("store down")
	if _, err := NewDashboardService(failingSource{boom}, nil, "").Dashboard(ctx, MonthQuery("acc", 2024, 11, 0)); !errors.Is(err, boom) {
		t.Errorf("fetch error = %v, want wrapped %v", err, boom)
	}

	q := MonthQuery("acc", 2024, 11, 0)
	q.Previous = q.Period
	if _, err := NewDashboardService(sampleStore(t), nil, "").Dashboard(ctx, q); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("overlapping periods error = %v, want ErrInvalidPeriod", err)
	}
}

func TestDashboardService_PublishesInconsistencies(t *testing.T) {
	ctx := context.Background()
	store := sampleStore(t)
	if err := store.Append(ctx, "acc", core.Transaction{
		ID:     "refund",
		Date:   core.NewDate(2024, 11, 6),
		Amount: decimal.NewFromInt(-50),
		Kind:   core.Income,
		Status: core.Settled,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewDashboardService(store, pub, "ledger.inconsistencies")

	d, err := svc.Dashboard(ctx, MonthQuery("acc", 2024, 11, 0))
	if err != nil {
		t.Fatalf("Dashboard() error = %v, publish failures must not fail the request", err)
	}
	if len(d.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one", d.Warnings)
	}
	if len(pub.events) != 1 || pub.topics[0] != "ledger.inconsistencies" {
		t.Fatalf("published %d events to %v", len(pub.events), pub.topics)
	}
	report, ok := pub.events[0].(events.InconsistencyReport)
	if !ok {
		t.Fatalf("event type = %T", pub.events[0])
	}
	if report.AccountID != "acc" || report.Warnings[0].TransactionID != "refund" {
		t.Errorf("report = %+v", report)
	}
}

func TestDashboardService_NoReportWithoutWarnings(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewDashboardService(sampleStore(t), pub, "t")

	if _, err := svc.Dashboard(context.Background(), MonthQuery("acc", 2024, 11, 0)); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events, want none", len(pub.events))
	}
}

func TestDashboardService_Dashboards(t *testing.T) {
	ctx := context.Background()
	store := sampleStore(t)
	if err := store.Append(ctx, "other", core.Transaction{
		ID: "1", Date: core.NewDate(2024, 11, 3), Amount: decimal.NewFromInt(100), Kind: core.Income, Status: core.Settled,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	svc := NewDashboardService(store, nil, "")

	ds, err := svc.Dashboards(ctx, []string{"acc", "other"}, MonthQuery("", 2024, 11, 0))
	if err != nil {
		t.Fatalf("Dashboards() error = %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("got %d dashboards", len(ds))
	}
	if !ds[0].Summary.TotalBalance.Equal(decimal.NewFromInt(9850)) || !ds[1].Summary.TotalBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balances = %s, %s", ds[0].Summary.TotalBalance, ds[1].Summary.TotalBalance)
	}

	if _, err := svc.Dashboards(ctx, []string{"acc", ""}, MonthQuery("", 2024, 11, 0)); !errors.Is(err, ErrEmptyAccount) {
		t.Errorf("Dashboards() with empty account error = %v", err)
	}
}
