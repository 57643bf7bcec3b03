package core

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func tx(id string, amount int64, kind Kind, d Date, status Status) Transaction {
	return Transaction{
		ID:          id,
		Description: "tx " + id,
		Amount:      decimal.NewFromInt(amount),
		Kind:        kind,
		Date:        d,
		Category:    "Geral",
		Status:      status,
	}
}

func novemberSample() []Transaction {
	return []Transaction{
		tx("1", 8500, Income, NewDate(2024, 11, 1), Settled),
		tx("2", -2500, Expense, NewDate(2024, 11, 2), Settled),
		tx("3", 1200, Income, NewDate(2024, 11, 3), Pending),
	}
}

func mustAggregate(t *testing.T, txs []Transaction, period, previous DateRange) Dashboard {
	t.Helper()
	d, err := Aggregate(txs, period, previous)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s = %s, want %d", name, got, want)
	}
}

func TestAggregateSample(t *testing.T) {
	d := mustAggregate(t, novemberSample(), MonthRange(2024, 11), MonthRange(2024, 10))
	s := d.Summary

	assertDecimal(t, "TotalBalance", s.TotalBalance, 7200)
	assertDecimal(t, "PeriodIncome", s.PeriodIncome, 9700)
	assertDecimal(t, "PeriodExpense", s.PeriodExpense, 2500)
	if s.PendingCount != 1 || s.PendingIncomeCount != 1 || s.PendingExpenseCount != 0 {
		t.Fatalf("pending counts = %d/%d/%d, want 1/1/0",
			s.PendingCount, s.PendingIncomeCount, s.PendingExpenseCount)
	}
	if len(d.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings)
	}
}

func TestAggregateListingIsNewestFirst(t *testing.T) {
	d := mustAggregate(t, novemberSample(), MonthRange(2024, 11), MonthRange(2024, 10))
	var ids []string
	for _, row := range d.Transactions {
		ids = append(ids, row.ID)
	}
	if !reflect.DeepEqual(ids, []string{"3", "2", "1"}) {
		t.Fatalf("listing order = %v, want [3 2 1]", ids)
	}
}

func TestAggregateListingKeepsInputOrderOnSameDate(t *testing.T) {
	day := NewDate(2024, 11, 5)
	txs := []Transaction{
		tx("a", 10, Income, day, Settled),
		tx("b", -5, Expense, NewDate(2024, 11, 1), Settled),
		tx("c", 20, Income, day, Settled),
		tx("d", -7, Expense, day, Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	var ids []string
	for _, row := range d.Transactions {
		ids = append(ids, row.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c", "d", "b"}) {
		t.Fatalf("listing order = %v, want [a c d b]", ids)
	}
}

func TestAggregateListingOnlyCoversCurrentPeriod(t *testing.T) {
	txs := append(novemberSample(),
		tx("old", 300, Income, NewDate(2024, 10, 10), Settled),
		tx("future", -40, Expense, NewDate(2024, 12, 1), Pending),
	)
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	if len(d.Transactions) != 3 {
		t.Fatalf("expected 3 rows in the listing, got %d", len(d.Transactions))
	}
	// Balance and pending counts are not period scoped.
	assertDecimal(t, "TotalBalance", d.Summary.TotalBalance, 7460)
	if d.Summary.PendingCount != 2 || d.Summary.PendingExpenseCount != 1 {
		t.Fatalf("pending counts = %d/%d, want 2/1",
			d.Summary.PendingCount, d.Summary.PendingExpenseCount)
	}
}

func TestAggregateNegativeIncomeCountsByKind(t *testing.T) {
	txs := []Transaction{
		tx("1", 8500, Income, NewDate(2024, 11, 1), Settled),
		tx("refund", -50, Income, NewDate(2024, 11, 4), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))

	// The raw -50 is added to income: neither skipped (8500) nor flipped (8550).
	assertDecimal(t, "PeriodIncome", d.Summary.PeriodIncome, 8450)
	assertDecimal(t, "TotalBalance", d.Summary.TotalBalance, 8450)
	assertDecimal(t, "PeriodExpense", d.Summary.PeriodExpense, 0)

	if len(d.Warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(d.Warnings))
	}
	w := d.Warnings[0]
	if w.TransactionID != "refund" || w.Kind != Income {
		t.Fatalf("unexpected warning %+v", w)
	}
	if !errors.Is(w, ErrInconsistentTransaction) {
		t.Fatalf("warning must match ErrInconsistentTransaction")
	}
	if !d.Transactions[0].Inconsistent {
		t.Fatalf("listing row for refund must be flagged inconsistent")
	}
}

func TestAggregateOnlyNegativeIncomeFloorsAtZero(t *testing.T) {
	txs := []Transaction{
		tx("refund", -50, Income, NewDate(2024, 11, 5), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))

	// -50 lowers income below zero, it must never add 50.
	assertDecimal(t, "PeriodIncome", d.Summary.PeriodIncome, 0)
	assertDecimal(t, "TotalBalance", d.Summary.TotalBalance, -50)
	if len(d.Warnings) != 1 || d.Warnings[0].TransactionID != "refund" {
		t.Fatalf("expected one warning for refund, got %v", d.Warnings)
	}
	if tr := d.Summary.IncomeTrend; tr.Direction != Flat || tr.Delta != nil {
		t.Fatalf("income trend = %+v, want flat without delta", tr)
	}
}

func TestAggregateNegativeIncomeLowersIncomeTotal(t *testing.T) {
	one := []Transaction{
		tx("1", 30, Income, NewDate(2024, 11, 1), Settled),
		tx("r1", -20, Income, NewDate(2024, 11, 2), Settled),
	}
	two := append(append([]Transaction{}, one...), tx("r2", -20, Income, NewDate(2024, 11, 3), Settled))

	a := mustAggregate(t, one, MonthRange(2024, 11), MonthRange(2024, 10))
	b := mustAggregate(t, two, MonthRange(2024, 11), MonthRange(2024, 10))
	assertDecimal(t, "PeriodIncome", a.Summary.PeriodIncome, 10)
	assertDecimal(t, "PeriodIncome", b.Summary.PeriodIncome, 0)
	if len(b.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %d", len(b.Warnings))
	}
}

func TestAggregatePositiveExpenseIsWarned(t *testing.T) {
	txs := []Transaction{
		tx("1", -300, Expense, NewDate(2024, 11, 1), Settled),
		tx("2", 100, Expense, NewDate(2024, 11, 2), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	assertDecimal(t, "PeriodExpense", d.Summary.PeriodExpense, 200)
	assertDecimal(t, "PeriodIncome", d.Summary.PeriodIncome, 0)
	if len(d.Warnings) != 1 || d.Warnings[0].TransactionID != "2" {
		t.Fatalf("expected a warning for transaction 2, got %v", d.Warnings)
	}
}

func TestAggregateZeroAmountIsNeitherIncomeNorExpense(t *testing.T) {
	txs := []Transaction{
		tx("z", 0, Expense, NewDate(2024, 11, 1), Pending),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	assertDecimal(t, "PeriodIncome", d.Summary.PeriodIncome, 0)
	assertDecimal(t, "PeriodExpense", d.Summary.PeriodExpense, 0)
	if len(d.Warnings) != 0 {
		t.Fatalf("zero amount must not be reported, got %v", d.Warnings)
	}
	if len(d.Transactions) != 1 || d.Summary.PendingCount != 1 {
		t.Fatalf("zero amount transaction must still be listed and counted")
	}
	if d.Summary.ExpenseTrend.Direction != Flat {
		t.Fatalf("expense trend = %s, want flat", d.Summary.ExpenseTrend.Direction)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	d := mustAggregate(t, nil, MonthRange(2024, 11), MonthRange(2024, 10))
	s := d.Summary
	if !s.TotalBalance.IsZero() || !s.PeriodIncome.IsZero() || !s.PeriodExpense.IsZero() {
		t.Fatalf("expected zeroed summary, got %+v", s)
	}
	if s.PendingCount != 0 {
		t.Fatalf("expected no pending transactions")
	}
	if d.Transactions == nil || len(d.Transactions) != 0 {
		t.Fatalf("expected an empty, non-nil listing")
	}
	for name, tr := range map[string]Trend{"balance": s.BalanceTrend, "income": s.IncomeTrend, "expense": s.ExpenseTrend} {
		if tr.Direction != Flat || tr.Delta != nil {
			t.Fatalf("%s trend = %+v, want flat with no delta", name, tr)
		}
	}
}

func TestAggregateIncomeTrendFromZeroHasNoDelta(t *testing.T) {
	txs := []Transaction{
		tx("1", 500, Income, NewDate(2024, 11, 10), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	tr := d.Summary.IncomeTrend
	if tr.Direction != Increase {
		t.Fatalf("direction = %s, want increase", tr.Direction)
	}
	if tr.Delta != nil {
		t.Fatalf("delta = %s, want nil", tr.Delta)
	}
	if !tr.Favorable {
		t.Fatalf("income increase must be favorable")
	}
}

func TestAggregateTrends(t *testing.T) {
	txs := []Transaction{
		tx("o1", 1000, Income, NewDate(2024, 10, 5), Settled),
		tx("o2", -500, Expense, NewDate(2024, 10, 6), Settled),
		tx("n1", 1200, Income, NewDate(2024, 11, 5), Settled),
		tx("n2", -400, Expense, NewDate(2024, 11, 6), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	s := d.Summary

	cases := []struct {
		name      string
		trend     Trend
		delta     string
		direction Direction
		favorable bool
	}{
		// closing balance 500 at the end of October, 1300 now
		{"balance", s.BalanceTrend, "1.6", Increase, true},
		{"income", s.IncomeTrend, "0.2", Increase, true},
		{"expense", s.ExpenseTrend, "-0.2", Decrease, true},
	}
	for _, tc := range cases {
		if tc.trend.Delta == nil {
			t.Fatalf("%s: expected a delta", tc.name)
		}
		if !tc.trend.Delta.Equal(decimal.RequireFromString(tc.delta)) {
			t.Fatalf("%s: delta = %s, want %s", tc.name, tc.trend.Delta, tc.delta)
		}
		if tc.trend.Direction != tc.direction || tc.trend.Favorable != tc.favorable {
			t.Fatalf("%s: got %s/%v, want %s/%v", tc.name,
				tc.trend.Direction, tc.trend.Favorable, tc.direction, tc.favorable)
		}
	}
}

func TestAggregateExpenseIncreaseIsUnfavorable(t *testing.T) {
	txs := []Transaction{
		tx("o", -100, Expense, NewDate(2024, 10, 5), Settled),
		tx("n", -150, Expense, NewDate(2024, 11, 5), Settled),
	}
	d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	tr := d.Summary.ExpenseTrend
	if tr.Direction != Increase || tr.Favorable {
		t.Fatalf("expense trend = %+v, want unfavorable increase", tr)
	}
}

func TestAggregateBalanceTrendFromNegativeBalance(t *testing.T) {
	cases := []struct {
		name      string
		now       int64
		delta     string
		direction Direction
		favorable bool
	}{
		// (cur - prev) / prev with prev = -100
		{"recovering", 50, "-0.5", Increase, true},
		{"sinking", -50, "0.5", Decrease, false},
	}
	for _, tc := range cases {
		kind := Income
		if tc.now < 0 {
			kind = Expense
		}
		txs := []Transaction{
			tx("o", -100, Expense, NewDate(2024, 10, 5), Settled),
			tx("n", tc.now, kind, NewDate(2024, 11, 5), Settled),
		}
		d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
		tr := d.Summary.BalanceTrend
		if tr.Delta == nil || !tr.Delta.Equal(decimal.RequireFromString(tc.delta)) {
			t.Fatalf("%s: delta = %v, want %s", tc.name, tr.Delta, tc.delta)
		}
		if tr.Direction != tc.direction || tr.Favorable != tc.favorable {
			t.Fatalf("%s: got %s/%v, want %s/%v", tc.name,
				tr.Direction, tr.Favorable, tc.direction, tc.favorable)
		}
	}
}

func TestAggregateRejectsInvalidPeriods(t *testing.T) {
	nov := MonthRange(2024, 11)
	cases := []struct {
		name             string
		period, previous DateRange
	}{
		{"reversed period", NewRange(NewDate(2024, 11, 30), NewDate(2024, 11, 1)), MonthRange(2024, 10)},
		{"reversed previous", nov, NewRange(NewDate(2024, 10, 31), NewDate(2024, 10, 1))},
		{"previous after period", nov, MonthRange(2024, 12)},
		{"overlapping", nov, NewRange(NewDate(2024, 10, 20), NewDate(2024, 11, 5))},
	}
	for _, tc := range cases {
		if _, err := Aggregate(novemberSample(), tc.period, tc.previous); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%s: expected ErrInvalidPeriod, got %v", tc.name, err)
		}
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	txs := randomTransactions(rand.New(rand.NewSource(7)), 200)
	first := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	second := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two aggregations of the same input differ")
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	txs := novemberSample()
	before := make([]Transaction, len(txs))
	copy(before, txs)
	mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))
	if !reflect.DeepEqual(before, txs) {
		t.Fatalf("input collection was modified")
	}
}

func TestAggregateBalanceAndMagnitudeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		txs := randomTransactions(r, r.Intn(60))
		d := mustAggregate(t, txs, MonthRange(2024, 11), MonthRange(2024, 10))

		sum := decimal.Zero
		for _, x := range txs {
			sum = sum.Add(x.Amount)
		}
		if !d.Summary.TotalBalance.Equal(sum) {
			t.Fatalf("round %d: balance %s, want %s", round, d.Summary.TotalBalance, sum)
		}
		if d.Summary.PeriodIncome.IsNegative() || d.Summary.PeriodExpense.IsNegative() {
			t.Fatalf("round %d: negative period totals %s/%s", round,
				d.Summary.PeriodIncome, d.Summary.PeriodExpense)
		}
		if d.Summary.PendingIncomeCount+d.Summary.PendingExpenseCount != d.Summary.PendingCount {
			t.Fatalf("round %d: pending sub-counts do not add up", round)
		}
	}
}

// randomTransactions spreads transactions over September to December 2024,
// including some with a sign that disagrees with their kind.
func randomTransactions(r *rand.Rand, n int) []Transaction {
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		kind := Income
		if r.Intn(2) == 0 {
			kind = Expense
		}
		cents := r.Int63n(1_000_000)
		if kind == Expense {
			cents = -cents
		}
		if r.Intn(10) == 0 {
			cents = -cents
		}
		status := Settled
		if r.Intn(4) == 0 {
			status = Pending
		}
		out = append(out, Transaction{
			ID:     decimal.NewFromInt(int64(i)).String(),
			Amount: decimal.New(cents, -2),
			Kind:   kind,
			Date:   NewDate(2024, 9+r.Intn(4), 1+r.Intn(28)),
			Status: status,
		})
	}
	return out
}
