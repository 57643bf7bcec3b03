package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregate computes the dashboard for period, comparing against previous.
//
// The running balance covers every transaction regardless of period. Income
// and expense are scoped to period, pending counts to the whole collection.
// Kind is authoritative: an income with a negative amount still adds its raw
// amount to income, and is reported in Dashboard.Warnings.
//
// Aggregate holds no state and is safe for concurrent use. It fails only
// with ErrInvalidPeriod.
func Aggregate(txs []Transaction, period, previous DateRange) (Dashboard, error) {
	if err := validateComparison(period, previous); err != nil {
		return Dashboard{}, err
	}

	s := MetricsSummary{TotalBalance: decimal.Zero}
	prevBalance, prevIncome, prevExpense := decimal.Zero, decimal.Zero, decimal.Zero
	incomeSum, expenseSum := decimal.Zero, decimal.Zero
	listing := make([]DisplayTransaction, 0)
	warnings := make([]InconsistencyWarning, 0)

	for _, t := range txs {
		s.TotalBalance = s.TotalBalance.Add(t.Amount)
		if !t.Date.After(previous.End.Time) {
			prevBalance = prevBalance.Add(t.Amount)
		}

		if !t.Consistent() {
			warnings = append(warnings, InconsistencyWarning{
				TransactionID: t.ID,
				Kind:          t.Kind,
				Amount:        t.Amount,
			})
		}

		if t.Status == Pending {
			s.PendingCount++
			switch t.Kind {
			case Income:
				s.PendingIncomeCount++
			case Expense:
				s.PendingExpenseCount++
			}
		}

		switch {
		case period.Contains(t.Date):
			listing = append(listing, newDisplayTransaction(t))
			switch t.Kind {
			case Income:
				incomeSum = incomeSum.Add(t.Amount)
			case Expense:
				expenseSum = expenseSum.Add(t.Amount)
			}
		case previous.Contains(t.Date):
			switch t.Kind {
			case Income:
				prevIncome = prevIncome.Add(t.Amount)
			case Expense:
				prevExpense = prevExpense.Add(t.Amount)
			}
		}
	}
	// Income keeps raw amounts and is floored at zero; expense is a magnitude.
	s.PeriodIncome = decimal.Max(incomeSum, decimal.Zero)
	s.PeriodExpense = expenseSum.Abs()

	s.BalanceTrend = compare(s.TotalBalance, prevBalance, Increase)
	s.IncomeTrend = compare(s.PeriodIncome, decimal.Max(prevIncome, decimal.Zero), Increase)
	s.ExpenseTrend = compare(s.PeriodExpense, prevExpense.Abs(), Decrease)

	sort.SliceStable(listing, func(i, j int) bool {
		return listing[i].Date.After(listing[j].Date.Time)
	})

	return Dashboard{
		Period:       period,
		Previous:     previous,
		Summary:      s,
		Transactions: listing,
		Warnings:     warnings,
	}, nil
}

// compare builds the trend from prev to cur. Delta is relative to prev and
// Direction follows the value, so a negative prev can give a negative delta
// on an increase. good is the direction shown as favourable for the metric.
func compare(cur, prev decimal.Decimal, good Direction) Trend {
	var t Trend
	if prev.IsZero() {
		t.Direction = Flat
		if !cur.IsZero() {
			t.Direction = Increase
		}
	} else {
		delta := cur.Sub(prev).Div(prev)
		t.Delta = &delta
		switch cur.Cmp(prev) {
		case 1:
			t.Direction = Increase
		case -1:
			t.Direction = Decrease
		default:
			t.Direction = Flat
		}
	}
	t.Favorable = t.Direction == Flat || t.Direction == good
	return t
}
