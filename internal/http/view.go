package http

import (
	"fmt"
	"net/url"
	"strconv"

	"saldo/internal/core"
	"saldo/internal/format"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

type (
	pageView struct {
		Title string
	}

	cardView struct {
		Title     string
		Value     string
		Detail    string
		Trend     bool
		Favorable bool
	}

	rowView struct {
		Description string
		Category    string
		Date        string
		Amount      string
		Status      string
		Income      bool
		Pending     bool
	}

	dashboardView struct {
		Title       string
		Account     string
		PeriodLabel string
		PrevLink    string
		NextLink    string
		Warnings    int
		Cards       []cardView
		Rows        []rowView
	}
)

// newDashboardView formats d for the dashboard template.
func newDashboardView(d core.Dashboard, f format.Formatter, account string, month monthParams) dashboardView {
	s := d.Summary
	v := dashboardView{
		Title:       "Dashboard",
		Account:     account,
		PeriodLabel: fmt.Sprintf("%s de %d", monthNames[month.Month-1], month.Year),
		PrevLink:    dashboardLink(account, month.shift(-1)),
		NextLink:    dashboardLink(account, month.shift(1)),
		Warnings:    len(d.Warnings),
		Cards: []cardView{
			trendCard("Saldo Total", f.Money(s.TotalBalance), s.BalanceTrend, f),
			trendCard("Receitas do Período", f.Money(s.PeriodIncome), s.IncomeTrend, f),
			trendCard("Despesas do Período", f.Money(s.PeriodExpense), s.ExpenseTrend, f),
			{
				Title:  "Transações Pendentes",
				Value:  strconv.Itoa(s.PendingCount),
				Detail: fmt.Sprintf("%d receitas e %d despesas", s.PendingIncomeCount, s.PendingExpenseCount),
			},
		},
		Rows: make([]rowView, 0, len(d.Transactions)),
	}
	for _, t := range d.Transactions {
		v.Rows = append(v.Rows, rowView{
			Description: t.Description,
			Category:    t.Category,
			Date:        f.Date(t.Date),
			Amount:      f.Signed(t.Amount, t.Kind),
			Status:      f.Status(t.Status),
			Income:      t.Kind == core.Income,
			Pending:     t.Status == core.Pending,
		})
	}
	return v
}

func trendCard(title, value string, t core.Trend, f format.Formatter) cardView {
	return cardView{
		Title:     title,
		Value:     value,
		Detail:    f.TrendText(t),
		Trend:     true,
		Favorable: t.Favorable,
	}
}

func dashboardLink(account string, m monthParams) string {
	q := url.Values{}
	q.Set("account", account)
	q.Set("year", strconv.Itoa(m.Year))
	q.Set("month", strconv.Itoa(m.Month))
	return "/dashboard?" + q.Encode()
}
