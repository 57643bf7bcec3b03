package sheets

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func TestParseTransactionsPortugueseHeaders(t *testing.T) {
	values := [][]interface{}{
		{"Conta", "ID", "Data", "Descrição", "Categoria", "Tipo", "Status", "Valor"},
		{"acme", 1, "01/11/2024", "Salário - Empresa XYZ", "Salário", "receita", "", "R$ 8.500,00"},
		{"acme", 2, "2024-11-02", "Aluguel Escritório", "Aluguel", "despesa", "pendente", -2500.5},
		{"other", 3, "2024-11-03", "Venda", "Vendas", "receita", "", 1200},
		{},
		{"acme", 4, "2024-10-31", "Fora do período", "Vendas", "receita", "", 10},
	}
	got, err := parseTransactions(context.Background(), values, "acme", core.MonthRange(2024, 11))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %+v", len(got), got)
	}
	if got[0].ID != "1" || !got[0].Amount.Equal(decimal.NewFromInt(8500)) || got[0].Date.String() != "2024-11-01" {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if got[1].Kind != core.Expense || got[1].Status != core.Pending || !got[1].Amount.Equal(decimal.RequireFromString("-2500.5")) {
		t.Fatalf("unexpected second row %+v", got[1])
	}
}

func TestParseTransactionsWithoutAccountColumn(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Kind", "Amount", "Description"},
		{"2024-11-01", "income", "100", "a"},
		{"not a date", "income", "100", "skipped"},
		{"2024-11-02", "expense", "-40", "b"},
	}
	got, err := parseTransactions(context.Background(), values, "anyone", core.AllTime())
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].ID != "row-2" || got[1].ID != "row-4" {
		t.Fatalf("ids must follow sheet rows, got %q and %q", got[0].ID, got[1].ID)
	}
}

func TestParseTransactionsMissingHeader(t *testing.T) {
	values := [][]interface{}{{"Date", "Description"}}
	_, err := parseTransactions(context.Background(), values, "acme", core.AllTime())
	if err == nil || !strings.Contains(err.Error(), "unexpected ledger header") {
		t.Fatalf("expected header error, got %v", err)
	}
}

func TestParseTransactionsEmptySheet(t *testing.T) {
	got, err := parseTransactions(context.Background(), nil, "acme", core.AllTime())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}
