package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

// DefaultAccount owns the built-in sample ledger.
const DefaultAccount = "default"

// SeedFile is the CSV looked up in the data directory.
const SeedFile = "seed_transactions.csv"

// Store is an in-memory Ledger Store safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	accounts map[string][]core.Transaction
	ids      map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		accounts: map[string][]core.Transaction{},
		ids:      map[string]map[string]struct{}{},
	}
}

// NewFromFiles seeds the store from base/seed_transactions.csv. When the
// file is missing or empty the sample ledger is loaded for DefaultAccount.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		s.seedSample()
		return s, nil
	}
	defer f.Close()

	records, err := ledger.ReadCSV(f, DefaultAccount)
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if len(records) == 0 {
		s.seedSample()
		return s, nil
	}
	for _, rec := range records {
		if err := s.Append(context.Background(), rec.AccountID, rec.Transaction); err != nil {
			return nil, fmt.Errorf("seed %s: %w", rec.Transaction.ID, err)
		}
	}
	slog.Info("Seeded memory ledger", "path", path, "transactions", len(records))
	return s, nil
}

// Append stores the transaction at the end of the account's ledger.
func (s *Store) Append(_ context.Context, accountID string, tx core.Transaction) error {
	if accountID == "" {
		return ledger.ErrEmptyAccount
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.ids[accountID]
	if !ok {
		ids = map[string]struct{}{}
		s.ids[accountID] = ids
	}
	if _, dup := ids[tx.ID]; dup {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateID, tx.ID)
	}
	ids[tx.ID] = struct{}{}
	s.accounts[accountID] = append(s.accounts[accountID], tx)
	return nil
}

// FetchTransactions returns a copy of the account's transactions inside r.
// Unknown accounts have an empty ledger.
func (s *Store) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.accounts[accountID]))
	for _, tx := range s.accounts[accountID] {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Accounts lists the accounts holding at least one transaction.
func (s *Store) Accounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) seedSample() {
	for _, tx := range SampleTransactions() {
		_ = s.Append(context.Background(), DefaultAccount, tx)
	}
}

// SampleTransactions is the demonstration ledger shown when no seed file
// is configured.
func SampleTransactions() []core.Transaction {
	row := func(id, desc string, amount int64, kind core.Kind, day int, cat string) core.Transaction {
		return core.Transaction{
			ID:          id,
			Description: desc,
			Amount:      decimal.NewFromInt(amount),
			Kind:        kind,
			Date:        core.NewDate(2024, 11, day),
			Category:    cat,
			Status:      core.Settled,
		}
	}
	return []core.Transaction{
		row("1", "Salário - Empresa XYZ", 8500, core.Income, 1, "Salário"),
		row("2", "Aluguel Escritório", -2500, core.Expense, 2, "Aluguel"),
		row("3", "Venda de Produto", 1200, core.Income, 3, "Vendas"),
		row("4", "Fornecedor ABC", -850, core.Expense, 4, "Fornecedores"),
		row("5", "Consultoria Cliente", 3500, core.Income, 5, "Serviços"),
	}
}

var (
	_ ledger.Store         = (*Store)(nil)
	_ ledger.AccountLister = (*Store)(nil)
)
