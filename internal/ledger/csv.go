package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// CSVHeader is the column layout of seed and import files.
var CSVHeader = []string{"account", "id", "date", "description", "category", "kind", "status", "amount"}

// Record is one parsed CSV row.
type Record struct {
	AccountID   string
	Transaction core.Transaction
}

// ReadCSV parses a ledger CSV. The header row is required and columns are
// located by name, so extra or reordered columns are accepted. A missing
// account falls back to defaultAccount and a missing id gets a random UUID.
func ReadCSV(r io.Reader, defaultAccount string) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "kind", "amount"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx, err := parseRow(get, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		account := get(row, "account")
		if account == "" {
			account = defaultAccount
		}
		if account == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrEmptyAccount)
		}
		out = append(out, Record{AccountID: account, Transaction: tx})
	}
	return out, nil
}

func parseRow(get func([]string, string) string, row []string) (core.Transaction, error) {
	date, err := core.ParseDate(get(row, "date"))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(get(row, "kind"))
	if err != nil {
		return core.Transaction{}, err
	}
	status, err := core.ParseStatus(get(row, "status"))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(get(row, "amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", err, get(row, "amount"))
	}
	id := get(row, "id")
	if id == "" {
		id = uuid.NewString()
	}
	tx := core.Transaction{
		ID:          id,
		Description: get(row, "description"),
		Amount:      amount,
		Kind:        kind,
		Date:        date,
		Category:    get(row, "category"),
		Status:      status,
	}
	return tx, tx.Validate()
}

// WriteCSV writes records in the CSVHeader layout.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, rec := range records {
		tx := rec.Transaction
		if err := cw.Write([]string{
			rec.AccountID, tx.ID, tx.Date.String(), tx.Description, tx.Category,
			string(tx.Kind), string(tx.Status), tx.Amount.String(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
