// Package sheets reads a ledger kept in a Google Sheets tab. The first row
// holds headers, in English or Portuguese, and columns are located by name.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

// Column header aliases, matched case-insensitively.
var columns = map[string][]string{
	"account":     {"account", "conta"},
	"id":          {"id"},
	"date":        {"date", "data"},
	"description": {"description", "descrição", "descricao"},
	"category":    {"category", "categoria"},
	"kind":        {"kind", "tipo"},
	"status":      {"status", "situação", "situacao"},
	"amount":      {"amount", "valor"},
}

// Brazilian spreadsheets usually render dates as dd/mm/yyyy.
const localDate = "02/01/2006"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv builds a read-only client for spreadsheetID!sheetName with
// service account credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if sheetName == "" {
		sheetName = "Transactions"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseTransactions(ctx, resp.Values, accountID, r)
}

// parseTransactions converts a values matrix into the account's transactions
// dated inside r. Without an account column the sheet is a single-account
// ledger and every row matches. Rows that cannot be parsed are skipped and
// logged; rows without an id are numbered after their sheet row.
func parseTransactions(ctx context.Context, values [][]interface{}, accountID string, r core.DateRange) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	col := map[string]int{}
	for name, aliases := range columns {
		col[name] = indexOfAny(headers, aliases)
	}
	var missing []string
	for _, required := range []string{"date", "kind", "amount"} {
		if col[required] == -1 {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Transaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		if col["account"] != -1 && !strings.EqualFold(safeGet(row, col["account"]), accountID) {
			continue
		}
		tx, err := parseRow(row, col, i+1)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unparsable ledger row", "row", i+1, "error", err)
			continue
		}
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func parseRow(row []string, col map[string]int, sheetRow int) (core.Transaction, error) {
	date, err := parseSheetDate(safeGet(row, col["date"]))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(safeGet(row, col["kind"]))
	if err != nil {
		return core.Transaction{}, err
	}
	status, err := core.ParseStatus(safeGet(row, col["status"]))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(safeGet(row, col["amount"]))
	if err != nil {
		return core.Transaction{}, err
	}
	id := safeGet(row, col["id"])
	if id == "" {
		id = fmt.Sprintf("row-%d", sheetRow)
	}
	return core.Transaction{
		ID:          id,
		Description: safeGet(row, col["description"]),
		Amount:      amount,
		Kind:        kind,
		Date:        date,
		Category:    safeGet(row, col["category"]),
		Status:      status,
	}, nil
}

func parseSheetDate(s string) (core.Date, error) {
	if d, err := core.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(localDate, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return core.DateOf(t), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOfAny(arr []string, targets []string) int {
	for i, v := range arr {
		for _, t := range targets {
			if strings.EqualFold(strings.TrimSpace(v), t) {
				return i
			}
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

var _ ledger.TransactionSource = (*Client)(nil)
