package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	Settled Status = "settled"
	Pending Status = "pending"
)

// ISODate is the layout used for every raw date crossing a package boundary.
const ISODate = "2006-01-02"

type (
	// Kind tells whether a transaction is money coming in or going out.
	Kind string

	// Status tells whether a transaction has settled on the account.
	Status string

	// Date is a timezone-naive calendar date (the account's local date).
	Date struct {
		time.Time
	}

	// Transaction is a single ledger record as supplied by a Ledger Store.
	Transaction struct {
		ID          string
		Description string
		Amount      decimal.Decimal // positive = inflow, negative = outflow
		Kind        Kind
		Date        Date
		Category    string
		Status      Status
	}
)

var (
	ErrEmptyID                 = errors.New("empty transaction id")
	ErrInvalidKind             = errors.New("invalid transaction kind")
	ErrInvalidStatus           = errors.New("invalid transaction status")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidPeriod           = errors.New("invalid period")
	ErrInconsistentTransaction = errors.New("inconsistent transaction")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// ParseKind accepts the canonical names and the Portuguese aliases used by
// the original sample data ("receita", "despesa"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "receita":
		return Income, nil
	case "expense", "despesa":
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (s Status) Validate() error {
	switch s {
	case Settled, Pending:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
}

// ParseStatus maps an empty value to Settled.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "settled":
		return Settled, nil
	case "pending", "pendente":
		return Pending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock and location of t, keeping its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO (YYYY-MM-DD) date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// String returns the ISO representation of the date.
func (d Date) String() string {
	return d.Format(ISODate)
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// Consistent reports whether the amount sign agrees with the kind.
// A zero amount is neither income nor expense and never disagrees.
func (t Transaction) Consistent() bool {
	switch {
	case t.Amount.IsZero():
		return true
	case t.Kind == Income:
		return t.Amount.IsPositive()
	case t.Kind == Expense:
		return t.Amount.IsNegative()
	default:
		return false
	}
}
