// Package format renders aggregator output for people: money, dates and
// trend percentages according to an explicit locale configuration.
package format

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"saldo/internal/core"
)

var ErrUnknownCurrency = errors.New("unknown currency")

type (
	// Labels are the few words the formatter itself produces.
	Labels struct {
		New       string // trend from zero, no percentage available
		SincePrev string // suffix of TrendText
		Income    string
		Expense   string
		Pending   string
		Settled   string
	}

	// Formatter is an explicit presentation configuration. The zero value is
	// not usable; build one with New or Default.
	Formatter struct {
		Locale      language.Tag
		Currency    currency.Unit
		Symbol      string
		SymbolAfter bool
		Thousands   string
		Decimal     string
		DateLayout  string
		Labels      Labels
	}

	preset struct {
		thousands   string
		decimal     string
		dateLayout  string
		symbolAfter bool
		labels      Labels
	}
)

var (
	supported = []language.Tag{
		language.BrazilianPortuguese,
		language.AmericanEnglish,
		language.Italian,
	}
	matcher = language.NewMatcher(supported)

	presets = []preset{
		{
			thousands:  ".",
			decimal:    ",",
			dateLayout: "02/01/2006",
			labels: Labels{
				New:       "novo",
				SincePrev: "em relação ao período anterior",
				Income:    "Receita",
				Expense:   "Despesa",
				Pending:   "Pendente",
				Settled:   "Liquidada",
			},
		},
		{
			thousands:  ",",
			decimal:    ".",
			dateLayout: "01/02/2006",
			labels: Labels{
				New:       "new",
				SincePrev: "from the previous period",
				Income:    "Income",
				Expense:   "Expense",
				Pending:   "Pending",
				Settled:   "Settled",
			},
		},
		{
			thousands:   ".",
			decimal:     ",",
			dateLayout:  "02/01/2006",
			symbolAfter: true,
			labels: Labels{
				New:       "nuovo",
				SincePrev: "rispetto al periodo precedente",
				Income:    "Entrata",
				Expense:   "Uscita",
				Pending:   "In attesa",
				Settled:   "Contabilizzata",
			},
		},
	}

	symbols = map[string]string{
		"BRL": "R$",
		"USD": "$",
		"EUR": "€",
		"GBP": "£",
	}
)

// New builds a formatter for the closest supported locale (pt-BR when
// nothing matches) and an ISO 4217 currency code.
func New(locale, currencyCode string) (Formatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return Formatter{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, currencyCode)
	}

	idx := 0
	if tag, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		if _, i, conf := matcher.Match(tag); conf != language.No {
			idx = i
		}
	}
	p := presets[idx]

	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String()
	}
	return Formatter{
		Locale:      supported[idx],
		Currency:    unit,
		Symbol:      symbol,
		SymbolAfter: p.symbolAfter,
		Thousands:   p.thousands,
		Decimal:     p.decimal,
		DateLayout:  p.dateLayout,
		Labels:      p.labels,
	}, nil
}

// Default is the Brazilian real formatter used by the dashboard.
func Default() Formatter {
	f, _ := New("pt-BR", "BRL")
	return f
}

// Number groups thousands and keeps the given number of decimals. Digits
// come from the decimal itself, so the output is exact at any magnitude.
func (f Formatter) Number(d decimal.Decimal, decimals int) string {
	fixed := d.StringFixed(int32(decimals))
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	n, _ := new(big.Int).SetString(whole, 10)
	out := strings.ReplaceAll(humanize.BigComma(n), ",", f.Thousands)
	if frac != "" {
		out += f.Decimal + frac
	}
	return sign + out
}

// Money renders an amount with the currency symbol, e.g. "R$ 45.231,89"
// or "-R$ 2.500,00".
func (f Formatter) Money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	n := f.Number(d.Abs(), 2)
	if f.SymbolAfter {
		return sign + n + " " + f.Symbol
	}
	sep := ""
	if utf8.RuneCountInString(f.Symbol) > 1 {
		sep = " "
	}
	return sign + f.Symbol + sep + n
}

// Signed is Money with an explicit plus sign on positive income rows.
func (f Formatter) Signed(d decimal.Decimal, kind core.Kind) string {
	if kind == core.Income && d.IsPositive() {
		return "+" + f.Money(d)
	}
	return f.Money(d)
}

// Date renders a calendar date in the locale's numeric layout.
func (f Formatter) Date(d core.Date) string {
	return d.Format(f.DateLayout)
}

// Percent renders a trend delta such as "+20,1%". A trend from zero has no
// delta and renders as the "new" label.
func (f Formatter) Percent(t core.Trend) string {
	if t.Delta == nil {
		if t.Direction == core.Flat {
			return f.Number(decimal.Zero, 1) + "%"
		}
		return f.Labels.New
	}
	pct := t.Delta.Shift(2).Round(1)
	sign := ""
	switch pct.Sign() {
	case 1:
		sign = "+"
	case -1:
		sign = "-"
	}
	return sign + f.Number(pct.Abs(), 1) + "%"
}

// TrendText is the sentence shown under a metric card.
func (f Formatter) TrendText(t core.Trend) string {
	return f.Percent(t) + " " + f.Labels.SincePrev
}

func (f Formatter) Kind(k core.Kind) string {
	if k == core.Income {
		return f.Labels.Income
	}
	return f.Labels.Expense
}

func (f Formatter) Status(s core.Status) string {
	if s == core.Pending {
		return f.Labels.Pending
	}
	return f.Labels.Settled
}
