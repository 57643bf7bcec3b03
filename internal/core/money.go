// Package core provides the transaction model and the metrics aggregation
// that turns a ledger snapshot into dashboard figures.
//
// This file contains amount parsing for values coming from spreadsheets,
// CSV seeds and query strings.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var currencyPrefixes = []string{"R$", "US$", "$", "€", "£"}

// ParseAmount converts a signed decimal string into an exact decimal.
//
// Both dot (1234.56) and comma (1234,56) decimal separators are accepted.
// When both appear, the last one is the decimal separator and the other is
// thousands grouping ("1.234,56", "1,234.56"). A separator repeated more
// than once is grouping ("1.234.567"). A single separator is always decimal.
// A leading currency symbol is ignored.
//
// Examples:
//
//	ParseAmount("-2500")     -> -2500
//	ParseAmount("1.234,56")  -> 1234.56
//	ParseAmount("+R$ 12,5")  -> 12.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	sign := ""
	if s[0] == '+' || s[0] == '-' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimPrefix(s, p)
			break
		}
	}
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	s = normalizeSeparators(s)
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 || s == "." {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators rewrites grouping and decimal marks to plain dot notation.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
