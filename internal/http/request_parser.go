package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

var errBadParam = errors.New("invalid parameter")

// monthParams holds a calendar month selected through year/month query
// parameters.
type monthParams struct {
	Year  int
	Month int
}

// parseMonthParams defaults to the month of now and falls back to it for
// values that are missing or out of range.
func parseMonthParams(q url.Values, now time.Time) (p monthParams, corrected bool) {
	p = monthParams{Year: now.Year(), Month: int(now.Month())}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1900 && y <= 9999 {
			p.Year = y
		} else {
			corrected = true
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			p.Month = m
		} else {
			corrected = true
		}
	}
	return p, corrected
}

func (p monthParams) shift(months int) monthParams {
	t := time.Date(p.Year, time.Month(p.Month)+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return monthParams{Year: t.Year(), Month: int(t.Month())}
}

// parseAPIQuery reads account, from, to, prev_from, prev_to and limit.
// Without from/to the current month of now is used. Without prev_from and
// prev_to the comparison is the previous calendar month for month queries,
// or the range of equal length just before from otherwise.
func parseAPIQuery(q url.Values, now time.Time, defaultAccount string, defaultLimit int) (services.Query, error) {
	query := services.Query{
		AccountID: strings.TrimSpace(q.Get("account")),
		Limit:     defaultLimit,
	}
	if query.AccountID == "" {
		query.AccountID = defaultAccount
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return services.Query{}, fmt.Errorf("%w: limit %q must be a non-negative integer", errBadParam, v)
		}
		query.Limit = n
	}

	from, to := q.Get("from"), q.Get("to")
	switch {
	case from == "" && to == "":
		query.Period = core.MonthRange(now.Year(), int(now.Month()))
	case from == "" || to == "":
		return services.Query{}, fmt.Errorf("%w: from and to must be given together", errBadParam)
	default:
		period, err := parseRange(from, to)
		if err != nil {
			return services.Query{}, err
		}
		query.Period = period
	}

	prevFrom, prevTo := q.Get("prev_from"), q.Get("prev_to")
	switch {
	case prevFrom == "" && prevTo == "":
		if isCalendarMonth(query.Period) {
			query.Previous = query.Period.PreviousMonth()
		} else {
			query.Previous = query.Period.Preceding()
		}
	case prevFrom == "" || prevTo == "":
		return services.Query{}, fmt.Errorf("%w: prev_from and prev_to must be given together", errBadParam)
	default:
		prev, err := parseRange(prevFrom, prevTo)
		if err != nil {
			return services.Query{}, err
		}
		query.Previous = prev
	}
	return query, nil
}

func parseRange(from, to string) (core.DateRange, error) {
	start, err := core.ParseDate(strings.TrimSpace(from))
	if err != nil {
		return core.DateRange{}, fmt.Errorf("%w: %v", errBadParam, err)
	}
	end, err := core.ParseDate(strings.TrimSpace(to))
	if err != nil {
		return core.DateRange{}, fmt.Errorf("%w: %v", errBadParam, err)
	}
	return core.NewRange(start, end), nil
}

func isCalendarMonth(r core.DateRange) bool {
	m := core.MonthRange(r.Start.Year(), int(r.Start.Month()))
	return r.Start.Equal(m.Start.Time) && r.End.Equal(m.End.Time)
}
