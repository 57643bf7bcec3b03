package core

import "fmt"

const secondsPerDay = 24 * 60 * 60

// DateRange is a closed range of calendar dates.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewRange builds a range from two dates without validating it.
func NewRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

// MonthRange covers the whole calendar month.
func MonthRange(year, month int) DateRange {
	start := NewDate(year, month, 1)
	return DateRange{Start: start, End: Date{Time: start.AddDate(0, 1, -1)}}
}

// AllTime spans every date a ledger can hold. The start is not the zero
// time so the range validates.
func AllTime() DateRange {
	return DateRange{Start: NewDate(1900, 1, 1), End: NewDate(9999, 12, 31)}
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: missing bound in %s", ErrInvalidPeriod, r)
	}
	if r.End.Before(r.Start.Time) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod, r.End, r.Start)
	}
	return nil
}

// Contains reports inclusive membership.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int((r.End.Unix()-r.Start.Unix())/secondsPerDay) + 1
}

// Preceding returns the range of equal length ending the day before r starts.
func (r DateRange) Preceding() DateRange {
	end := r.Start.AddDays(-1)
	return DateRange{Start: end.AddDays(-(r.Days() - 1)), End: end}
}

// PreviousMonth returns the calendar month before the one r starts in.
func (r DateRange) PreviousMonth() DateRange {
	first := NewDate(r.Start.Year(), int(r.Start.Month()), 1)
	prev := first.AddDate(0, -1, 0)
	return MonthRange(prev.Year(), int(prev.Month()))
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// validateComparison checks that both ranges are well formed and that
// previous ends strictly before period starts (gaps are allowed).
func validateComparison(period, previous DateRange) error {
	if err := period.Validate(); err != nil {
		return fmt.Errorf("current period: %w", err)
	}
	if err := previous.Validate(); err != nil {
		return fmt.Errorf("previous period: %w", err)
	}
	if !previous.End.Before(period.Start.Time) {
		return fmt.Errorf("%w: previous period %s does not precede %s", ErrInvalidPeriod, previous, period)
	}
	return nil
}
