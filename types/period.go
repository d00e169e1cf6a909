package types

import (
	"errors"
	"fmt"
	"time"
)

// Period identifies a year-month accounting period, formatted "2006-01".
type Period string

// periodLayout is the canonical label format.
const periodLayout = "2006-01"

// ErrInvalidPeriod is returned when a period label does not parse.
var ErrInvalidPeriod = errors.New("treasury: invalid period label")

// PeriodOf returns the period containing the given instant (UTC).
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format(periodLayout))
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod() Period {
	return PeriodOf(time.Now())
}

// ParsePeriod validates a "YYYY-MM" label.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return PeriodOf(t), nil
}

// Time returns the first instant of the period (UTC). Zero for malformed labels.
func (p Period) Time() time.Time {
	t, err := time.Parse(periodLayout, string(p))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Next returns the following period.
func (p Period) Next() Period {
	return PeriodOf(p.Time().AddDate(0, 1, 0))
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	return string(p) < string(other)
}

// String returns the period label.
func (p Period) String() string { return string(p) }
