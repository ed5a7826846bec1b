package fourkeys

import (
	"fmt"
	"time"

	"github.com/akawula/fourkeys/internal/timeutils"
)

// Period selects how far back from today a metric looks.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Periods lists every supported period, shortest first.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}

// ParsePeriod converts s into a Period.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown period %q", ErrInvalidConfiguration, s)
}

// DateRange is an inclusive [From, To] window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Days is the number of calendar days the range spans, both ends included.
func (r DateRange) Days() int {
	return timeutils.WholeDaysBetween(r.From, r.To) + 1
}

// ResolvePeriod anchors p to now. To is the end of now's day; From is the
// start of the day 0 days, 7 days, 1, 3 or 12 months back.
func ResolvePeriod(p Period, now time.Time) (DateRange, error) {
	var from time.Time
	switch p {
	case PeriodDay:
		from = now
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = timeutils.AddMonths(now, -1)
	case PeriodQuarter:
		from = timeutils.AddMonths(now, -3)
	case PeriodYear:
		from = timeutils.AddMonths(now, -12)
	default:
		return DateRange{}, fmt.Errorf("%w: unknown period %q", ErrInvalidConfiguration, p)
	}

	return DateRange{From: timeutils.StartOfDay(from), To: timeutils.EndOfDay(now)}, nil
}
