package domain

import (
	"fmt"
	"time"
)

// Granularity selects how wide a target period is.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Period is the span of calendar time one AnalysisSummary covers. The
// scheduled job always targets a single day; month periods exist for
// manual backfill runs.
type Period struct {
	Start       time.Time
	Granularity Granularity
}

// DayPeriod returns the day period containing t, in t's location.
func DayPeriod(t time.Time) Period {
	y, m, d := t.Date()
	return Period{
		Start:       time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		Granularity: GranularityDay,
	}
}

// MonthPeriod returns the month period containing t, in t's location.
func MonthPeriod(t time.Time) Period {
	y, m, _ := t.Date()
	return Period{
		Start:       time.Date(y, m, 1, 0, 0, 0, 0, t.Location()),
		Granularity: GranularityMonth,
	}
}

// PreviousDay returns the calendar day immediately before trigger,
// which is what the daily scheduled run targets.
func PreviousDay(trigger time.Time) Period {
	return DayPeriod(trigger.AddDate(0, 0, -1))
}

// ParsePeriod accepts "2006-01-02" for day periods and "2006-01" for
// month periods, interpreted in loc.
func ParsePeriod(value string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dayLayout, value, loc); err == nil {
		return DayPeriod(t), nil
	}
	if t, err := time.ParseInLocation(monthLayout, value, loc); err == nil {
		return MonthPeriod(t), nil
	}
	return Period{}, fmt.Errorf("period %q is neither %s nor %s", value, dayLayout, monthLayout)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Start.IsZero()
}

// Bounds returns the half-open [start, end) range the period covers.
func (p Period) Bounds() (time.Time, time.Time) {
	switch p.Granularity {
	case GranularityMonth:
		return p.Start, p.Start.AddDate(0, 1, 0)
	default:
		return p.Start, p.Start.AddDate(0, 0, 1)
	}
}

// String renders the canonical key used for repository lookups.
func (p Period) String() string {
	if p.Granularity == GranularityMonth {
		return p.Start.Format(monthLayout)
	}
	return p.Start.Format(dayLayout)
}
