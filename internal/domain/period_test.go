package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviousDayCrossesMonthBoundary(t *testing.T) {
	t.Parallel()

	trigger := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	period := PreviousDay(trigger)

	assert.Equal(t, "2026-08-31", period.String())
	assert.Equal(t, GranularityDay, period.Granularity)
}

func TestPreviousDayRespectsLocation(t *testing.T) {
	t.Parallel()

	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 06:00 in Seoul is still the previous day in UTC; the target
	// period follows the trigger's own calendar.
	trigger := time.Date(2026, 8, 28, 6, 0, 0, 0, seoul)
	assert.Equal(t, "2026-08-27", PreviousDay(trigger).String())
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	day, err := ParsePeriod("2026-08-27", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, GranularityDay, day.Granularity)

	month, err := ParsePeriod("2026-08", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, month.Granularity)

	_, err = ParsePeriod("27/08/2026", time.UTC)
	assert.Error(t, err)
}

func TestPeriodBounds(t *testing.T) {
	t.Parallel()

	day := DayPeriod(time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC))
	start, end := day.Bounds()
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
