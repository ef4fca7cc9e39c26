package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/timeframe"
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("Failed to load time zone location: " + name)
	}
	return loc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOverWeek(t *testing.T) {
	now := time.Date(2024, 12, 23, 15, 30, 0, 0, time.UTC)
	pr := timeframe.CalculatePeriod(timeframe.PeriodWeekOverWeek, now, nil)

	assert.Equal(t, timeframe.PeriodWeekOverWeek, pr.Period)
	assert.Equal(t, date(2024, 12, 17), pr.Current.Start)
	assert.Equal(t, time.Date(2024, 12, 23, 23, 59, 59, 999000000, time.UTC), pr.Current.End)
	assert.Equal(t, date(2024, 12, 10), pr.Previous.Start)
	assert.Equal(t, time.Date(2024, 12, 16, 23, 59, 59, 999000000, time.UTC), pr.Previous.End)
	assert.Equal(t, "Dec 17–Dec 23 vs Dec 10–Dec 16", pr.Label)
}

func TestContiguousPeriodsNeverOverlap(t *testing.T) {
	locations := []*time.Location{time.UTC, mustLoadLocation("America/New_York"), mustLoadLocation("Asia/Kolkata")}
	base := time.Date(2023, 1, 1, 7, 13, 0, 0, time.UTC)

	for _, loc := range locations {
		for i := 0; i < 800; i++ {
			now := base.Add(time.Duration(i) * 13 * time.Hour).In(loc)

			wow := timeframe.CalculatePeriod(timeframe.PeriodWeekOverWeek, now, nil)
			require.True(t, wow.Previous.End.Before(wow.Current.Start), "wow overlap at %s", now)
			require.Equal(t, time.Millisecond, wow.Current.Start.Sub(wow.Previous.End), "wow gap at %s", now)
			require.Equal(t, wow.Current.Days(), wow.Previous.Days())

			start := now.AddDate(0, 0, -(i % 40)).Format(timeframe.DateLayout)
			end := now.Format(timeframe.DateLayout)
			custom := timeframe.CalculatePeriod(timeframe.PeriodCustom, now, &timeframe.CustomRange{StartDate: start, EndDate: end})
			require.Equal(t, timeframe.PeriodCustom, custom.Period)
			require.True(t, custom.Previous.End.Before(custom.Current.Start), "custom overlap at %s", now)
			require.Equal(t, time.Millisecond, custom.Current.Start.Sub(custom.Previous.End), "custom gap at %s", now)
			require.Equal(t, custom.Current.Days(), custom.Previous.Days())
		}
	}
}

func TestMonthOverMonthClampsShortMonths(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		prevStart  time.Time
		prevEndDay time.Time
		currStart  time.Time
	}{
		{
			name:       "leap year March 31 compares against Feb 29",
			now:        time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
			prevStart:  date(2024, 2, 1),
			prevEndDay: date(2024, 2, 29),
			currStart:  date(2024, 3, 1),
		},
		{
			name:       "non leap year March 30 compares against Feb 28",
			now:        time.Date(2023, 3, 30, 12, 0, 0, 0, time.UTC),
			prevStart:  date(2023, 2, 1),
			prevEndDay: date(2023, 2, 28),
			currStart:  date(2023, 3, 1),
		},
		{
			name:       "May 31 compares against April 30",
			now:        time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC),
			prevStart:  date(2024, 4, 1),
			prevEndDay: date(2024, 4, 30),
			currStart:  date(2024, 5, 1),
		},
		{
			name:       "January wraps to previous December",
			now:        time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
			prevStart:  date(2024, 12, 1),
			prevEndDay: date(2024, 12, 15),
			currStart:  date(2025, 1, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := timeframe.CalculatePeriod(timeframe.PeriodMonthOverMonth, tt.now, nil)
			assert.Equal(t, timeframe.PeriodMonthOverMonth, pr.Period)
			assert.Equal(t, tt.currStart, pr.Current.Start)
			assert.Equal(t, timeframe.EndOfDay(tt.now), pr.Current.End)
			assert.Equal(t, tt.prevStart, pr.Previous.Start)
			assert.Equal(t, timeframe.EndOfDay(tt.prevEndDay), pr.Previous.End)
		})
	}
}

func TestYearOverYear(t *testing.T) {
	t.Run("same day last year", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
		pr := timeframe.CalculatePeriod(timeframe.PeriodYearOverYear, now, nil)
		assert.Equal(t, date(2025, 1, 1), pr.Current.Start)
		assert.Equal(t, date(2024, 1, 1), pr.Previous.Start)
		assert.Equal(t, timeframe.EndOfDay(date(2024, 6, 10)), pr.Previous.End)
	})

	t.Run("leap day clamps to Feb 28", func(t *testing.T) {
		now := time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)
		pr := timeframe.CalculatePeriod(timeframe.PeriodYearOverYear, now, nil)
		assert.Equal(t, timeframe.EndOfDay(date(2023, 2, 28)), pr.Previous.End)
	})
}

func TestCustomPeriod(t *testing.T) {
	now := time.Date(2024, 12, 23, 10, 0, 0, 0, time.UTC)

	t.Run("previous window has identical day count", func(t *testing.T) {
		pr := timeframe.CalculatePeriod(timeframe.PeriodCustom, now, &timeframe.CustomRange{
			StartDate: "2024-12-01",
			EndDate:   "2024-12-10",
		})
		assert.Equal(t, date(2024, 12, 1), pr.Current.Start)
		assert.Equal(t, timeframe.EndOfDay(date(2024, 12, 10)), pr.Current.End)
		assert.Equal(t, date(2024, 11, 21), pr.Previous.Start)
		assert.Equal(t, timeframe.EndOfDay(date(2024, 11, 30)), pr.Previous.End)
		assert.Equal(t, 10, pr.Previous.Days())
	})

	invalid := map[string]*timeframe.CustomRange{
		"missing range":  nil,
		"empty dates":    {},
		"malformed date": {StartDate: "2024-13-01", EndDate: "2024-12-10"},
		"reversed range": {StartDate: "2024-12-10", EndDate: "2024-12-01"},
	}
	wow := timeframe.CalculatePeriod(timeframe.PeriodWeekOverWeek, now, nil)
	for name, custom := range invalid {
		t.Run("falls back to wow on "+name, func(t *testing.T) {
			pr := timeframe.CalculatePeriod(timeframe.PeriodCustom, now, custom)
			assert.Equal(t, wow, pr)
		})
	}
}

func TestUnknownPeriodFallsBackToWeekOverWeek(t *testing.T) {
	now := time.Date(2024, 12, 23, 10, 0, 0, 0, time.UTC)
	assert.Equal(t,
		timeframe.CalculatePeriod(timeframe.PeriodWeekOverWeek, now, nil),
		timeframe.CalculatePeriod(timeframe.Period("quarterly"), now, nil))
}

func TestLabelIsDeterministic(t *testing.T) {
	now := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	first := timeframe.CalculatePeriod(timeframe.PeriodMonthOverMonth, now, nil)
	second := timeframe.CalculatePeriod(timeframe.PeriodMonthOverMonth, now, nil)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, "Mar 1–Mar 31 vs Feb 1–Feb 29", first.Label)
}

func TestParsePeriod(t *testing.T) {
	p, ok := timeframe.ParsePeriod(" MoM ")
	assert.True(t, ok)
	assert.Equal(t, timeframe.PeriodMonthOverMonth, p)

	_, ok = timeframe.ParsePeriod("")
	assert.False(t, ok)
}
