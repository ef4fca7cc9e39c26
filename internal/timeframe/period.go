package timeframe

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how the comparison windows of a trend are built.
type Period string

const (
	PeriodWeekOverWeek   Period = "wow"
	PeriodMonthOverMonth Period = "mom"
	PeriodYearOverYear   Period = "yoy"
	PeriodCustom         Period = "custom"
)

// ParsePeriod maps a selector string to a Period. Unknown or empty values
// report false so callers can pick their own default.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodWeekOverWeek:
		return PeriodWeekOverWeek, true
	case PeriodMonthOverMonth:
		return PeriodMonthOverMonth, true
	case PeriodYearOverYear:
		return PeriodYearOverYear, true
	case PeriodCustom:
		return PeriodCustom, true
	default:
		return "", false
	}
}

// CustomRange is the inclusive calendar date range used by PeriodCustom.
// Dates use the YYYY-MM-DD layout.
type CustomRange struct {
	StartDate string
	EndDate   string
}

// PeriodRange holds the two comparable windows of a trend.
type PeriodRange struct {
	Period   Period `json:"period"`
	Current  Window `json:"current"`
	Previous Window `json:"previous"`
	Label    string `json:"label"`
}

// CalculatePeriod converts a period selector and a reference instant into a
// current and previous window. The calendar used is now's location. It never
// fails: an unknown selector or an unusable custom range falls back to
// week-over-week.
func CalculatePeriod(period Period, now time.Time, custom *CustomRange) PeriodRange {
	var pr PeriodRange

	switch period {
	case PeriodMonthOverMonth:
		pr = monthOverMonth(now)
	case PeriodYearOverYear:
		pr = yearOverYear(now)
	case PeriodCustom:
		if current, ok := parseCustomRange(custom, now.Location()); ok {
			pr = precedingWindow(current)
			pr.Period = PeriodCustom
		} else {
			pr = weekOverWeek(now)
		}
	default:
		pr = weekOverWeek(now)
	}

	pr.Label = fmt.Sprintf("%s vs %s", pr.Current, pr.Previous)
	return pr
}

func weekOverWeek(now time.Time) PeriodRange {
	current := Window{
		Start: StartOfDay(now.AddDate(0, 0, -6)),
		End:   EndOfDay(now),
	}
	pr := precedingWindow(current)
	pr.Period = PeriodWeekOverWeek
	return pr
}

// precedingWindow pairs current with a window of the same day count ending
// the millisecond before current starts.
func precedingWindow(current Window) PeriodRange {
	days := current.Days()
	prevEnd := current.Start.Add(-time.Millisecond)
	return PeriodRange{
		Current: current,
		Previous: Window{
			Start: StartOfDay(current.Start.AddDate(0, 0, -days)),
			End:   prevEnd,
		},
	}
}

func monthOverMonth(now time.Time) PeriodRange {
	loc := now.Location()
	y, m, d := now.Date()

	lastMonthFirst := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
	ly, lm, _ := lastMonthFirst.Date()
	day := min(d, daysIn(ly, lm, loc))

	return PeriodRange{
		Period: PeriodMonthOverMonth,
		Current: Window{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   EndOfDay(now),
		},
		Previous: Window{
			Start: lastMonthFirst,
			End:   EndOfDay(time.Date(ly, lm, day, 0, 0, 0, 0, loc)),
		},
	}
}

func yearOverYear(now time.Time) PeriodRange {
	loc := now.Location()
	y, m, d := now.Date()
	day := min(d, daysIn(y-1, m, loc))

	return PeriodRange{
		Period: PeriodYearOverYear,
		Current: Window{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   EndOfDay(now),
		},
		Previous: Window{
			Start: time.Date(y-1, time.January, 1, 0, 0, 0, 0, loc),
			End:   EndOfDay(time.Date(y-1, m, day, 0, 0, 0, 0, loc)),
		},
	}
}

func parseCustomRange(custom *CustomRange, loc *time.Location) (Window, bool) {
	if custom == nil || custom.StartDate == "" || custom.EndDate == "" {
		return Window{}, false
	}

	start, err := time.ParseInLocation(DateLayout, custom.StartDate, loc)
	if err != nil {
		return Window{}, false
	}
	end, err := time.ParseInLocation(DateLayout, custom.EndDate, loc)
	if err != nil {
		return Window{}, false
	}
	if end.Before(start) {
		return Window{}, false
	}

	return Window{Start: StartOfDay(start), End: EndOfDay(end)}, true
}
