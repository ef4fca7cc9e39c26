package timeframe

import (
	"strings"
	"time"
)

// RangeSelector is the lookback window a report is scoped to. It is a
// separate axis from Period, which only drives trend comparisons.
type RangeSelector string

const (
	RangeLast7Days  RangeSelector = "7d"
	RangeLast30Days RangeSelector = "30d"
	RangeLast90Days RangeSelector = "90d"
)

var rangeDays = map[RangeSelector]int{
	RangeLast7Days:  7,
	RangeLast30Days: 30,
	RangeLast90Days: 90,
}

// ParseRange returns the selector for s, defaulting to RangeLast7Days.
func ParseRange(s string) RangeSelector {
	sel := RangeSelector(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rangeDays[sel]; ok {
		return sel
	}
	return RangeLast7Days
}

// Days returns the number of calendar days covered by the selector.
func (r RangeSelector) Days() int {
	if n, ok := rangeDays[r]; ok {
		return n
	}
	return rangeDays[RangeLast7Days]
}

// RollingWindow returns the window of the selector's length ending today:
// [start of day (now - (n-1) days), end of day now].
func RollingWindow(sel RangeSelector, now time.Time) Window {
	return Window{
		Start: StartOfDay(now.AddDate(0, 0, -(sel.Days() - 1))),
		End:   EndOfDay(now),
	}
}

// CustomRangeFor expresses w as a CustomRange so it can drive a custom
// period comparison against the immediately preceding window.
func CustomRangeFor(w Window) *CustomRange {
	return &CustomRange{
		StartDate: w.Start.Format(DateLayout),
		EndDate:   w.End.Format(DateLayout),
	}
}
