package analytics

// Direction tags the sign of a trend change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// TrendMetric compares a value between the current and previous period.
type TrendMetric struct {
	Current       float64   `json:"current"`
	Previous      float64   `json:"previous"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Direction     Direction `json:"direction"`
}

// CalculateTrend computes the signed change between two values. A zero
// previous value reports 100% when anything appeared and 0% otherwise.
func CalculateTrend(current, previous float64) TrendMetric {
	change := current - previous

	var changePercent float64
	switch {
	case previous == 0 && current > 0:
		changePercent = 100
	case previous == 0:
		changePercent = 0
	default:
		changePercent = round1(change / previous * 100)
	}

	direction := DirectionFlat
	if change > 0 {
		direction = DirectionUp
	} else if change < 0 {
		direction = DirectionDown
	}

	return TrendMetric{
		Current:       finite(current),
		Previous:      finite(previous),
		Change:        finite(change),
		ChangePercent: changePercent,
		Direction:     direction,
	}
}
