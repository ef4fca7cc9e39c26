package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"swipely/internal/analytics"
)

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		name          string
		current       float64
		previous      float64
		change        float64
		changePercent float64
		direction     analytics.Direction
	}{
		{"both zero", 0, 0, 0, 0, analytics.DirectionFlat},
		{"new activity", 5, 0, 5, 100, analytics.DirectionUp},
		{"halved", 50, 100, -50, -50, analytics.DirectionDown},
		{"unchanged", 7, 7, 0, 0, analytics.DirectionFlat},
		{"rounds to one decimal", 1, 3, -2, -66.7, analytics.DirectionDown},
		{"growth", 3, 2, 1, 50, analytics.DirectionUp},
		{"activity vanished", 0, 4, -4, -100, analytics.DirectionDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.CalculateTrend(tt.current, tt.previous)
			assert.Equal(t, tt.current, got.Current)
			assert.Equal(t, tt.previous, got.Previous)
			assert.Equal(t, tt.change, got.Change)
			assert.InDelta(t, tt.changePercent, got.ChangePercent, 1e-9)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}
