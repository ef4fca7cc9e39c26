package analytics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/analytics"
	"swipely/internal/catalog"
	"swipely/internal/events"
)

func TestBuildOverviewWithoutData(t *testing.T) {
	ov := analytics.BuildOverview(catalog.NewCatalog(), analytics.ReconstructSessions(nil))

	assert.Zero(t, ov.TotalViews)
	assert.Zero(t, ov.TotalContentUnits)
	assert.Zero(t, ov.CTAClickRate)
	assert.Equal(t, analytics.BestCTAReport{}, ov.BestCTA)

	raw, err := json.Marshal(ov)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "null")
	assert.NotContains(t, body, "NaN")
	assert.Contains(t, body, `"sourceDistribution":[]`)
	assert.Contains(t, body, `"clicksByContentUnit":[]`)
}

func TestBuildOverview(t *testing.T) {
	quiz := testUnit(1, "quiz", "Spring Quiz", 5)
	quiz.Stages[2].Title = "Offer"
	story := testUnit(2, "story", "Launch Story", 2)
	idle := testUnit(3, "archive", "Archive", 3)
	c := catalog.NewCatalog(quiz, story, idle)

	s := new(stream).
		session("a", 1, "Instagram", 5).
		session("b", 1, "", 3).
		session("c", 2, "Instagram", 2).
		session("d", 2, "TikTok", 1).
		click("a", 1, "u1-s3").
		click("b", 1, "u1-s3").
		click("c", 2, "u2-s2")

	ov := analytics.BuildOverview(c, analytics.ReconstructSessions(s.reversed()))

	assert.Equal(t, 4, ov.TotalViews)
	assert.Equal(t, 3, ov.TotalContentUnits)
	// Pairs: quiz 5/5 and 3/5, story 2/2 and 1/2.
	assert.Equal(t, 50, ov.CompletionRate)
	assert.Equal(t, 25, ov.BounceRate)
	assert.Equal(t, 2.8, ov.AvgSwipeDepth)
	assert.Equal(t, 3, ov.TotalCTAClicks)
	assert.Equal(t, 75.0, ov.CTAClickRate)

	assert.Equal(t, []analytics.SourceShare{
		{Source: "Instagram", Count: 2, Percent: 50},
		{Source: "Direct", Count: 1, Percent: 25},
		{Source: "TikTok", Count: 1, Percent: 25},
	}, ov.SourceDistribution)

	assert.Equal(t, []analytics.UnitClicks{
		{ID: "quiz", Name: "Spring Quiz", Clicks: 2, Rate: 50},
		{ID: "story", Name: "Launch Story", Clicks: 1, Rate: 25},
		{ID: "archive", Name: "Archive", Clicks: 0, Rate: 0},
	}, ov.ClicksByContentUnit)

	assert.Equal(t, analytics.BestCTAReport{
		ContentUnitName: "Spring Quiz",
		StageLabel:      "Offer",
		Clicks:          2,
		Rate:            50,
	}, ov.BestCTA)
}

func TestBuildOverviewBestCTAOnUnknownStage(t *testing.T) {
	c := catalog.NewCatalog(testUnit(1, "quiz", "Quiz", 2))
	s := new(stream).start("a", 1, "").click("a", 1, "legacy-stage")

	ov := analytics.BuildOverview(c, analytics.ReconstructSessions(s.rows))
	assert.Equal(t, "Quiz", ov.BestCTA.ContentUnitName)
	assert.Equal(t, "legacy-stage", ov.BestCTA.StageLabel)
	assert.Equal(t, 100.0, ov.BestCTA.Rate)
}

func TestBuildDeepDive(t *testing.T) {
	unit := testUnit(1, "quiz", "Spring Quiz", 5)

	current := new(stream).
		session("a", 1, "Instagram", 5).
		session("b", 1, "Instagram", 3).
		session("c", 1, "", 1).
		click("a", 1, "u1-s5").
		click("b", 1, "u1-s3").
		click("a", 1, "u1-s5").
		other("a", 1, events.EventTypeShareClick).
		other("c", 1, events.EventTypeReactionTap).
		other("b", 1, events.EventTypeInfoOpen)
	previous := new(stream).
		session("x", 1, "", 5).
		session("y", 1, "", 5).
		click("x", 1, "u1-s5")

	cur := analytics.ReconstructSessions(current.reversed())
	dd := analytics.BuildDeepDive(analytics.DeepDiveInput{
		Unit:          unit,
		Current:       cur,
		TrendCurrent:  cur,
		TrendPrevious: analytics.ReconstructSessions(previous.rows),
		PeriodLabel:   "Dec 17–Dec 23 vs Dec 10–Dec 16",
	})

	assert.Equal(t, "quiz", dd.ContentUnitID)
	assert.Equal(t, "Spring Quiz", dd.Title)
	assert.Equal(t, 5, dd.TotalStages)
	assert.Equal(t, 3, dd.Views)
	assert.Equal(t, 3, dd.Starts)
	assert.Equal(t, 3.0, dd.AvgSwipeDepth)
	assert.Equal(t, 60, dd.SwipeDepth)
	assert.Equal(t, 33, dd.CompletionRate)
	assert.Equal(t, 33, dd.BounceRate)
	assert.Equal(t, 3, dd.TotalCTAClicks)
	assert.Equal(t, 100.0, dd.CTAClickRate)
	assert.Equal(t, 1, dd.Shares)
	assert.Equal(t, 1, dd.Reactions)
	assert.Equal(t, 1, dd.InfoOpens)

	require.Len(t, dd.StageReachCurve, 5)
	assert.Equal(t, analytics.StageReachPoint{StageLabel: "Stage 1", ReachPercent: 100, DropPercent: 33}, dd.StageReachCurve[0])
	assert.Equal(t, analytics.StageReachPoint{StageLabel: "Stage 3", ReachPercent: 67, DropPercent: 50}, dd.StageReachCurve[2])
	assert.Equal(t, analytics.StageReachPoint{StageLabel: "Stage 5", ReachPercent: 33, DropPercent: 0}, dd.StageReachCurve[4])
	assert.Equal(t, analytics.StageDrop{StageLabel: "Stage 3", DropPercent: 50}, dd.BiggestDrop)

	assert.Equal(t, analytics.BestCTAReport{ContentUnitName: "Spring Quiz", StageLabel: "Stage 5", Clicks: 2, Rate: 66.7}, dd.BestCTA)

	assert.Equal(t, analytics.TrendMetric{Current: 3, Previous: 2, Change: 1, ChangePercent: 50, Direction: analytics.DirectionUp}, dd.ViewsDelta)
	assert.Equal(t, analytics.DirectionDown, dd.CompletionDelta.Direction)
	assert.Equal(t, 33.0, dd.CompletionDelta.Current)
	assert.Equal(t, 100.0, dd.CompletionDelta.Previous)
	assert.Equal(t, analytics.TrendMetric{Current: 3, Previous: 1, Change: 2, ChangePercent: 200, Direction: analytics.DirectionUp}, dd.ClicksDelta)
	assert.Equal(t, "Dec 17–Dec 23 vs Dec 10–Dec 16", dd.PeriodLabel)
}

func TestBuildDeepDiveWithoutTrendData(t *testing.T) {
	unit := testUnit(1, "quiz", "Quiz", 0)
	dd := analytics.BuildDeepDive(analytics.DeepDiveInput{
		Unit:    unit,
		Current: analytics.ReconstructSessions(nil),
	})

	assert.Equal(t, 1, dd.TotalStages)
	assert.Zero(t, dd.Views)
	assert.Len(t, dd.StageReachCurve, 1)
	assert.Equal(t, analytics.DirectionFlat, dd.ViewsDelta.Direction)
	assert.Equal(t, analytics.BestCTAReport{}, dd.BestCTA)

	raw, err := json.Marshal(dd)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null")
}
