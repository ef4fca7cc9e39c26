package analytics

import (
	"sort"

	"swipely/internal/catalog"
)

// BestCTAReport describes the best performing call to action. It is the zero
// value when nothing was clicked.
type BestCTAReport struct {
	ContentUnitName string  `json:"contentUnitName"`
	StageLabel      string  `json:"stageLabel"`
	Clicks          int     `json:"clicks"`
	Rate            float64 `json:"rate"`
}

// UnitClicks is one content unit's CTA clicks.
type UnitClicks struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Clicks int     `json:"clicks"`
	Rate   float64 `json:"rate"`
}

// Overview is the organization-wide report.
type Overview struct {
	TotalViews          int             `json:"totalViews"`
	TotalContentUnits   int             `json:"totalContentUnits"`
	CompletionRate      int             `json:"completionRate"`
	AvgSwipeDepth       float64         `json:"avgSwipeDepth"`
	BounceRate          int             `json:"bounceRate"`
	TotalCTAClicks      int             `json:"totalCtaClicks"`
	CTAClickRate        float64         `json:"ctaClickRate"`
	SourceDistribution  []SourceShare   `json:"sourceDistribution"`
	DropoffBuckets      []DropoffBucket `json:"dropoffBuckets"`
	ClicksByContentUnit []UnitClicks    `json:"clicksByContentUnit"`
	BestCTA             BestCTAReport   `json:"bestCta"`
}

// BuildOverview assembles the organization-wide report. Views are distinct
// session starts; completion, bounce and depth are measured per (session,
// unit) pair against each unit's own length.
func BuildOverview(c *catalog.Catalog, s *Sessions) Overview {
	starts := s.TotalStarts()
	stageIndex := c.StageIndex()
	pairs := SummarizePairs(s, stageIndex)
	clicks := s.TotalCTAClicks()

	perUnit := make([]UnitClicks, 0, c.Len())
	for _, u := range c.Units() {
		n := s.Counters(u.ID).CTAClicks
		perUnit = append(perUnit, UnitClicks{
			ID:     u.PublicID,
			Name:   u.Title,
			Clicks: n,
			Rate:   ClickThroughRate(n, starts),
		})
	}
	sort.SliceStable(perUnit, func(i, j int) bool {
		return perUnit[i].Clicks > perUnit[j].Clicks
	})

	return Overview{
		TotalViews:          starts,
		TotalContentUnits:   c.Len(),
		CompletionRate:      pairs.CompletionRate,
		AvgSwipeDepth:       pairs.AvgDepth,
		BounceRate:          pairs.BounceRate,
		TotalCTAClicks:      clicks,
		CTAClickRate:        ClickThroughRate(clicks, starts),
		SourceDistribution:  SourceDistribution(s),
		DropoffBuckets:      BucketDropoff(s, stageIndex),
		ClicksByContentUnit: perUnit,
		BestCTA:             bestCTAReport(c, s, starts),
	}
}

func bestCTAReport(c *catalog.Catalog, s *Sessions, starts int) BestCTAReport {
	best, ok := BestCTA(s)
	if !ok {
		return BestCTAReport{}
	}

	report := BestCTAReport{
		StageLabel: best.StagePublicID,
		Clicks:     best.Clicks,
		Rate:       ClickThroughRate(best.Clicks, starts),
	}
	if u, found := c.Unit(best.ContentUnitID); found {
		report.ContentUnitName = u.Title
		report.StageLabel = u.StageLabelFor(best.StagePublicID)
	}
	return report
}

// StageReachPoint is one point of the reach curve.
type StageReachPoint struct {
	StageLabel   string `json:"stageLabel"`
	ReachPercent int    `json:"reachPercent"`
	DropPercent  int    `json:"dropPercent"`
}

// StageDrop names the stage that loses the most sessions.
type StageDrop struct {
	StageLabel  string `json:"stageLabel"`
	DropPercent int    `json:"dropPercent"`
}

// DeepDive is the report of a single content unit.
type DeepDive struct {
	ContentUnitID   string            `json:"contentUnitId"`
	Title           string            `json:"title"`
	TotalStages     int               `json:"totalStages"`
	Views           int               `json:"views"`
	Starts          int               `json:"starts"`
	CompletionRate  int               `json:"completionRate"`
	AvgSwipeDepth   float64           `json:"avgSwipeDepth"`
	SwipeDepth      int               `json:"swipeDepth"`
	BounceRate      int               `json:"bounceRate"`
	TotalCTAClicks  int               `json:"totalCtaClicks"`
	CTAClickRate    float64           `json:"ctaClickRate"`
	Shares          int               `json:"shares"`
	Reactions       int               `json:"reactions"`
	InfoOpens       int               `json:"infoOpens"`
	TrafficSources  []SourceShare     `json:"trafficSources"`
	DropoffBuckets  []DropoffBucket   `json:"dropoffBuckets"`
	StageReachCurve []StageReachPoint `json:"stageReachCurve"`
	BiggestDrop     StageDrop         `json:"biggestDrop"`
	BestCTA         BestCTAReport     `json:"bestCta"`
	ViewsDelta      TrendMetric       `json:"viewsDelta"`
	CompletionDelta TrendMetric       `json:"completionDelta"`
	ClicksDelta     TrendMetric       `json:"clicksDelta"`
	PeriodLabel     string            `json:"periodLabel"`
}

// DeepDiveInput carries the folded batches a deep-dive is built from. Current
// covers the report window; TrendCurrent and TrendPrevious cover the two
// windows of the comparison period and may share Current.
type DeepDiveInput struct {
	Unit          *catalog.Unit
	Current       *Sessions
	TrendCurrent  *Sessions
	TrendPrevious *Sessions
	PeriodLabel   string
}

// BuildDeepDive assembles the report of one content unit. Views are the
// sessions that reached at least one stage of the unit, and rates use them as
// the denominator.
func BuildDeepDive(in DeepDiveInput) DeepDive {
	unit := in.Unit
	total := unit.TotalStages()
	s := in.Current
	starts := s.TotalStarts()
	counters := s.Counters(unit.ID)
	funnel := AnalyzeFunnel(s.DepthsFor(unit.ID), total)

	curve := make([]StageReachPoint, 0, total)
	for i := 0; i < total; i++ {
		curve = append(curve, StageReachPoint{
			StageLabel:   unit.StageLabelAt(i + 1),
			ReachPercent: funnel.ReachPercent(i),
			DropPercent:  funnel.Drop[i],
		})
	}

	dropStage, dropPercent := BiggestDrop(funnel.Drop)
	single := catalog.SingleUnit(unit)

	out := DeepDive{
		ContentUnitID:   unit.PublicID,
		Title:           unit.Title,
		TotalStages:     total,
		Views:           funnel.Views,
		Starts:          starts,
		CompletionRate:  funnel.CompletionRate,
		AvgSwipeDepth:   funnel.AvgDepth,
		SwipeDepth:      funnel.DepthPercent(),
		BounceRate:      funnel.BounceRate,
		TotalCTAClicks:  counters.CTAClicks,
		CTAClickRate:    ClickThroughRate(counters.CTAClicks, starts),
		Shares:          counters.Shares,
		Reactions:       counters.Reactions,
		InfoOpens:       counters.InfoOpens,
		TrafficSources:  SourceDistribution(s),
		DropoffBuckets:  BucketDropoff(s, single.StageIndex()),
		StageReachCurve: curve,
		BiggestDrop:     StageDrop{StageLabel: unit.StageLabelAt(dropStage), DropPercent: dropPercent},
		BestCTA:         bestCTAReport(single, s, starts),
		PeriodLabel:     in.PeriodLabel,
	}

	cur := unitSnapshot(in.TrendCurrent, unit.ID, total)
	prev := unitSnapshot(in.TrendPrevious, unit.ID, total)
	out.ViewsDelta = CalculateTrend(float64(cur.views), float64(prev.views))
	out.CompletionDelta = CalculateTrend(float64(cur.completionRate), float64(prev.completionRate))
	out.ClicksDelta = CalculateTrend(float64(cur.clicks), float64(prev.clicks))

	return out
}

type snapshot struct {
	views          int
	completionRate int
	clicks         int
}

func unitSnapshot(s *Sessions, unitID uint, total int) snapshot {
	if s == nil {
		return snapshot{}
	}
	f := AnalyzeFunnel(s.DepthsFor(unitID), total)
	return snapshot{
		views:          f.Views,
		completionRate: f.CompletionRate,
		clicks:         s.Counters(unitID).CTAClicks,
	}
}
