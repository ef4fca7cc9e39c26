package analytics

// Funnel is the swipe-depth funnel of one content unit.
type Funnel struct {
	TotalStages    int
	Views          int
	AvgDepth       float64
	Completions    int
	Bounces        int
	CompletionRate int
	BounceRate     int
	// Reach[i] counts sessions that reached stage i+1.
	Reach []int
	// Drop[i] is the whole percent of sessions reaching stage i+1 that did
	// not reach the next stage. The last stage has no successor and is 0.
	Drop []int

	depthSum int
}

// AnalyzeFunnel computes the funnel of one content unit from the max depth of
// each contributing session. totalStages below 1 is treated as 1.
func AnalyzeFunnel(depths []int, totalStages int) Funnel {
	if totalStages < 1 {
		totalStages = 1
	}

	f := Funnel{
		TotalStages: totalStages,
		Views:       len(depths),
		Reach:       make([]int, totalStages),
		Drop:        make([]int, totalStages),
	}

	sum := 0
	for _, d := range depths {
		sum += d
		if d >= totalStages {
			f.Completions++
		}
		if d <= 1 {
			f.Bounces++
		}
		for i := 0; i < min(d, totalStages); i++ {
			f.Reach[i]++
		}
	}

	f.depthSum = sum
	if f.Views > 0 {
		f.AvgDepth = round1(float64(sum) / float64(f.Views))
	}
	f.CompletionRate = percentOf(f.Completions, f.Views)
	f.BounceRate = percentOf(f.Bounces, f.Views)

	for i := 0; i < totalStages-1; i++ {
		f.Drop[i] = percentOf(f.Reach[i]-f.Reach[i+1], f.Reach[i])
	}

	return f
}

// ReachPercent returns the share of views that reached stage i+1.
func (f Funnel) ReachPercent(i int) int {
	if i < 0 || i >= len(f.Reach) {
		return 0
	}
	return percentOf(f.Reach[i], f.Views)
}

// DepthPercent is the average share of the unit's stages a session got
// through, as a whole percent.
func (f Funnel) DepthPercent() int {
	return percentOf(f.depthSum, f.Views*f.TotalStages)
}

// BiggestDrop returns the 1-based stage with the largest drop and its
// percent. Ties go to the lowest stage. An empty slice yields (0, 0).
func BiggestDrop(drop []int) (stage int, percent int) {
	for i, d := range drop {
		if stage == 0 || d > percent {
			stage, percent = i+1, d
		}
	}
	return stage, percent
}

// Drop-off bucket names, by the share of a unit's stages a session reached.
const (
	BucketEarly = "Early"
	BucketMid   = "Mid"
	BucketLate  = "Late"
)

const (
	earlyMaxRatio = 0.4
	midMaxRatio   = 0.8
)

// DropoffBucket is the share of (session, unit) pairs whose final depth falls
// in a bucket.
type DropoffBucket struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

// BucketDropoff classifies every (session, unit) pair by depth relative to
// that unit's own stage count, so units of different lengths compare. All
// three buckets are always returned, in Early, Mid, Late order.
func BucketDropoff(s *Sessions, stageIndex map[uint]int) []DropoffBucket {
	var early, mid, late int
	for key, depth := range s.Depths {
		ratio := float64(depth) / float64(totalStagesOf(stageIndex, key.ContentUnitID))
		switch {
		case ratio <= earlyMaxRatio:
			early++
		case ratio <= midMaxRatio:
			mid++
		default:
			late++
		}
	}

	pairs := len(s.Depths)
	return []DropoffBucket{
		{Stage: BucketEarly, Percent: percentOf(early, pairs)},
		{Stage: BucketMid, Percent: percentOf(mid, pairs)},
		{Stage: BucketLate, Percent: percentOf(late, pairs)},
	}
}

// PairSummary aggregates completion over every (session, unit) pair, each
// measured against its own unit's stage count.
type PairSummary struct {
	Pairs          int
	AvgDepth       float64
	CompletionRate int
	BounceRate     int
}

// SummarizePairs computes the organization-wide completion, bounce and
// average depth.
func SummarizePairs(s *Sessions, stageIndex map[uint]int) PairSummary {
	var sum, completions, bounces int
	for key, depth := range s.Depths {
		sum += depth
		if depth >= totalStagesOf(stageIndex, key.ContentUnitID) {
			completions++
		}
		if depth <= 1 {
			bounces++
		}
	}

	summary := PairSummary{Pairs: len(s.Depths)}
	if summary.Pairs > 0 {
		summary.AvgDepth = round1(float64(sum) / float64(summary.Pairs))
	}
	summary.CompletionRate = percentOf(completions, summary.Pairs)
	summary.BounceRate = percentOf(bounces, summary.Pairs)
	return summary
}

func totalStagesOf(stageIndex map[uint]int, unitID uint) int {
	if n, ok := stageIndex[unitID]; ok && n >= 1 {
		return n
	}
	return 1
}
