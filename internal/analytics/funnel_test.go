package analytics_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/analytics"
)

func TestAnalyzeFunnelThreeSessions(t *testing.T) {
	f := analytics.AnalyzeFunnel([]int{5, 3, 1}, 5)

	assert.Equal(t, 3, f.Views)
	assert.Equal(t, 3.0, f.AvgDepth)
	assert.Equal(t, 33, f.CompletionRate)
	assert.Equal(t, 33, f.BounceRate)
	assert.Equal(t, []int{3, 2, 2, 1, 1}, f.Reach)
	assert.Equal(t, []int{33, 0, 50, 0, 0}, f.Drop)

	stage, percent := analytics.BiggestDrop(f.Drop)
	assert.Equal(t, 3, stage)
	assert.Equal(t, 50, percent)
}

func TestAnalyzeFunnelEarlyDrop(t *testing.T) {
	f := analytics.AnalyzeFunnel([]int{5, 2, 1}, 5)

	assert.Equal(t, 2.7, f.AvgDepth)
	assert.Equal(t, []int{3, 2, 1, 1, 1}, f.Reach)
	assert.Equal(t, []int{33, 50, 0, 0, 0}, f.Drop)

	stage, percent := analytics.BiggestDrop(f.Drop)
	assert.Equal(t, 2, stage)
	assert.Equal(t, 50, percent)
}

func TestReachCountsEachSessionUpToTotalStages(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for depth := 0; depth <= 10; depth++ {
			f := analytics.AnalyzeFunnel([]int{depth}, total)
			sum := 0
			for _, r := range f.Reach {
				sum += r
			}
			require.Equal(t, min(depth, total), sum, "depth %d total %d", depth, total)
		}
	}
}

func TestCompletionAndBounceExtremes(t *testing.T) {
	for total := 1; total <= 8; total++ {
		t.Run(fmt.Sprintf("all complete %d stages", total), func(t *testing.T) {
			f := analytics.AnalyzeFunnel([]int{total, total, total}, total)
			assert.Equal(t, 100, f.CompletionRate)
		})
	}

	// With a single stage, depth 1 is both a bounce and a completion.
	for total := 2; total <= 8; total++ {
		t.Run(fmt.Sprintf("all bounce %d stages", total), func(t *testing.T) {
			f := analytics.AnalyzeFunnel([]int{1, 1, 1, 1}, total)
			assert.Equal(t, 0, f.CompletionRate)
			assert.Equal(t, 100, f.BounceRate)
		})
	}
}

func TestAnalyzeFunnelWithoutSessions(t *testing.T) {
	f := analytics.AnalyzeFunnel(nil, 4)

	assert.Zero(t, f.Views)
	assert.Zero(t, f.AvgDepth)
	assert.Zero(t, f.CompletionRate)
	assert.Zero(t, f.BounceRate)
	assert.Zero(t, f.DepthPercent())
	assert.Equal(t, []int{0, 0, 0, 0}, f.Reach)
	assert.Equal(t, []int{0, 0, 0, 0}, f.Drop)
	assert.Zero(t, f.ReachPercent(0))
}

func TestAnalyzeFunnelClampsTotalStages(t *testing.T) {
	f := analytics.AnalyzeFunnel([]int{3}, 0)
	assert.Equal(t, 1, f.TotalStages)
	assert.Equal(t, []int{1}, f.Reach)
	assert.Equal(t, 100, f.CompletionRate)
	assert.Equal(t, 100, f.DepthPercent())
}

func TestReachPercent(t *testing.T) {
	f := analytics.AnalyzeFunnel([]int{4, 2, 2, 1}, 4)
	assert.Equal(t, 100, f.ReachPercent(0))
	assert.Equal(t, 75, f.ReachPercent(1))
	assert.Equal(t, 25, f.ReachPercent(2))
	assert.Equal(t, 0, f.ReachPercent(9))
	assert.Equal(t, 56, f.DepthPercent())
}

func TestBiggestDrop(t *testing.T) {
	stage, percent := analytics.BiggestDrop([]int{10, 20, 20, 5})
	assert.Equal(t, 2, stage, "ties go to the lowest stage")
	assert.Equal(t, 20, percent)

	stage, percent = analytics.BiggestDrop([]int{0, 0, 0})
	assert.Equal(t, 1, stage)
	assert.Equal(t, 0, percent)

	stage, percent = analytics.BiggestDrop(nil)
	assert.Zero(t, stage)
	assert.Zero(t, percent)
}

func TestBucketDropoff(t *testing.T) {
	s := new(stream).
		session("a", 1, "", 1). // 1/5 early
		session("b", 1, "", 2). // 2/5 early
		session("c", 1, "", 3). // 3/5 mid
		session("d", 1, "", 5). // 5/5 late
		session("a", 2, "", 2). // 2/2 late
		session("e", 2, "", 1)  // 1/2 mid

	sessions := analytics.ReconstructSessions(s.rows)
	buckets := analytics.BucketDropoff(sessions, map[uint]int{1: 5, 2: 2})

	require.Len(t, buckets, 3)
	assert.Equal(t, analytics.DropoffBucket{Stage: analytics.BucketEarly, Percent: 33}, buckets[0])
	assert.Equal(t, analytics.DropoffBucket{Stage: analytics.BucketMid, Percent: 33}, buckets[1])
	assert.Equal(t, analytics.DropoffBucket{Stage: analytics.BucketLate, Percent: 33}, buckets[2])
}

func TestBucketDropoffWithoutPairs(t *testing.T) {
	buckets := analytics.BucketDropoff(analytics.ReconstructSessions(nil), nil)
	require.Len(t, buckets, 3)
	for _, b := range buckets {
		assert.Zero(t, b.Percent)
	}
}

func TestSummarizePairs(t *testing.T) {
	s := new(stream).
		session("a", 1, "", 5).
		session("b", 1, "", 1).
		session("a", 2, "", 2).
		session("c", 3, "", 1) // unit 3 is unknown to the index and counts as one stage

	summary := analytics.SummarizePairs(analytics.ReconstructSessions(s.rows), map[uint]int{1: 5, 2: 4})

	assert.Equal(t, 4, summary.Pairs)
	assert.Equal(t, 2.3, summary.AvgDepth)
	assert.Equal(t, 50, summary.CompletionRate)
	assert.Equal(t, 50, summary.BounceRate)
}
