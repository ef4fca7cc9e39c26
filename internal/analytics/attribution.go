package analytics

import "sort"

// SourceShare is one traffic source's share of session starts.
type SourceShare struct {
	Source  string `json:"source"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// SourceDistribution returns the share of session starts per source, largest
// first (ties by name). Sources without starts are omitted.
func SourceDistribution(s *Sessions) []SourceShare {
	total := 0
	for _, n := range s.Sources {
		total += n
	}

	out := make([]SourceShare, 0, len(s.Sources))
	for source, n := range s.Sources {
		if n <= 0 {
			continue
		}
		out = append(out, SourceShare{Source: source, Count: n, Percent: percentOf(n, total)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// BestCTA returns the call to action with the most clicks. Exact ties go to
// the one encountered first while folding. ok is false when nothing was
// clicked.
func BestCTA(s *Sessions) (best CTACounter, ok bool) {
	for _, c := range s.CTAs {
		if !ok || c.Clicks > best.Clicks {
			best, ok = c, true
		}
	}
	return best, ok
}

// ClickThroughRate is clicks per session start as a percent with one
// decimal, 0 when there were no starts.
func ClickThroughRate(clicks, starts int) float64 {
	if starts <= 0 {
		return 0
	}
	return round1(float64(clicks) / float64(starts) * 100)
}
