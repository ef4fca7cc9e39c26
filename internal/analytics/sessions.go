// Package analytics folds raw interaction events into session-level funnel
// metrics and assembles them into reports.
package analytics

import (
	"slices"
	"sort"
	"strings"

	"swipely/internal/events"
	"swipely/internal/pkg/sources"
)

// PairKey identifies one session's interaction with one content unit.
type PairKey struct {
	SessionID     string
	ContentUnitID uint
}

// CTAKey identifies a call to action by the stage it sits on.
type CTAKey struct {
	ContentUnitID uint
	StagePublicID string
}

// CTACounter counts clicks on one call to action.
type CTACounter struct {
	CTAKey
	Clicks int
}

// UnitCounters are the per content unit interaction totals.
type UnitCounters struct {
	CTAClicks int
	Shares    int
	Reactions int
	InfoOpens int
}

// Sessions is the folded state of an event batch.
type Sessions struct {
	// Started holds the sessions that emitted a sessionStart.
	Started map[string]bool
	// Sources counts sessionStart events per attribution label.
	Sources map[string]int
	// Depths is the deepest stage index reached per (session, unit).
	Depths map[PairKey]int
	// Units holds interaction counters per content unit id.
	Units map[uint]*UnitCounters
	// CTAs lists click counters in the order they were first encountered.
	CTAs []CTACounter

	ctaIndex map[CTAKey]int
}

func newSessions() *Sessions {
	return &Sessions{
		Started:  make(map[string]bool),
		Sources:  make(map[string]int),
		Depths:   make(map[PairKey]int),
		Units:    make(map[uint]*UnitCounters),
		ctaIndex: make(map[CTAKey]int),
	}
}

// ReconstructSessions folds evs into per-session aggregates in one pass. The
// input may be in any order: events are folded oldest first (ties by id) so
// the CTA encounter order is stable.
func ReconstructSessions(evs []events.Event) *Sessions {
	ordered := slices.Clone(evs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	s := newSessions()
	for i := range ordered {
		s.fold(&ordered[i])
	}
	return s
}

func (s *Sessions) fold(ev *events.Event) {
	switch ev.EventType {
	case events.EventTypeSessionStart:
		if s.Started[ev.SessionID] {
			return
		}
		s.Started[ev.SessionID] = true
		source := strings.TrimSpace(ev.Source)
		if source == "" {
			source = sources.Direct
		}
		s.Sources[source]++

	case events.EventTypeStageView:
		if ev.StageIndex == nil {
			return
		}
		key := PairKey{SessionID: ev.SessionID, ContentUnitID: ev.ContentUnitID}
		if depth, ok := s.Depths[key]; !ok || *ev.StageIndex > depth {
			s.Depths[key] = *ev.StageIndex
		}

	case events.EventTypeCTAClick:
		s.unit(ev.ContentUnitID).CTAClicks++
		key := CTAKey{ContentUnitID: ev.ContentUnitID, StagePublicID: ev.StagePublicID}
		if idx, ok := s.ctaIndex[key]; ok {
			s.CTAs[idx].Clicks++
			return
		}
		s.ctaIndex[key] = len(s.CTAs)
		s.CTAs = append(s.CTAs, CTACounter{CTAKey: key, Clicks: 1})

	case events.EventTypeShareClick:
		s.unit(ev.ContentUnitID).Shares++

	case events.EventTypeReactionTap:
		s.unit(ev.ContentUnitID).Reactions++

	case events.EventTypeInfoOpen:
		s.unit(ev.ContentUnitID).InfoOpens++
	}
}

func (s *Sessions) unit(id uint) *UnitCounters {
	c, ok := s.Units[id]
	if !ok {
		c = &UnitCounters{}
		s.Units[id] = c
	}
	return c
}

// TotalStarts is the number of distinct sessions that emitted sessionStart.
func (s *Sessions) TotalStarts() int {
	return len(s.Started)
}

// TotalCTAClicks sums CTA clicks over every content unit.
func (s *Sessions) TotalCTAClicks() int {
	total := 0
	for _, c := range s.Units {
		total += c.CTAClicks
	}
	return total
}

// Counters returns the counters for a unit, zero if it saw no interactions.
func (s *Sessions) Counters(unitID uint) UnitCounters {
	if c, ok := s.Units[unitID]; ok {
		return *c
	}
	return UnitCounters{}
}

// DepthsFor returns the max depth of every session that viewed unitID,
// in ascending order.
func (s *Sessions) DepthsFor(unitID uint) []int {
	var depths []int
	for key, d := range s.Depths {
		if key.ContentUnitID == unitID {
			depths = append(depths, d)
		}
	}
	sort.Ints(depths)
	return depths
}
