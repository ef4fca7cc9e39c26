package analytics_test

import (
	"fmt"
	"time"

	"swipely/internal/catalog"
	"swipely/internal/events"
)

var t0 = time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)

// stream builds events with increasing ids and timestamps.
type stream struct {
	rows []events.Event
	next uint
}

func (s *stream) add(ev events.Event) *stream {
	s.next++
	ev.ID = s.next
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = t0.Add(time.Duration(s.next) * time.Second)
	}
	s.rows = append(s.rows, ev)
	return s
}

func (s *stream) start(session string, unit uint, source string) *stream {
	return s.add(events.Event{SessionID: session, ContentUnitID: unit, EventType: events.EventTypeSessionStart, Source: source})
}

func (s *stream) view(session string, unit uint, index int) *stream {
	idx := index
	return s.add(events.Event{
		SessionID:     session,
		ContentUnitID: unit,
		EventType:     events.EventTypeStageView,
		StagePublicID: fmt.Sprintf("u%d-s%d", unit, index),
		StageIndex:    &idx,
	})
}

// session starts a session and views stages 1..depth.
func (s *stream) session(session string, unit uint, source string, depth int) *stream {
	s.start(session, unit, source)
	for i := 1; i <= depth; i++ {
		s.view(session, unit, i)
	}
	return s
}

func (s *stream) click(session string, unit uint, stage string) *stream {
	return s.add(events.Event{SessionID: session, ContentUnitID: unit, EventType: events.EventTypeCTAClick, StagePublicID: stage})
}

func (s *stream) other(session string, unit uint, et events.EventType) *stream {
	return s.add(events.Event{SessionID: session, ContentUnitID: unit, EventType: et})
}

// reversed returns the rows newest first, the order reports fetch them in.
func (s *stream) reversed() []events.Event {
	out := make([]events.Event, len(s.rows))
	for i, r := range s.rows {
		out[len(s.rows)-1-i] = r
	}
	return out
}

func testUnit(id uint, publicID, title string, stages int) *catalog.Unit {
	u := &catalog.Unit{ContentUnit: catalog.ContentUnit{ID: id, PublicID: publicID, Title: title, Published: true}}
	for i := 1; i <= stages; i++ {
		u.Stages = append(u.Stages, catalog.Stage{
			ID:            id*100 + uint(i),
			ContentUnitID: id,
			PublicID:      fmt.Sprintf("u%d-s%d", id, i),
			Position:      i,
		})
	}
	return u
}
