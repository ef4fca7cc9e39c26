package events

import (
	"time"

	"swipely/internal/models"
)

// EventType is the kind of interaction a client reported.
type EventType string

const (
	EventTypeSessionStart EventType = "sessionStart"
	EventTypeStageView    EventType = "stageView"
	EventTypeCTAClick     EventType = "ctaClick"
	EventTypeShareClick   EventType = "shareClick"
	EventTypeReactionTap  EventType = "reactionTap"
	EventTypeInfoOpen     EventType = "infoOpen"
)

var knownEventTypes = map[EventType]bool{
	EventTypeSessionStart: true,
	EventTypeStageView:    true,
	EventTypeCTAClick:     true,
	EventTypeShareClick:   true,
	EventTypeReactionTap:  true,
	EventTypeInfoOpen:     true,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	return knownEventTypes[t]
}

// Event is a stored interaction. Rows are written once and never updated.
type Event struct {
	ID             uint        `gorm:"primaryKey;autoIncrement"`
	OrganizationID uint        `gorm:"index:idx_events_org_occurred;not null"`
	ContentUnitID  uint        `gorm:"index;not null"`
	StageID        *uint       `gorm:"index"`
	StagePublicID  string      `gorm:"size:191"`
	SessionID      string      `gorm:"index;size:36;not null"`
	EventType      EventType   `gorm:"size:32;not null"`
	OccurredAt     time.Time   `gorm:"index:idx_events_org_occurred;not null"`
	Source         string      `gorm:"size:191"`
	Referrer       string
	StageIndex     *int
	Meta           models.JSON `gorm:"type:text"`
	CreatedAt      time.Time
}
