package events

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"swipely/internal/models"
	"swipely/internal/pkg/sources"
)

// Meta keys lifted out of the open metadata bag into typed fields.
const (
	metaStageIndex    = "stageIndex"
	metaStagePublicID = "stagePublicId"
)

// EventInput is one event as sent by the capture client.
type EventInput struct {
	EventType     string         `json:"eventType"`
	SessionID     string         `json:"sessionId"`
	OccurredAt    time.Time      `json:"occurredAt"`
	ContentUnitID string         `json:"contentUnitId"`
	StageID       string         `json:"stageId,omitempty"`
	Source        string         `json:"source,omitempty"`
	Referrer      string         `json:"referrer,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// ValidationError rejects a single event of a batch.
type ValidationError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event %d: %s: %s", e.Index, e.Field, e.Reason)
}

// NormalizedEvent is a validated event whose public identifiers still need
// resolving against the catalog.
type NormalizedEvent struct {
	EventType           EventType
	SessionID           string
	OccurredAt          time.Time
	ContentUnitPublicID string
	StagePublicID       string
	StageIndex          *int
	Source              string
	Referrer            string
	Meta                models.JSON
}

// Normalize validates in and lifts the typed fields out of its metadata.
// Malformed identifiers or missing required fields yield a ValidationError;
// an unusable stage index is dropped silently.
func Normalize(index int, in EventInput) (*NormalizedEvent, error) {
	eventType := EventType(strings.TrimSpace(in.EventType))
	if !eventType.Valid() {
		return nil, &ValidationError{Index: index, Field: "eventType", Reason: fmt.Sprintf("unknown event type %q", in.EventType)}
	}

	sessionID, err := uuid.Parse(strings.TrimSpace(in.SessionID))
	if err != nil {
		return nil, &ValidationError{Index: index, Field: "sessionId", Reason: "must be a UUID"}
	}

	unitID := strings.TrimSpace(in.ContentUnitID)
	if unitID == "" {
		return nil, &ValidationError{Index: index, Field: "contentUnitId", Reason: "is required"}
	}

	if in.OccurredAt.IsZero() {
		return nil, &ValidationError{Index: index, Field: "occurredAt", Reason: "is required"}
	}

	meta := make(map[string]any, len(in.Meta))
	for k, v := range in.Meta {
		meta[k] = v
	}

	stagePublicID := strings.TrimSpace(in.StageID)
	if raw, ok := meta[metaStagePublicID]; ok {
		if s, isString := raw.(string); isString && stagePublicID == "" {
			stagePublicID = strings.TrimSpace(s)
		}
		delete(meta, metaStagePublicID)
	}

	var stageIndex *int
	if raw, ok := meta[metaStageIndex]; ok {
		if n, parsed := ParseStageIndex(raw); parsed {
			stageIndex = &n
		}
		delete(meta, metaStageIndex)
	}

	bag, err := models.NewJSON(meta)
	if err != nil {
		return nil, &ValidationError{Index: index, Field: "meta", Reason: "is not encodable"}
	}

	return &NormalizedEvent{
		EventType:           eventType,
		SessionID:           sessionID.String(),
		OccurredAt:          in.OccurredAt.UTC(),
		ContentUnitPublicID: unitID,
		StagePublicID:       stagePublicID,
		StageIndex:          stageIndex,
		Source:              sources.Normalize(in.Source, in.Referrer),
		Referrer:            strings.TrimSpace(in.Referrer),
		Meta:                bag,
	}, nil
}

// ParseStageIndex reads a stage index from a decoded metadata value. Numbers
// and numeric strings are accepted and truncated toward zero; non-finite or
// negative values are not.
func ParseStageIndex(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
