package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"swipely/internal/catalog"
	"swipely/internal/models"
	"swipely/internal/organizations"
)

// ErrBatchTooLarge is returned when a batch exceeds the ingestion limit.
var ErrBatchTooLarge = errors.New("event batch too large")

// insertChunk bounds the rows per INSERT statement.
const insertChunk = 100

// CollectResult reports the outcome of an ingestion batch.
type CollectResult struct {
	Accepted int                `json:"accepted"`
	Rejected []*ValidationError `json:"rejected"`
}

// CollectEvents validates and stores a batch of events for the organization
// identified by slug. An unknown organization or a storage failure fails the
// whole batch; an invalid event is only rejected on its own.
func CollectEvents(ctx context.Context, db *gorm.DB, logger *slog.Logger, slug string, inputs []EventInput, maxBatch int) (*CollectResult, error) {
	if maxBatch > 0 && len(inputs) > maxBatch {
		return nil, fmt.Errorf("%w: %d events, limit %d", ErrBatchTooLarge, len(inputs), maxBatch)
	}

	org, err := organizations.GetOrganizationBySlug(db.WithContext(ctx), slug)
	if err != nil {
		return nil, err
	}

	result := &CollectResult{Rejected: []*ValidationError{}}
	resolver := catalog.NewResolver(db, logger, org.ID)
	rows := make([]Event, 0, len(inputs))
	now := time.Now().UTC()

	for i, in := range inputs {
		normalized, err := Normalize(i, in)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				result.Rejected = append(result.Rejected, verr)
				continue
			}
			return nil, err
		}

		row, err := buildRow(ctx, resolver, org.ID, normalized)
		if err != nil {
			logger.Error("Failed to resolve event entities",
				slog.String("organization", org.Slug),
				slog.String("content_unit", normalized.ContentUnitPublicID),
				slog.Any("error", err))
			return nil, err
		}
		row.CreatedAt = now
		rows = append(rows, *row)
	}

	if len(rows) > 0 {
		err = models.PerformWrite(logger, db.WithContext(ctx), func(tx *gorm.DB) error {
			return tx.CreateInBatches(rows, insertChunk).Error
		})
		if err != nil {
			logger.Error("Failed to store events", slog.String("organization", org.Slug), slog.Any("error", err))
			return nil, fmt.Errorf("failed to store events: %w", err)
		}
	}

	result.Accepted = len(rows)
	logger.Debug("Collected events",
		slog.String("organization", org.Slug),
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", len(result.Rejected)))

	return result, nil
}

func buildRow(ctx context.Context, resolver *catalog.Resolver, orgID uint, ev *NormalizedEvent) (*Event, error) {
	unit, err := resolver.ResolveContentUnit(ctx, ev.ContentUnitPublicID)
	if err != nil {
		return nil, err
	}

	row := &Event{
		OrganizationID: orgID,
		ContentUnitID:  unit.ID,
		StagePublicID:  ev.StagePublicID,
		SessionID:      ev.SessionID,
		EventType:      ev.EventType,
		OccurredAt:     ev.OccurredAt,
		Source:         ev.Source,
		Referrer:       ev.Referrer,
		StageIndex:     ev.StageIndex,
		Meta:           ev.Meta,
	}

	if ev.StagePublicID != "" {
		position := 0
		if ev.StageIndex != nil {
			position = *ev.StageIndex
		}
		stage, err := resolver.ResolveStage(ctx, unit.ID, ev.StagePublicID, position)
		if err != nil {
			return nil, err
		}
		row.StageID = &stage.ID
	}

	return row, nil
}
