package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swipely/internal/models"
)

type stageKey struct {
	unitID   uint
	publicID string
}

// Resolver maps public content unit and stage ids to row ids for one
// organization, creating placeholder rows the first time an id is seen.
// Rows are created with a conflict-tolerant insert keyed by the unique
// index, so concurrent resolvers never produce duplicates.
//
// A Resolver memoizes its lookups and is meant to live for one ingestion
// batch. It is not safe for concurrent use.
type Resolver struct {
	db     *gorm.DB
	logger *slog.Logger
	orgID  uint

	units  map[string]ContentUnit
	stages map[stageKey]Stage
}

// NewResolver creates a resolver scoped to orgID.
func NewResolver(db *gorm.DB, logger *slog.Logger, orgID uint) *Resolver {
	return &Resolver{
		db:     db,
		logger: logger,
		orgID:  orgID,
		units:  make(map[string]ContentUnit),
		stages: make(map[stageKey]Stage),
	}
}

// ResolveContentUnit returns the content unit for publicID, creating a
// published placeholder titled after the public id if none exists.
func (r *Resolver) ResolveContentUnit(ctx context.Context, publicID string) (*ContentUnit, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, fmt.Errorf("content unit public id is required")
	}
	if unit, ok := r.units[publicID]; ok {
		return &unit, nil
	}

	db := r.db.WithContext(ctx)
	err := models.PerformWrite(r.logger, db, func(tx *gorm.DB) error {
		placeholder := ContentUnit{
			OrganizationID: r.orgID,
			PublicID:       publicID,
			Title:          publicID,
			Published:      true,
			CreatedAt:      time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "public_id"}},
			DoNothing: true,
		}).Create(&placeholder).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert content unit %s: %w", publicID, err)
	}

	var unit ContentUnit
	if err := db.Where("organization_id = ? AND public_id = ?", r.orgID, publicID).First(&unit).Error; err != nil {
		return nil, fmt.Errorf("failed to load content unit %s: %w", publicID, err)
	}

	r.units[publicID] = unit
	return &unit, nil
}

// ResolveStage returns the stage for publicID within unitID, creating it if
// needed. The stored position only ever moves up, so a late event carrying a
// higher index widens the unit's known length.
func (r *Resolver) ResolveStage(ctx context.Context, unitID uint, publicID string, position int) (*Stage, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, fmt.Errorf("stage public id is required")
	}
	if position < 0 {
		position = 0
	}

	key := stageKey{unitID: unitID, publicID: publicID}
	if stage, ok := r.stages[key]; ok && stage.Position >= position {
		return &stage, nil
	}

	db := r.db.WithContext(ctx)
	err := models.PerformWrite(r.logger, db, func(tx *gorm.DB) error {
		stage := Stage{
			ContentUnitID: unitID,
			PublicID:      publicID,
			Position:      position,
			CreatedAt:     time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "content_unit_id"}, {Name: "public_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"position": gorm.Expr("MAX(stages.position, excluded.position)"),
			}),
		}).Create(&stage).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert stage %s: %w", publicID, err)
	}

	var stage Stage
	if err := db.Where("content_unit_id = ? AND public_id = ?", unitID, publicID).First(&stage).Error; err != nil {
		return nil, fmt.Errorf("failed to load stage %s: %w", publicID, err)
	}

	r.stages[key] = stage
	return &stage, nil
}
