package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"swipely/internal/models"
)

// WindowQuery selects the events of one organization inside [From, To].
type WindowQuery struct {
	OrganizationID uint
	ContentUnitID  *uint
	From           time.Time
	To             time.Time
	Limit          int
}

// FetchWindow returns the most recent events matching q, newest first, capped
// at q.Limit. Events older than the cap are not returned.
func FetchWindow(ctx context.Context, db *gorm.DB, q WindowQuery) ([]Event, error) {
	query := db.WithContext(ctx).
		Where("organization_id = ?", q.OrganizationID).
		Where("occurred_at >= ? AND occurred_at <= ?", q.From.UTC(), q.To.UTC())

	if q.ContentUnitID != nil {
		query = query.Where("content_unit_id = ?", *q.ContentUnitID)
	}

	query = query.Order("occurred_at DESC").Order("id DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return rows, nil
}

// CountEvents returns the number of stored events for an organization.
func CountEvents(ctx context.Context, db *gorm.DB, orgID uint) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Event{}).Where("organization_id = ?", orgID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes events that occurred before cutoff, batchSize rows
// per statement so a long purge never holds the write lock for long. A
// batchSize below 1 deletes everything in one statement.
func DeleteOlderThan(ctx context.Context, db *gorm.DB, logger *slog.Logger, cutoff time.Time, batchSize int) (int64, error) {
	cutoff = cutoff.UTC()
	var total int64

	for {
		var affected int64
		err := models.PerformWrite(logger, db.WithContext(ctx), func(tx *gorm.DB) error {
			var res *gorm.DB
			if batchSize > 0 {
				batch := tx.Model(&Event{}).Select("id").Where("occurred_at < ?", cutoff).Limit(batchSize)
				res = tx.Where("id IN (?)", batch).Delete(&Event{})
			} else {
				res = tx.Where("occurred_at < ?", cutoff).Delete(&Event{})
			}
			affected = res.RowsAffected
			return res.Error
		})
		if err != nil {
			return total, fmt.Errorf("failed to delete events before %s: %w", cutoff.Format(time.RFC3339), err)
		}

		total += affected
		if batchSize <= 0 || affected < int64(batchSize) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
