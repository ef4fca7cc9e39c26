package jobs

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"swipely/internal/events"
	"swipely/internal/metrics"
)

// retentionBatchSize is the number of rows removed per delete statement.
const retentionBatchSize = 1000

// RetentionJob deletes events older than the retention period.
type RetentionJob struct {
	db            *gorm.DB
	logger        *slog.Logger
	retentionDays int
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewRetentionJob creates the job. retentionDays below 1 disables it.
func NewRetentionJob(db *gorm.DB, logger *slog.Logger, retentionDays int, m *metrics.Metrics) *RetentionJob {
	return &RetentionJob{
		db:            db,
		logger:        logger,
		retentionDays: retentionDays,
		metrics:       m,
		now:           time.Now,
	}
}

// Run removes every event that occurred before the retention cutoff and
// returns how many were deleted.
func (j *RetentionJob) Run(ctx context.Context) (int64, error) {
	if j.retentionDays < 1 {
		j.logger.Debug("Event retention disabled")
		return 0, nil
	}

	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	j.logger.Info("Starting cleanup of old events",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff_date", cutoff))

	deleted, err := events.DeleteOlderThan(ctx, j.db, j.logger, cutoff, retentionBatchSize)
	if j.metrics != nil && deleted > 0 {
		j.metrics.EventsPurged.Add(float64(deleted))
	}
	if err != nil {
		j.logger.Error("Failed to delete old events",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", deleted))
		return deleted, err
	}

	j.logger.Info("Cleaned up old events",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.retentionDays))
	return deleted, nil
}
