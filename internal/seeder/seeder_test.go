package seeder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/catalog"
	"swipely/internal/events"
	"swipely/internal/seeder"
	"swipely/internal/testsupport"
)

func TestSeed(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	ctx := context.Background()
	now := time.Date(2024, 12, 23, 12, 0, 0, 0, time.UTC)

	s := seeder.NewSeeder(dbManager, logger, 60, 7).WithNow(now)
	result, err := s.Seed(ctx, "Demo", "Demo Co")
	require.NoError(t, err)

	assert.Equal(t, "demo", result.Organization.Slug)
	assert.Equal(t, 60, result.Sessions)
	assert.Zero(t, result.Rejected)
	assert.Greater(t, result.Accepted, 120)

	count, err := events.CountEvents(ctx, db, result.Organization.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(result.Accepted), count)

	var starts int64
	require.NoError(t, db.Model(&events.Event{}).
		Where("event_type = ?", events.EventTypeSessionStart).
		Count(&starts).Error)
	assert.Equal(t, int64(60), starts)

	var newest events.Event
	require.NoError(t, db.Order("occurred_at DESC").First(&newest).Error)
	assert.False(t, newest.OccurredAt.After(now.Add(time.Minute)))

	unit, err := catalog.GetUnit(ctx, db, result.Organization.ID, "summer-quiz")
	require.NoError(t, err)
	assert.Equal(t, "Summer Quiz", unit.Title)
	for _, stage := range unit.Stages {
		assert.GreaterOrEqual(t, stage.Position, 1)
		assert.LessOrEqual(t, stage.Position, 5)
	}
}

func TestSeedIsIdempotentForOrganization(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	first, err := seeder.NewSeeder(dbManager, logger, 5, 1).Seed(context.Background(), "demo", "")
	require.NoError(t, err)
	second, err := seeder.NewSeeder(dbManager, logger, 5, 2).Seed(context.Background(), "demo", "")
	require.NoError(t, err)

	assert.Equal(t, first.Organization.ID, second.Organization.ID)
}

func TestSeedHonoursCancellation(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeder.NewSeeder(dbManager, logger, 5, 1).Seed(ctx, "demo", "")
	assert.ErrorIs(t, err, context.Canceled)
}
