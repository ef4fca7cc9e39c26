package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/catalog"
	"swipely/internal/testsupport"
)

func TestResolveContentUnit(t *testing.T) {
	dbManager, logger, org := testsupport.SetupTestDBManagerWithOrganization(t, "acme")
	db := dbManager.GetConnection()
	ctx := context.Background()

	t.Run("creates a published placeholder on first sight", func(t *testing.T) {
		resolver := catalog.NewResolver(db, logger, org.ID)

		unit, err := resolver.ResolveContentUnit(ctx, "summer-drop")
		require.NoError(t, err)
		assert.NotZero(t, unit.ID)
		assert.Equal(t, org.ID, unit.OrganizationID)
		assert.Equal(t, "summer-drop", unit.Title)
		assert.True(t, unit.Published)
	})

	t.Run("keeps an existing unit untouched", func(t *testing.T) {
		existing := testsupport.CreateTestContentUnit(t, db, org.ID, "launch", "Product Launch", 3)

		unit, err := catalog.NewResolver(db, logger, org.ID).ResolveContentUnit(ctx, "launch")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, unit.ID)
		assert.Equal(t, "Product Launch", unit.Title)
	})

	t.Run("rejects a blank public id", func(t *testing.T) {
		_, err := catalog.NewResolver(db, logger, org.ID).ResolveContentUnit(ctx, "  ")
		assert.Error(t, err)
	})
}

func TestResolveContentUnitIsIdempotent(t *testing.T) {
	dbManager, logger, org := testsupport.SetupTestDBManagerWithOrganization(t, "acme")
	db := dbManager.GetConnection()
	ctx := context.Background()

	// Two batches arriving back to back both see the id for the first time.
	first := catalog.NewResolver(db, logger, org.ID)
	second := catalog.NewResolver(db, logger, org.ID)

	a, err := first.ResolveContentUnit(ctx, "never-seen")
	require.NoError(t, err)
	b, err := second.ResolveContentUnit(ctx, "never-seen")
	require.NoError(t, err)
	c, err := first.ResolveContentUnit(ctx, "never-seen")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.ID, c.ID)

	var count int64
	require.NoError(t, db.Model(&catalog.ContentUnit{}).
		Where("organization_id = ? AND public_id = ?", org.ID, "never-seen").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveContentUnitIsScopedToOrganization(t *testing.T) {
	dbManager, logger, acme := testsupport.SetupTestDBManagerWithOrganization(t, "acme")
	db := dbManager.GetConnection()
	globex := testsupport.CreateTestOrganization(t, db, "globex")
	ctx := context.Background()

	a, err := catalog.NewResolver(db, logger, acme.ID).ResolveContentUnit(ctx, "shared-id")
	require.NoError(t, err)
	b, err := catalog.NewResolver(db, logger, globex.ID).ResolveContentUnit(ctx, "shared-id")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestResolveStage(t *testing.T) {
	dbManager, logger, org := testsupport.SetupTestDBManagerWithOrganization(t, "acme")
	db := dbManager.GetConnection()
	ctx := context.Background()

	resolver := catalog.NewResolver(db, logger, org.ID)
	unit, err := resolver.ResolveContentUnit(ctx, "story")
	require.NoError(t, err)

	s1, err := resolver.ResolveStage(ctx, unit.ID, "intro", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s1.Position)

	t.Run("lower position never moves the stage down", func(t *testing.T) {
		s, err := catalog.NewResolver(db, logger, org.ID).ResolveStage(ctx, unit.ID, "intro", 1)
		require.NoError(t, err)
		assert.Equal(t, s1.ID, s.ID)
		assert.Equal(t, 3, s.Position)
	})

	t.Run("higher position widens the stage", func(t *testing.T) {
		s, err := resolver.ResolveStage(ctx, unit.ID, "intro", 5)
		require.NoError(t, err)
		assert.Equal(t, s1.ID, s.ID)
		assert.Equal(t, 5, s.Position)
	})

	var count int64
	require.NoError(t, db.Model(&catalog.Stage{}).Where("content_unit_id = ?", unit.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
