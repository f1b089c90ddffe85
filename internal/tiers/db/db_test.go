package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gatekeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupDB(t *testing.T) *DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil), (*models.Tier)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func seedTier(t *testing.T, d *DB, capacity, sold int, active bool) models.Tier {
	tier := models.Tier{
		TierID:    "tier-1",
		EventID:   "event-1",
		Name:      "GA",
		Price:     100,
		Capacity:  capacity,
		Sold:      sold,
		Active:    active,
		CreatedAt: time.Now(),
	}
	require.NoError(t, d.CreateTier(context.Background(), tier))
	return tier
}

func TestClaimCapacity_StopsAtCapacity(t *testing.T) {
	d := setupDB(t)
	seedTier(t, d, 4, 0, true)
	ctx := context.Background()

	claimed, err := d.ClaimCapacity(ctx, "tier-1", 2)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = d.ClaimCapacity(ctx, "tier-1", 2)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Tier is now full; any further claim matches no row.
	claimed, err = d.ClaimCapacity(ctx, "tier-1", 1)
	require.NoError(t, err)
	assert.False(t, claimed)

	tier, err := d.GetTierByID(ctx, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 4, tier.Sold)
}

func TestClaimCapacity_ZeroCapacityTier(t *testing.T) {
	d := setupDB(t)
	seedTier(t, d, 0, 0, true)

	claimed, err := d.ClaimCapacity(context.Background(), "tier-1", 1)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimCapacity_InactiveTier(t *testing.T) {
	d := setupDB(t)
	seedTier(t, d, 10, 0, false)

	claimed, err := d.ClaimCapacity(context.Background(), "tier-1", 1)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimCapacity_RejectsPartialFill(t *testing.T) {
	d := setupDB(t)
	seedTier(t, d, 5, 3, true)

	// Only 2 units remain; a claim for 3 must not partially fill.
	claimed, err := d.ClaimCapacity(context.Background(), "tier-1", 3)
	require.NoError(t, err)
	assert.False(t, claimed)

	tier, err := d.GetTierByID(context.Background(), "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 3, tier.Sold)
}

func TestReleaseCapacity(t *testing.T) {
	d := setupDB(t)
	seedTier(t, d, 10, 4, true)
	ctx := context.Background()

	require.NoError(t, d.ReleaseCapacity(ctx, "tier-1", 3))

	tier, err := d.GetTierByID(ctx, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tier.Sold)

	// A release larger than sold matches no row; sold stays put.
	require.NoError(t, d.ReleaseCapacity(ctx, "tier-1", 5))
	tier, err = d.GetTierByID(ctx, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tier.Sold)
}

func TestListTiers_FiltersInactive(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()

	require.NoError(t, d.CreateTier(ctx, models.Tier{TierID: "t1", EventID: "event-1", Name: "GA", Capacity: 10, Active: true, CreatedAt: time.Now()}))
	require.NoError(t, d.CreateTier(ctx, models.Tier{TierID: "t2", EventID: "event-1", Name: "Early Bird", Capacity: 10, Active: false, CreatedAt: time.Now().Add(time.Second)}))

	visible, err := d.ListTiers(ctx, "event-1", false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "t1", visible[0].TierID)

	all, err := d.ListTiers(ctx, "event-1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEventExists(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()

	_, err := d.Bun.NewInsert().Model(&models.Event{
		ID: "event-1", HostID: "host-1", Title: "Launch",
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}).Exec(ctx)
	require.NoError(t, err)

	exists, err := d.EventExists(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.EventExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}
