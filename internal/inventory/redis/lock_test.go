package redis

import (
	"context"
	"log"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *Redis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return &Redis{Client: client, Logger: log.Default()}
}

func TestLockTier_Exclusive(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	locked, err := r.LockTier(ctx, "tier-1", "purchase-a")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = r.LockTier(ctx, "tier-1", "purchase-b")
	require.NoError(t, err)
	assert.False(t, locked, "a held lock cannot be taken by another purchase")
}

func TestUnlockTier_OwnerOnly(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	_, err := r.LockTier(ctx, "tier-1", "purchase-a")
	require.NoError(t, err)

	// A non-owner unlock is a no-op.
	require.NoError(t, r.UnlockTier(ctx, "tier-1", "purchase-b"))
	locked, err := r.LockTier(ctx, "tier-1", "purchase-c")
	require.NoError(t, err)
	assert.False(t, locked, "lock must survive a non-owner unlock")

	require.NoError(t, r.UnlockTier(ctx, "tier-1", "purchase-a"))
	locked, err = r.LockTier(ctx, "tier-1", "purchase-c")
	require.NoError(t, err)
	assert.True(t, locked, "owner unlock frees the tier")
}

func TestUnlockTier_MissingLockIsNoop(t *testing.T) {
	r := setupTestRedis(t)
	assert.NoError(t, r.UnlockTier(context.Background(), "tier-1", "purchase-a"))
}

func TestLockTiers_AllOrNothing(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	// Another purchase already holds one tier of the cart.
	locked, err := r.LockTier(ctx, "tier-b", "purchase-other")
	require.NoError(t, err)
	require.True(t, locked)

	locked, err = r.LockTiers(ctx, []string{"tier-c", "tier-a", "tier-b"}, "purchase-a")
	require.NoError(t, err)
	assert.False(t, locked)

	// The partial acquisition must have been rolled back.
	free, err := r.LockTier(ctx, "tier-a", "purchase-x")
	require.NoError(t, err)
	assert.True(t, free, "tier-a must be released after the failed cart lock")
}

func TestLockTiers_ThenUnlockTiers(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()
	tierIDs := []string{"tier-a", "tier-b", "tier-c"}

	locked, err := r.LockTiers(ctx, tierIDs, "purchase-a")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = r.LockTiers(ctx, tierIDs, "purchase-b")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, r.UnlockTiers(ctx, tierIDs, "purchase-a"))

	locked, err = r.LockTiers(ctx, tierIDs, "purchase-b")
	require.NoError(t, err)
	assert.True(t, locked)
}
