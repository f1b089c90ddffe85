package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds per-tier purchase locks. The conditional capacity update in
// the tiers db layer is what actually prevents overselling; these locks
// only serialize multi-tier carts so two large purchases touching the
// same tiers don't interleave their reserve/release sequences.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getTierLockDuration returns the tier lock TTL from the environment or
// the default. The TTL is a safety net for crashed holders; the purchase
// path releases explicitly.
func (r *Redis) getTierLockDuration() time.Duration {
	defaultDuration := 10 * time.Second

	lockTTLStr := os.Getenv("TIER_LOCK_TTL_SECONDS")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLSec, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid TIER_LOCK_TTL_SECONDS value '" + lockTTLStr + "', using default 10 seconds")
		return defaultDuration
	}

	return time.Duration(lockTTLSec) * time.Second
}

// LockTier locks a single tier for a purchase attempt.
func (r *Redis) LockTier(ctx context.Context, tierID, purchaseID string) (bool, error) {
	key := "tier_lock:" + tierID
	ok, err := r.Client.SetNX(ctx, key, purchaseID, r.getTierLockDuration()).Result()
	return ok, err
}

// UnlockTier releases a tier lock, but only if this purchase owns it.
func (r *Redis) UnlockTier(ctx context.Context, tierID, purchaseID string) error {
	key := fmt.Sprintf("tier_lock:%s", tierID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired or released
	}
	if err != nil {
		return err
	}
	if val == purchaseID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockTiers locks every tier of a cart, always in sorted order so two
// overlapping carts cannot deadlock each other. On any failure every
// already-taken lock is released before returning.
func (r *Redis) LockTiers(ctx context.Context, tierIDs []string, purchaseID string) (bool, error) {
	sorted := append([]string(nil), tierIDs...)
	sort.Strings(sorted)

	locked := []string{}
	for _, tierID := range sorted {
		ok, err := r.LockTier(ctx, tierID, purchaseID)
		if err != nil {
			for _, l := range locked {
				_ = r.UnlockTier(ctx, l, purchaseID)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.UnlockTier(ctx, l, purchaseID)
			}
			return false, nil
		}
		locked = append(locked, tierID)
	}
	return true, nil
}

// UnlockTiers releases all tier locks held by a purchase.
func (r *Redis) UnlockTiers(ctx context.Context, tierIDs []string, purchaseID string) error {
	var firstErr error
	for _, tierID := range tierIDs {
		err := r.UnlockTier(ctx, tierID, purchaseID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
