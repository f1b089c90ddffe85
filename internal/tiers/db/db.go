package db

import (
	"context"

	"gatekeeper/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTier(ctx context.Context, tier models.Tier) error {
	_, err := d.Bun.NewInsert().Model(&tier).Exec(ctx)
	return err
}

func (d *DB) GetTierByID(ctx context.Context, tierID string) (*models.Tier, error) {
	var tier models.Tier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("tier_id = ?", tierID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (d *DB) ListTiers(ctx context.Context, eventID string, includeInactive bool) ([]models.Tier, error) {
	var tiersList []models.Tier
	q := d.Bun.NewSelect().
		Model(&tiersList).
		Where("event_id = ?", eventID).
		Order("created_at ASC")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return tiersList, nil
}

func (d *DB) UpdateTier(ctx context.Context, tier models.Tier) error {
	_, err := d.Bun.NewUpdate().
		Model(&tier).
		Column("name", "price", "capacity", "active", "updated_at").
		Where("tier_id = ?", tier.TierID).
		Exec(ctx)
	return err
}

// ClaimCapacity atomically takes qty units of a tier's capacity. The
// guard lives in the WHERE clause so concurrent claims can never jointly
// push sold past capacity; a claim that would oversell simply matches no
// row and reports false.
func (d *DB) ClaimCapacity(ctx context.Context, tierID string, qty int) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Tier)(nil)).
		Set("sold = sold + ?", qty).
		Where("tier_id = ?", tierID).
		Where("active = ?", true).
		Where("sold + ? <= capacity", qty).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ReleaseCapacity gives back qty units claimed by an aborted purchase.
// Never drops sold below zero.
func (d *DB) ReleaseCapacity(ctx context.Context, tierID string, qty int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Tier)(nil)).
		Set("sold = sold - ?", qty).
		Where("tier_id = ?", tierID).
		Where("sold >= ?", qty).
		Exec(ctx)
	return err
}

func (d *DB) EventExists(ctx context.Context, eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
}
