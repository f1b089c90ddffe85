package db

import (
	"context"

	"gatekeeper/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "description", "location", "start_date", "end_date", "poster_url", "public", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

func (d *DB) ListPublicEvents(ctx context.Context) ([]models.Event, error) {
	var eventsList []models.Event
	err := d.Bun.NewSelect().
		Model(&eventsList).
		Where("public = ?", true).
		Order("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return eventsList, nil
}

func (d *DB) ListEventsByHost(ctx context.Context, hostID string) ([]models.Event, error) {
	var eventsList []models.Event
	err := d.Bun.NewSelect().
		Model(&eventsList).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return eventsList, nil
}
