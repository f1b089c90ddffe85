package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"gatekeeper/internal/config"
	"gatekeeper/internal/database/migrations"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	to := flag.Uint("to", 0, "migrate to a specific schema version")
	seed := flag.Bool("seed", false, "insert demo data after migrating up")
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("MIGRATIONS", fmt.Sprintf("Failed to open database: %v", err))
	}
	bunDB := bun.NewDB(sqlDB, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, *dir, log)
	defer runner.Close()

	switch {
	case *down:
		if err := runner.Down(); err != nil {
			log.Fatal("MIGRATIONS", err.Error())
		}
		log.Info("MIGRATIONS", "Rolled back all migrations")
	case *to > 0:
		if err := runner.To(*to); err != nil {
			log.Fatal("MIGRATIONS", err.Error())
		}
		log.Info("MIGRATIONS", fmt.Sprintf("Migrated to version %d", *to))
	default:
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATIONS", err.Error())
		}
		log.Info("MIGRATIONS", "Migrations applied")
	}

	if *seed && !*down {
		if err := seedDemoData(bunDB); err != nil {
			log.Fatal("MIGRATIONS", fmt.Sprintf("Seeding failed: %v", err))
		}
		log.Info("MIGRATIONS", "Demo data seeded")
	}
}

// seedDemoData inserts a demo host, one public event, and three tiers so
// a fresh local environment has something to sell.
func seedDemoData(db *bun.DB) error {
	ctx := context.Background()
	now := time.Now()

	host := models.User{
		ID:        uuid.NewString(),
		Email:     "host@example.com",
		FullName:  "Demo Host",
		CreatedAt: now,
	}
	if _, err := db.NewInsert().Model(&host).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	event := models.Event{
		ID:          uuid.NewString(),
		HostID:      host.ID,
		Title:       "Gatekeeper Launch Party",
		Description: "Demo event for local development.",
		Location:    "Cape Town",
		StartDate:   now.AddDate(0, 1, 0),
		EndDate:     now.AddDate(0, 1, 0).Add(6 * time.Hour),
		Public:      true,
		CreatedAt:   now,
	}
	if _, err := db.NewInsert().Model(&event).Exec(ctx); err != nil {
		return fmt.Errorf("seed event: %w", err)
	}

	tiers := []models.Tier{
		{TierID: uuid.NewString(), EventID: event.ID, Name: "General", Price: 150, Capacity: 200, Active: true, CreatedAt: now},
		{TierID: uuid.NewString(), EventID: event.ID, Name: "VIP", Price: 450, Capacity: 40, Active: true, CreatedAt: now},
		{TierID: uuid.NewString(), EventID: event.ID, Name: "Backstage", Price: 900, Capacity: 10, Active: true, CreatedAt: now},
	}
	if _, err := db.NewInsert().Model(&tiers).Exec(ctx); err != nil {
		return fmt.Errorf("seed tiers: %w", err)
	}

	return nil
}
