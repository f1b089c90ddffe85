package tiers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("tier not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

type DBLayer interface {
	CreateTier(ctx context.Context, tier models.Tier) error
	GetTierByID(ctx context.Context, tierID string) (*models.Tier, error)
	ListTiers(ctx context.Context, eventID string, includeInactive bool) ([]models.Tier, error)
	UpdateTier(ctx context.Context, tier models.Tier) error
	EventExists(ctx context.Context, eventID string) (bool, error)
}

type TierService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewTierService(db DBLayer, log *logger.Logger) *TierService {
	return &TierService{DB: db, Logger: log}
}

func (s *TierService) CreateTier(ctx context.Context, eventID, name string, price float64, capacity int) (*models.Tier, error) {
	if name == "" {
		return nil, fmt.Errorf("tier name is required: %w", ErrInvalidArgument)
	}
	if price < 0 {
		return nil, fmt.Errorf("price must not be negative: %w", ErrInvalidArgument)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative: %w", ErrInvalidArgument)
	}

	exists, err := s.DB.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate event: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}

	tier := models.Tier{
		TierID:    uuid.NewString(),
		EventID:   eventID,
		Name:      name,
		Price:     price,
		Capacity:  capacity,
		Sold:      0,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := s.DB.CreateTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create tier: %w", err)
	}

	s.Logger.Info("TIERS", fmt.Sprintf("Created tier %s (%s) for event %s, capacity %d", tier.TierID, name, eventID, capacity))
	return &tier, nil
}

func (s *TierService) GetTier(ctx context.Context, tierID string) (*models.Tier, error) {
	tier, err := s.DB.GetTierByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tier %s: %w", tierID, err)
	}
	return tier, nil
}

// ListTiers returns the tiers of an event. Buyer-facing callers get only
// active tiers; host-facing callers pass includeInactive=true.
func (s *TierService) ListTiers(ctx context.Context, eventID string, includeInactive bool) ([]models.Tier, error) {
	exists, err := s.DB.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate event: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}

	tiersList, err := s.DB.ListTiers(ctx, eventID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers for event %s: %w", eventID, err)
	}
	return tiersList, nil
}

// UpdateTier applies host edits to a tier. A capacity edit below the
// current sold count is rejected: accepting it would leave the tier
// oversold with no way to reconcile the ledger.
func (s *TierService) UpdateTier(ctx context.Context, tierID string, update models.TierUpdate) (*models.Tier, error) {
	tier, err := s.GetTier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("tier name must not be empty: %w", ErrInvalidArgument)
		}
		tier.Name = *update.Name
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return nil, fmt.Errorf("price must not be negative: %w", ErrInvalidArgument)
		}
		tier.Price = *update.Price
	}
	if update.Capacity != nil {
		if *update.Capacity < 0 {
			return nil, fmt.Errorf("capacity must not be negative: %w", ErrInvalidArgument)
		}
		if *update.Capacity < tier.Sold {
			return nil, fmt.Errorf("capacity %d is below sold count %d: %w", *update.Capacity, tier.Sold, ErrInvalidArgument)
		}
		tier.Capacity = *update.Capacity
	}
	if update.Active != nil {
		tier.Active = *update.Active
	}
	tier.UpdatedAt = time.Now()

	if err := s.DB.UpdateTier(ctx, *tier); err != nil {
		return nil, fmt.Errorf("failed to update tier %s: %w", tierID, err)
	}

	s.Logger.Info("TIERS", fmt.Sprintf("Updated tier %s", tierID))
	return tier, nil
}
