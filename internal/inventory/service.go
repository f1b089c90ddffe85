package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
)

var (
	ErrTierNotFound     = errors.New("tier not found")
	ErrTierUnavailable  = errors.New("tier is not on sale")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

type TierDB interface {
	GetTierByID(ctx context.Context, tierID string) (*models.Tier, error)
	ClaimCapacity(ctx context.Context, tierID string, qty int) (bool, error)
	ReleaseCapacity(ctx context.Context, tierID string, qty int) error
}

// InventoryService enforces the one invariant that matters here: the
// number of live tickets on a tier never exceeds its capacity. All state
// lives in the store; the service itself holds nothing mutable, so any
// number of request handlers can share one instance.
type InventoryService struct {
	DB     TierDB
	Logger *logger.Logger
}

func NewInventoryService(db TierDB, log *logger.Logger) *InventoryService {
	return &InventoryService{DB: db, Logger: log}
}

func (s *InventoryService) GetAvailability(ctx context.Context, tierID string) (*models.Availability, error) {
	tier, err := s.DB.GetTierByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tier %s: %w", tierID, ErrTierNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tier %s: %w", tierID, err)
	}
	return &models.Availability{
		TierID:    tier.TierID,
		Capacity:  tier.Capacity,
		Sold:      tier.Sold,
		Remaining: tier.Capacity - tier.Sold,
	}, nil
}

// Reserve claims qty units of a tier's capacity. The claim is a single
// conditional update, so two buyers racing for the last unit cannot both
// win: one claim matches, the other reports sold out.
func (s *InventoryService) Reserve(ctx context.Context, tierID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}

	tier, err := s.DB.GetTierByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("tier %s: %w", tierID, ErrTierNotFound)
		}
		return fmt.Errorf("failed to fetch tier %s: %w", tierID, err)
	}
	if !tier.Active {
		return fmt.Errorf("tier %s: %w", tierID, ErrTierUnavailable)
	}

	claimed, err := s.DB.ClaimCapacity(ctx, tierID, qty)
	if err != nil {
		return fmt.Errorf("failed to claim capacity on tier %s: %w", tierID, err)
	}
	if !claimed {
		s.Logger.Info("INVENTORY", fmt.Sprintf("Tier %s sold out for quantity %d", tierID, qty))
		return fmt.Errorf("tier %s cannot supply %d units: %w", tierID, qty, ErrCapacityExceeded)
	}

	return nil
}

// Release is the compensating action for Reserve when a purchase aborts
// downstream. It must always be called for exactly the quantities that
// were successfully reserved, never more.
func (s *InventoryService) Release(ctx context.Context, tierID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	if err := s.DB.ReleaseCapacity(ctx, tierID, qty); err != nil {
		return fmt.Errorf("failed to release %d units on tier %s: %w", qty, tierID, err)
	}
	s.Logger.Info("INVENTORY", fmt.Sprintf("Released %d units on tier %s", qty, tierID))
	return nil
}
