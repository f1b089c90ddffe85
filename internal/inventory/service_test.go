package inventory_test

import (
	"context"
	"database/sql"
	"testing"

	"gatekeeper/internal/inventory"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTierDB struct {
	mock.Mock
}

func (m *MockTierDB) GetTierByID(ctx context.Context, tierID string) (*models.Tier, error) {
	args := m.Called(ctx, tierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tier), args.Error(1)
}

func (m *MockTierDB) ClaimCapacity(ctx context.Context, tierID string, qty int) (bool, error) {
	args := m.Called(ctx, tierID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockTierDB) ReleaseCapacity(ctx context.Context, tierID string, qty int) error {
	args := m.Called(ctx, tierID, qty)
	return args.Error(0)
}

func newService(db *MockTierDB) *inventory.InventoryService {
	return inventory.NewInventoryService(db, logger.NewLogger())
}

func activeTier(sold int) *models.Tier {
	return &models.Tier{TierID: "tier-1", EventID: "event-1", Name: "GA", Price: 100, Capacity: 10, Sold: sold, Active: true}
}

func TestReserve_Success(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	db.On("GetTierByID", mock.Anything, "tier-1").Return(activeTier(0), nil)
	db.On("ClaimCapacity", mock.Anything, "tier-1", 3).Return(true, nil)

	err := svc.Reserve(context.Background(), "tier-1", 3)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestReserve_InvalidQuantity(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	assert.ErrorIs(t, svc.Reserve(context.Background(), "tier-1", 0), inventory.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.Reserve(context.Background(), "tier-1", -2), inventory.ErrInvalidQuantity)
	db.AssertNotCalled(t, "ClaimCapacity", mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_UnknownTier(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	db.On("GetTierByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	err := svc.Reserve(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, inventory.ErrTierNotFound)
}

func TestReserve_InactiveTier(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	tier := activeTier(0)
	tier.Active = false
	db.On("GetTierByID", mock.Anything, "tier-1").Return(tier, nil)

	err := svc.Reserve(context.Background(), "tier-1", 1)
	assert.ErrorIs(t, err, inventory.ErrTierUnavailable)
	db.AssertNotCalled(t, "ClaimCapacity", mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_SoldOut(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	db.On("GetTierByID", mock.Anything, "tier-1").Return(activeTier(10), nil)
	db.On("ClaimCapacity", mock.Anything, "tier-1", 1).Return(false, nil)

	err := svc.Reserve(context.Background(), "tier-1", 1)
	assert.ErrorIs(t, err, inventory.ErrCapacityExceeded)
}

func TestRelease_InvalidQuantity(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	assert.ErrorIs(t, svc.Release(context.Background(), "tier-1", 0), inventory.ErrInvalidQuantity)
	db.AssertNotCalled(t, "ReleaseCapacity", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAvailability(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	db.On("GetTierByID", mock.Anything, "tier-1").Return(activeTier(7), nil)

	avail, err := svc.GetAvailability(context.Background(), "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 10, avail.Capacity)
	assert.Equal(t, 7, avail.Sold)
	assert.Equal(t, 3, avail.Remaining)
}

func TestGetAvailability_UnknownTier(t *testing.T) {
	db := new(MockTierDB)
	svc := newService(db)

	db.On("GetTierByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.GetAvailability(context.Background(), "missing")
	assert.ErrorIs(t, err, inventory.ErrTierNotFound)
}
