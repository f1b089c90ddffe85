package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"gatekeeper/internal/ledger"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockDBLayer) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) CountByTier(ctx context.Context, tierID string, statuses []string) (int, error) {
	args := m.Called(ctx, tierID, statuses)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) CountByEvent(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) UpdateTicketStatus(ctx context.Context, ticketID, status string, checkedInAt time.Time) error {
	args := m.Called(ctx, ticketID, status, checkedInAt)
	return args.Error(0)
}

func (m *MockDBLayer) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func newLedger(db *MockDBLayer) *ledger.LedgerService {
	return ledger.NewLedgerService(db, logger.NewLogger())
}

func TestAppend_IssuesValidTicket(t *testing.T) {
	db := new(MockDBLayer)
	svc := newLedger(db)

	db.On("CountByEvent", mock.Anything, "event-1").Return(41, nil)
	db.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	db.On("CreateTicket", mock.Anything, mock.AnythingOfType("models.Ticket")).Return(nil)

	ticket, err := svc.Append(context.Background(), "tier-1", "event-1", "user-1", 250)
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.TicketID)
	assert.Equal(t, "tier-1", ticket.TierID)
	assert.Equal(t, "event-1", ticket.EventID)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, models.TicketStatusValid, ticket.Status)
	assert.Equal(t, 250.0, ticket.PriceAtPurchase)
	assert.False(t, ticket.IssuedAt.IsZero())

	// Code carries the event tag and the zero-padded sequence number.
	assert.True(t, strings.HasPrefix(ticket.Code, "GK-"), ticket.Code)
	assert.Contains(t, ticket.Code, "-0042-")
	db.AssertExpectations(t)
}

func TestAppend_RetriesOnCodeCollision(t *testing.T) {
	db := new(MockDBLayer)
	svc := newLedger(db)

	db.On("CountByEvent", mock.Anything, "event-1").Return(0, nil)
	// First generated code collides, second is free.
	db.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Once()
	db.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()
	db.On("CreateTicket", mock.Anything, mock.AnythingOfType("models.Ticket")).Return(nil)

	_, err := svc.Append(context.Background(), "tier-1", "event-1", "user-1", 100)
	require.NoError(t, err)
	db.AssertNumberOfCalls(t, "CodeExists", 2)
}

func TestAppend_CodeGenerationExhausted(t *testing.T) {
	db := new(MockDBLayer)
	svc := newLedger(db)

	db.On("CountByEvent", mock.Anything, "event-1").Return(0, nil)
	db.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	_, err := svc.Append(context.Background(), "tier-1", "event-1", "user-1", 100)
	assert.ErrorIs(t, err, ledger.ErrCodeGenerationExhausted)
	db.AssertNumberOfCalls(t, "CodeExists", 5)
	db.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestSetStatus_CheckedInStampsTime(t *testing.T) {
	db := new(MockDBLayer)
	svc := newLedger(db)

	db.On("UpdateTicketStatus", mock.Anything, "ticket-1", models.TicketStatusCheckedIn,
		mock.MatchedBy(func(ts time.Time) bool { return !ts.IsZero() })).Return(nil)

	err := svc.SetStatus(context.Background(), "ticket-1", models.TicketStatusCheckedIn)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestRevoke_NoCheckInTime(t *testing.T) {
	db := new(MockDBLayer)
	svc := newLedger(db)

	db.On("UpdateTicketStatus", mock.Anything, "ticket-1", models.TicketStatusRevoked,
		mock.MatchedBy(func(ts time.Time) bool { return ts.IsZero() })).Return(nil)

	err := svc.Revoke(context.Background(), "ticket-1")
	require.NoError(t, err)
	db.AssertExpectations(t)
}
