package ledger

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
	ErrNotFound                = errors.New("ticket not found")
	ErrCodeGenerationExhausted = errors.New("code generation exhausted")
)

// maxCodeAttempts bounds the redemption-code collision retries.
const maxCodeAttempts = 5

type DBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CountByTier(ctx context.Context, tierID string, statuses []string) (int, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	UpdateTicketStatus(ctx context.Context, ticketID, status string, checkedInAt time.Time) error
	GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
}

type LedgerService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewLedgerService(db DBLayer, log *logger.Logger) *LedgerService {
	return &LedgerService{DB: db, Logger: log}
}

// Append issues one ticket against a tier. The redemption code is checked
// for uniqueness before the insert and regenerated on collision, up to
// maxCodeAttempts; the unique column constraint backstops the check.
func (s *LedgerService) Append(ctx context.Context, tierID, eventID, userID string, price float64) (*models.Ticket, error) {
	code, err := s.generateUniqueCode(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ticket := models.Ticket{
		TicketID:        uuid.NewString(),
		TierID:          tierID,
		EventID:         eventID,
		UserID:          userID,
		Code:            code,
		Status:          models.TicketStatusValid,
		PriceAtPurchase: price,
		IssuedAt:        time.Now(),
	}

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to record ticket: %w", err)
	}

	s.Logger.Info("LEDGER", fmt.Sprintf("Issued ticket %s (code %s) for tier %s", ticket.TicketID, code, tierID))
	return &ticket, nil
}

func (s *LedgerService) generateUniqueCode(ctx context.Context, eventID string) (string, error) {
	seq, err := s.DB.CountByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("failed to read event sequence: %w", err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := NewCode(eventID, seq+1)
		taken, err := s.DB.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
		s.Logger.Warn("LEDGER", fmt.Sprintf("Redemption code collision on attempt %d for event %s", attempt+1, eventID))
	}

	return "", fmt.Errorf("no unique code after %d attempts: %w", maxCodeAttempts, ErrCodeGenerationExhausted)
}

func (s *LedgerService) FindByCode(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	return ticket, nil
}

// CountByTier counts tickets on a tier having any of the given statuses.
func (s *LedgerService) CountByTier(ctx context.Context, tierID string, statuses []string) (int, error) {
	return s.DB.CountByTier(ctx, tierID, statuses)
}

func (s *LedgerService) SetStatus(ctx context.Context, ticketID, status string) error {
	checkedInAt := time.Time{}
	if status == models.TicketStatusCheckedIn {
		checkedInAt = time.Now()
	}
	if err := s.DB.UpdateTicketStatus(ctx, ticketID, status, checkedInAt); err != nil {
		return fmt.Errorf("failed to set ticket %s status to %s: %w", ticketID, status, err)
	}
	return nil
}

// Revoke marks a ticket invalid. Tickets are never deleted; a revoked row
// stays in the ledger but no longer counts against tier capacity.
func (s *LedgerService) Revoke(ctx context.Context, ticketID string) error {
	return s.SetStatus(ctx, ticketID, models.TicketStatusRevoked)
}

func (s *LedgerService) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for user %s: %w", userID, err)
	}
	return tickets, nil
}
