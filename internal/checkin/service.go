package checkin

import (
	"context"
	"errors"
	"fmt"

	"gatekeeper/internal/ledger"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
)

type Outcome string

const (
	OutcomeValid       Outcome = "valid"
	OutcomeAlreadyUsed Outcome = "already_used"
	OutcomeInvalid     Outcome = "invalid"
)

// Result classifies a scan. Ticket is set for known codes so the scanner
// UI can show who the ticket belongs to, including on a duplicate scan.
type Result struct {
	Outcome Outcome        `json:"outcome"`
	Ticket  *models.Ticket `json:"ticket,omitempty"`
}

type Ledger interface {
	FindByCode(ctx context.Context, code string) (*models.Ticket, error)
	SetStatus(ctx context.Context, ticketID, status string) error
}

type Publisher interface {
	PublishTicketCheckedIn(ticket models.Ticket) error
}

type CheckInService struct {
	Ledger Ledger
	Kafka  Publisher // nil when event streaming is disabled
	Logger *logger.Logger
}

func NewCheckInService(led Ledger, kafka Publisher, log *logger.Logger) *CheckInService {
	return &CheckInService{Ledger: led, Kafka: kafka, Logger: log}
}

// Validate runs the scan state machine: a valid ticket transitions to
// checked-in, a re-scan is reported as already used without touching the
// row, and unknown or revoked codes are invalid and persist nothing.
func (s *CheckInService) Validate(ctx context.Context, code string) (*Result, error) {
	ticket, err := s.Ledger.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			s.Logger.Warn("CHECKIN", fmt.Sprintf("Unknown code presented: %s", code))
			return &Result{Outcome: OutcomeInvalid}, nil
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	switch ticket.Status {
	case models.TicketStatusValid:
		if err := s.Ledger.SetStatus(ctx, ticket.TicketID, models.TicketStatusCheckedIn); err != nil {
			return nil, fmt.Errorf("failed to check in ticket %s: %w", ticket.TicketID, err)
		}
		ticket.Status = models.TicketStatusCheckedIn
		s.Logger.Info("CHECKIN", fmt.Sprintf("Ticket %s checked in", ticket.TicketID))
		if s.Kafka != nil {
			if err := s.Kafka.PublishTicketCheckedIn(*ticket); err != nil {
				s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish check-in event: %v", err))
			}
		}
		return &Result{Outcome: OutcomeValid, Ticket: ticket}, nil

	case models.TicketStatusCheckedIn:
		s.Logger.Warn("CHECKIN", fmt.Sprintf("Duplicate scan for ticket %s", ticket.TicketID))
		return &Result{Outcome: OutcomeAlreadyUsed, Ticket: ticket}, nil

	default: // revoked
		s.Logger.Warn("CHECKIN", fmt.Sprintf("Revoked ticket %s presented", ticket.TicketID))
		return &Result{Outcome: OutcomeInvalid, Ticket: ticket}, nil
	}
}
