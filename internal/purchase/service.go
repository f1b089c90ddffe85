package purchase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gatekeeper/internal/inventory"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPurchaseAborted = errors.New("purchase aborted")
	ErrTiersBusy       = errors.New("tiers are locked by another purchase")
)

// ServiceFeeRate is the flat surcharge applied to every purchase.
const ServiceFeeRate = 0.05

type Inventory interface {
	Reserve(ctx context.Context, tierID string, qty int) error
	Release(ctx context.Context, tierID string, qty int) error
}

type Ledger interface {
	Append(ctx context.Context, tierID, eventID, userID string, price float64) (*models.Ticket, error)
	Revoke(ctx context.Context, ticketID string) error
}

type TierReader interface {
	GetTierByID(ctx context.Context, tierID string) (*models.Tier, error)
}

type TierLocker interface {
	LockTiers(ctx context.Context, tierIDs []string, purchaseID string) (bool, error)
	UnlockTiers(ctx context.Context, tierIDs []string, purchaseID string) error
}

type Publisher interface {
	PublishTicketIssued(ticket models.Ticket) error
	PublishPurchaseCompleted(receipt models.Receipt) error
}

type SalesEmitter interface {
	EmitSale(sale models.Sale)
}

type Payments interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, purchaseID string) (string, error)
}

// PurchaseService turns a cart into issued tickets, all-or-nothing. A
// failure on any line, or anywhere downstream of the reservations, puts
// every claimed unit back and revokes every ticket issued so far; the
// caller never sees a partially filled purchase.
type PurchaseService struct {
	Inventory Inventory
	Ledger    Ledger
	Tiers     TierReader
	Locks     TierLocker
	Kafka     Publisher
	Sales     SalesEmitter
	Payments  Payments // nil when card payment is disabled
	Logger    *logger.Logger
}

func NewPurchaseService(inv Inventory, led Ledger, tiers TierReader, locks TierLocker, kafka Publisher, sales SalesEmitter, payments Payments, log *logger.Logger) *PurchaseService {
	return &PurchaseService{
		Inventory: inv,
		Ledger:    led,
		Tiers:     tiers,
		Locks:     locks,
		Kafka:     kafka,
		Sales:     sales,
		Payments:  payments,
		Logger:    log,
	}
}

type cartLine struct {
	tier *models.Tier
	qty  int
}

func (s *PurchaseService) Purchase(ctx context.Context, userID string, cart map[string]int) (*models.Receipt, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for tierID, qty := range cart {
		if qty <= 0 {
			return nil, fmt.Errorf("tier %s requested quantity %d: %w", tierID, qty, inventory.ErrInvalidQuantity)
		}
	}

	purchaseID := uuid.NewString()
	s.Logger.Info("PURCHASE", fmt.Sprintf("Purchase %s by user %s, %d cart line(s)", purchaseID, userID, len(cart)))

	// Resolve every line up front so pricing failures happen before any
	// capacity is claimed.
	tierIDs := make([]string, 0, len(cart))
	for tierID := range cart {
		tierIDs = append(tierIDs, tierID)
	}
	sort.Strings(tierIDs)

	lines := make([]cartLine, 0, len(tierIDs))
	for _, tierID := range tierIDs {
		tier, err := s.Tiers.GetTierByID(ctx, tierID)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", tierID, inventory.ErrTierNotFound)
		}
		lines = append(lines, cartLine{tier: tier, qty: cart[tierID]})
	}

	// The lock is held only across the reserve step. Overselling is
	// already impossible via the conditional claim; the lock keeps two
	// multi-tier carts from interleaving reserves and releases.
	ok, err := s.Locks.LockTiers(ctx, tierIDs, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("tier lock error: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", purchaseID, ErrTiersBusy)
	}

	reserved := []cartLine{}
	for _, line := range lines {
		if err := s.Inventory.Reserve(ctx, line.tier.TierID, line.qty); err != nil {
			s.releaseAll(ctx, reserved)
			_ = s.Locks.UnlockTiers(ctx, tierIDs, purchaseID)
			return nil, fmt.Errorf("reservation failed for tier %s: %w", line.tier.TierID, err)
		}
		reserved = append(reserved, line)
	}
	_ = s.Locks.UnlockTiers(ctx, tierIDs, purchaseID)

	// Every line is reserved; from here on any failure must compensate.
	issued := []models.Ticket{}
	for _, line := range reserved {
		for i := 0; i < line.qty; i++ {
			ticket, err := s.Ledger.Append(ctx, line.tier.TierID, line.tier.EventID, userID, line.tier.Price)
			if err != nil {
				s.Logger.Error("PURCHASE", fmt.Sprintf("Ticket issuance failed for purchase %s: %v. Rolling back.", purchaseID, err))
				s.rollback(ctx, reserved, issued)
				return nil, fmt.Errorf("%w: %v", ErrPurchaseAborted, err)
			}
			issued = append(issued, *ticket)
		}
	}

	subtotal := 0.0
	for _, line := range reserved {
		subtotal += line.tier.Price * float64(line.qty)
	}
	fee := subtotal * ServiceFeeRate
	total := math.Round(subtotal + fee)

	receipt := models.Receipt{
		PurchaseID: purchaseID,
		UserID:     userID,
		Tickets:    issued,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      total,
	}

	if s.Payments != nil {
		if _, err := s.Payments.CreatePaymentIntent(ctx, int64(total*100), purchaseID); err != nil {
			s.Logger.Error("PURCHASE", fmt.Sprintf("Payment failed for purchase %s: %v. Rolling back.", purchaseID, err))
			s.rollback(ctx, reserved, issued)
			return nil, fmt.Errorf("%w: payment: %v", ErrPurchaseAborted, err)
		}
	}

	s.publish(receipt)
	s.emitSales(receipt)

	s.Logger.Info("PURCHASE", fmt.Sprintf("Purchase %s complete: %d ticket(s), total %.0f", purchaseID, len(issued), total))
	return &receipt, nil
}

// rollback undoes a partially completed purchase: every issued ticket is
// revoked and every claimed unit is released. Revoke before release so
// the tier counter never dips below the live ticket count.
func (s *PurchaseService) rollback(ctx context.Context, reserved []cartLine, issued []models.Ticket) {
	for _, ticket := range issued {
		if err := s.Ledger.Revoke(ctx, ticket.TicketID); err != nil {
			s.Logger.Error("PURCHASE", fmt.Sprintf("Failed to revoke ticket %s during rollback: %v", ticket.TicketID, err))
		}
	}
	s.releaseAll(ctx, reserved)
}

func (s *PurchaseService) releaseAll(ctx context.Context, reserved []cartLine) {
	for _, line := range reserved {
		if err := s.Inventory.Release(ctx, line.tier.TierID, line.qty); err != nil {
			s.Logger.Error("PURCHASE", fmt.Sprintf("Failed to release %d units on tier %s: %v", line.qty, line.tier.TierID, err))
		}
	}
}

// publish streams the result to Kafka. Publish failures are logged and
// swallowed: the purchase is already committed and must not fail here.
func (s *PurchaseService) publish(receipt models.Receipt) {
	if s.Kafka == nil {
		return
	}
	for _, ticket := range receipt.Tickets {
		if err := s.Kafka.PublishTicketIssued(ticket); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish ticket issued event: %v", err))
		}
	}
	if err := s.Kafka.PublishPurchaseCompleted(receipt); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish purchase completed event: %v", err))
	}
}

func (s *PurchaseService) emitSales(receipt models.Receipt) {
	if s.Sales == nil {
		return
	}
	byEvent := map[string]int{}
	for _, ticket := range receipt.Tickets {
		byEvent[ticket.EventID]++
	}
	for eventID, qty := range byEvent {
		s.Sales.EmitSale(models.Sale{
			EventID:    eventID,
			PurchaseID: receipt.PurchaseID,
			UserID:     receipt.UserID,
			Quantity:   qty,
			Total:      receipt.Total,
			IssuedAt:   time.Now(),
		})
	}
}
