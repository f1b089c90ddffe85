package stats

import (
	"context"
	"sort"

	"gatekeeper/internal/models"

	"github.com/uptrace/bun"
)

// Service builds the host-facing sales projection. It reads the ledger
// and the tiers table directly; revenue always comes from the ledger's
// price-at-purchase, not from current tier prices.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// TierStats contains sales metrics for a single tier.
type TierStats struct {
	TierID    string  `json:"tier_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Capacity  int     `json:"capacity"`
	Sold      int     `json:"sold"`
	Remaining int     `json:"remaining"`
	Revenue   float64 `json:"revenue"`
}

// DailySalesMetrics contains metrics for a single day.
type DailySalesMetrics struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	TicketsSold int     `json:"tickets_sold"`
}

// EventStats is the aggregated view behind the manage-event dashboard.
type EventStats struct {
	EventID          string              `json:"event_id"`
	TotalRevenue     float64             `json:"total_revenue"`
	TotalTicketsSold int                 `json:"total_tickets_sold"`
	TotalCapacity    int                 `json:"total_capacity"`
	Tiers            []TierStats         `json:"tiers"`
	DailySales       []DailySalesMetrics `json:"daily_sales"`
}

// GetEventStats returns per-tier and per-day sales for an event.
// Revoked tickets count toward neither sold nor revenue.
func (s *Service) GetEventStats(ctx context.Context, eventID string) (*EventStats, error) {
	var tiersList []models.Tier
	err := s.db.NewSelect().
		Model(&tiersList).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var tickets []models.Ticket
	err = s.db.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Where("status != ?", models.TicketStatusRevoked).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	soldByTier := make(map[string]int)
	revenueByTier := make(map[string]float64)
	daily := make(map[string]*DailySalesMetrics)

	for _, ticket := range tickets {
		soldByTier[ticket.TierID]++
		revenueByTier[ticket.TierID] += ticket.PriceAtPurchase

		day := ticket.IssuedAt.Format("2006-01-02")
		if daily[day] == nil {
			daily[day] = &DailySalesMetrics{Date: day}
		}
		daily[day].TicketsSold++
		daily[day].Revenue += ticket.PriceAtPurchase
	}

	result := &EventStats{EventID: eventID}
	for _, tier := range tiersList {
		sold := soldByTier[tier.TierID]
		revenue := revenueByTier[tier.TierID]
		result.Tiers = append(result.Tiers, TierStats{
			TierID:    tier.TierID,
			Name:      tier.Name,
			Price:     tier.Price,
			Capacity:  tier.Capacity,
			Sold:      sold,
			Remaining: tier.Capacity - sold,
			Revenue:   revenue,
		})
		result.TotalRevenue += revenue
		result.TotalTicketsSold += sold
		result.TotalCapacity += tier.Capacity
	}

	for _, metrics := range daily {
		result.DailySales = append(result.DailySales, *metrics)
	}
	sort.Slice(result.DailySales, func(i, j int) bool {
		return result.DailySales[i].Date < result.DailySales[j].Date
	})

	return result, nil
}

// GetCheckedInCount returns how many tickets of an event have been
// redeemed at the door.
func (s *Service) GetCheckedInCount(ctx context.Context, eventID string) (int, error) {
	return s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.TicketStatusCheckedIn).
		Count(ctx)
}
