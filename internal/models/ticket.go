package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketStatusValid     = "valid"
	TicketStatusCheckedIn = "checked_in"
	TicketStatusRevoked   = "revoked"
)

// Ticket is one row of the ledger: a single issued admission, immutable
// after creation except for the status transition.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID        string    `bun:"ticket_id,pk" json:"ticket_id"`
	TierID          string    `bun:"tier_id,notnull" json:"tier_id"`
	EventID         string    `bun:"event_id,notnull" json:"event_id"`
	UserID          string    `bun:"user_id,notnull" json:"user_id"`
	Code            string    `bun:"code,unique,notnull" json:"code"`
	Status          string    `bun:"status,notnull" json:"status"`
	PriceAtPurchase float64   `bun:"price_at_purchase" json:"price_at_purchase"`
	IssuedAt        time.Time `bun:"issued_at,notnull" json:"issued_at"`
	CheckedInTime   time.Time `bun:"checked_in_time,nullzero" json:"checked_in_time,omitempty"`
}
