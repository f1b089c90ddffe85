package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tier is a priced ticket category for an event with a fixed capacity.
// Sold is maintained exclusively through the conditional claim/release
// updates in the tiers db layer; it must never be written directly.
type Tier struct {
	bun.BaseModel `bun:"table:tiers"`

	TierID    string    `bun:"tier_id,pk" json:"tier_id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Price     float64   `bun:"price,notnull" json:"price"`
	Capacity  int       `bun:"capacity,notnull" json:"capacity"`
	Sold      int       `bun:"sold,notnull,default:0" json:"sold"`
	Active    bool      `bun:"active" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}

// Availability is the buyer-facing view of a tier's remaining stock.
type Availability struct {
	TierID    string `json:"tier_id"`
	Capacity  int    `json:"capacity"`
	Sold      int    `json:"sold"`
	Remaining int    `json:"remaining"`
}

// TierUpdate carries the host-editable tier fields. Nil means "leave as is".
type TierUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Capacity *int     `json:"capacity,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}
