package models

import "time"

// PurchaseRequest is the checkout cart: requested quantity per tier.
// It exists only for the duration of the purchase call.
type PurchaseRequest struct {
	Cart map[string]int `json:"cart"`
}

// Receipt is returned to the buyer after a successful purchase.
// Total is rounded to whole currency units for display.
type Receipt struct {
	PurchaseID string   `json:"purchase_id"`
	UserID     string   `json:"user_id"`
	Tickets    []Ticket `json:"tickets"`
	Subtotal   float64  `json:"subtotal"`
	ServiceFee float64  `json:"service_fee"`
	Total      float64  `json:"total"`
}

// Sale is the event pushed to host dashboards when a purchase completes.
type Sale struct {
	EventID    string    `json:"event_id"`
	PurchaseID string    `json:"purchase_id"`
	UserID     string    `json:"user_id"`
	Quantity   int       `json:"quantity"`
	Total      float64   `json:"total"`
	IssuedAt   time.Time `json:"issued_at"`
}
