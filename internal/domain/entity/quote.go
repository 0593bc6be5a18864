package entity

import "time"

// Quote is a priced proposal tied to a Request.
//
// Lifecycle: pending -> approved | rejected. Approval is terminal; invoice
// creation stays an explicit action, never an automatic consequence.
type Quote struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	Total     float64   `json:"total"`
	Items     string    `json:"items"` // JSON-encoded line items
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
