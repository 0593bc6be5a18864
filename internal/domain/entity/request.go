package entity

import "time"

// Request is a client-submitted maintenance need awaiting approval.
//
// Lifecycle: pending -> approved | rejected. Both outcomes are terminal and
// notify the owning client's user.
type Request struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"client_id"`
	ServiceType string    `json:"service_type"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
