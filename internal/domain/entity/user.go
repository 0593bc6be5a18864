package entity

import "time"

// User is an account that can receive notifications. Clients and service
// personnel each reference a User; authentication lives outside the core.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
