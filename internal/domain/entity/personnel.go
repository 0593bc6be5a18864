package entity

import "time"

// ServicePersonnel is a technician that work orders are assigned to
type ServicePersonnel struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Specialty string    `json:"specialty,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
