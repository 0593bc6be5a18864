package entity

import "time"

// StatusChange is the audit record written for every committed non-no-op
// transition, including cascade-driven ones (ActorID 0, ActorRole "system").
type StatusChange struct {
	ID             int64      `json:"id"`
	EntityType     EntityType `json:"entity_type"`
	EntityID       int64      `json:"entity_id"`
	PreviousStatus string     `json:"previous_status"`
	NewStatus      string     `json:"new_status"`
	ActorID        int64      `json:"actor_id"`
	ActorRole      string     `json:"actor_role"`
	CreatedAt      time.Time  `json:"created_at"`
}
