package entity

import "time"

// Task is a discrete unit of work within a WorkOrder.
//
// Lifecycle: pending -> in_progress -> completed, with a direct
// pending -> completed edge. StartTime is set the first time the task enters
// in_progress and EndTime the first time it completes; repeating a transition
// never overwrites either.
type Task struct {
	ID            int64      `json:"id"`
	WorkOrderID   int64      `json:"work_order_id"`
	Description   string     `json:"description,omitempty"`
	EstimatedTime float64    `json:"estimated_time"` // hours
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
