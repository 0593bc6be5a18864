package entity

import "time"

// WorkOrder is scheduled work assigned to a technician, usually derived from
// an approved Request (RequestID is nil for ad-hoc work).
//
// Lifecycle: pending -> in_progress -> completed, with a direct
// pending -> completed short-circuit. Completion is normally driven by the
// task cascade: the order is completed iff every task under it is completed.
// CompletedDate is set once and never overwritten.
type WorkOrder struct {
	ID            int64      `json:"id"`
	RequestID     *int64     `json:"request_id,omitempty"`
	AssignedTo    int64      `json:"assigned_to"`
	Description   string     `json:"description,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
