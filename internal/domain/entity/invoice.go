package entity

import "time"

// Invoice is a billing record tied to a WorkOrder and a Client.
//
// Lifecycle: pending -> paid. Paid is terminal; PaymentDate is set once when
// the invoice is paid and never overwritten.
type Invoice struct {
	ID          int64      `json:"id"`
	WorkOrderID int64      `json:"work_order_id"`
	ClientID    int64      `json:"client_id"`
	Amount      float64    `json:"amount"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
