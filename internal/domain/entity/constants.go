package entity

// EntityType identifies which workflow entity a transition addresses
type EntityType string

const (
	TypeRequest   EntityType = "request"
	TypeQuote     EntityType = "quote"
	TypeWorkOrder EntityType = "work_order"
	TypeTask      EntityType = "task"
	TypeInvoice   EntityType = "invoice"
)

// String returns the string representation of the entity type
func (t EntityType) String() string {
	return string(t)
}

// IsValid returns true if the entity type is one of the workflow entities
func (t EntityType) IsValid() bool {
	switch t {
	case TypeRequest, TypeQuote, TypeWorkOrder, TypeTask, TypeInvoice:
		return true
	default:
		return false
	}
}

// Status constants shared across entity lifecycles
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPaid       = "paid"
)

// Request priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification category constants
const (
	NotificationTypeRequest   = "request"
	NotificationTypeWorkOrder = "work_order"
	NotificationTypeInvoice   = "invoice"
	NotificationTypeGeneral   = "general"
)

// User role constants
const (
	RoleAdmin      = "admin"
	RoleClient     = "client"
	RoleTechnician = "technician"
)
