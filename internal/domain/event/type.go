package event

// Type identifies the type of domain event
type Type string

const (
	// TypeStatusChanged fires after any committed entity status transition
	TypeStatusChanged Type = "workflow.status_changed"

	// TypeWorkOrderCreated fires when a work order is created
	TypeWorkOrderCreated Type = "work_order.created"

	// TypeInvoiceCreated fires when an invoice is created
	TypeInvoiceCreated Type = "invoice.created"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeStatusChanged, TypeWorkOrderCreated, TypeInvoiceCreated:
		return true
	default:
		return false
	}
}
