package workflow

import (
	"fmt"

	"github.com/oakline/maintflow/internal/domain/entity"
	domainwf "github.com/oakline/maintflow/internal/domain/workflow"
)

// NewMachine builds the state machine for an entity type, positioned at the
// entity's current status. An unrecognized current status yields
// ErrUnknownStatus from the underlying builder.
func NewMachine(entityType entity.EntityType, current domainwf.State) (domainwf.Machine, error) {
	switch entityType {
	case entity.TypeRequest:
		return NewRequestMachine(current)
	case entity.TypeQuote:
		return NewQuoteMachine(current)
	case entity.TypeWorkOrder:
		return NewWorkOrderMachine(current)
	case entity.TypeTask:
		return NewTaskMachine(current)
	case entity.TypeInvoice:
		return NewInvoiceMachine(current)
	default:
		return nil, fmt.Errorf("no state machine for entity type %q", entityType)
	}
}

// NewRequestMachine builds the Request lifecycle: pending -> approved | rejected
func NewRequestMachine(current domainwf.State) (domainwf.Machine, error) {
	builder := domainwf.NewBuilder(
		domainwf.StatePending,
		domainwf.StateApproved,
		domainwf.StateRejected,
	)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.StateApproved).
		Permit(domainwf.StateRejected)

	// approved and rejected are terminal

	return builder.Build(current)
}

// NewQuoteMachine builds the Quote lifecycle: pending -> approved | rejected
func NewQuoteMachine(current domainwf.State) (domainwf.Machine, error) {
	builder := domainwf.NewBuilder(
		domainwf.StatePending,
		domainwf.StateApproved,
		domainwf.StateRejected,
	)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.StateApproved).
		Permit(domainwf.StateRejected)

	return builder.Build(current)
}

// NewWorkOrderMachine builds the WorkOrder lifecycle. Completion is normally
// cascade-driven, but the direct pending -> completed short-circuit stays
// permitted for orders closed without task tracking.
func NewWorkOrderMachine(current domainwf.State) (domainwf.Machine, error) {
	builder := domainwf.NewBuilder(
		domainwf.StatePending,
		domainwf.StateInProgress,
		domainwf.StateCompleted,
	)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.StateInProgress).
		Permit(domainwf.StateCompleted)

	builder.Configure(domainwf.StateInProgress).
		Permit(domainwf.StateCompleted)

	return builder.Build(current)
}

// NewTaskMachine builds the Task lifecycle: pending -> in_progress -> completed,
// plus the direct pending -> completed edge
func NewTaskMachine(current domainwf.State) (domainwf.Machine, error) {
	builder := domainwf.NewBuilder(
		domainwf.StatePending,
		domainwf.StateInProgress,
		domainwf.StateCompleted,
	)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.StateInProgress).
		Permit(domainwf.StateCompleted)

	builder.Configure(domainwf.StateInProgress).
		Permit(domainwf.StateCompleted)

	return builder.Build(current)
}

// NewInvoiceMachine builds the Invoice lifecycle: pending -> paid
func NewInvoiceMachine(current domainwf.State) (domainwf.Machine, error) {
	builder := domainwf.NewBuilder(
		domainwf.StatePending,
		domainwf.StatePaid,
	)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.StatePaid)

	return builder.Build(current)
}
