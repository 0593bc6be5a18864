package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oakline/maintflow/internal/application/dispatcher"
	"github.com/oakline/maintflow/internal/application/port"
	appwf "github.com/oakline/maintflow/internal/application/workflow"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/domain/event"
	domainwf "github.com/oakline/maintflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Actor identifies who requested a transition. It is carried for auditing;
// authorization is enforced outside the workflow core.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// SystemActor is recorded for cascade-driven transitions
var SystemActor = Actor{UserID: 0, Role: "system"}

// EffectiveState is the result of a transition call
type EffectiveState struct {
	EntityType     entity.EntityType `json:"entity_type"`
	EntityID       int64             `json:"entity_id"`
	PreviousStatus string            `json:"previous_status"`
	Status         string            `json:"status"`
	NoOp           bool              `json:"no_op"`
}

// WorkflowService is the single entry point for workflow mutations. Status
// changes go through Transition; entity creation goes through the typed
// Create operations so creation-time notification rules fire.
type WorkflowService interface {
	// Transition validates and applies a status change. The primary update and
	// its timestamp side effects commit atomically; cascade and notification
	// side effects run after the commit and never fail the call.
	Transition(ctx context.Context, entityType entity.EntityType, id int64, targetStatus string, actor Actor) (*EffectiveState, error)

	CreateRequest(ctx context.Context, req *entity.Request) error
	CreateQuote(ctx context.Context, quote *entity.Quote) error
	CreateWorkOrder(ctx context.Context, order *entity.WorkOrder) error
	CreateTask(ctx context.Context, task *entity.Task) error
	CreateInvoice(ctx context.Context, invoice *entity.Invoice) error

	GetRequest(ctx context.Context, id int64) (*entity.Request, error)
	GetQuote(ctx context.Context, id int64) (*entity.Quote, error)
	GetWorkOrder(ctx context.Context, id int64) (*entity.WorkOrder, error)
	GetWorkOrderWithTasks(ctx context.Context, id int64) (*entity.WorkOrder, []*entity.Task, error)
	GetTask(ctx context.Context, id int64) (*entity.Task, error)
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)

	// History lists the audit trail of committed transitions for an entity
	History(ctx context.Context, entityType entity.EntityType, id int64) ([]*entity.StatusChange, error)
}

type workflowServiceImpl struct {
	requestRepo   port.RequestRepository
	quoteRepo     port.QuoteRepository
	workOrderRepo port.WorkOrderRepository
	taskRepo      port.TaskRepository
	invoiceRepo   port.InvoiceRepository
	historyRepo   port.StatusChangeRepository
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	cascade       CascadeResolver
	logger        Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	requestRepo port.RequestRepository,
	quoteRepo port.QuoteRepository,
	workOrderRepo port.WorkOrderRepository,
	taskRepo port.TaskRepository,
	invoiceRepo port.InvoiceRepository,
	historyRepo port.StatusChangeRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	cascade CascadeResolver,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		requestRepo:   requestRepo,
		quoteRepo:     quoteRepo,
		workOrderRepo: workOrderRepo,
		taskRepo:      taskRepo,
		invoiceRepo:   invoiceRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		dispatcher:    d,
		cascade:       cascade,
		logger:        logger,
	}
}

// Transition applies a status change through the entity's state machine
func (s *workflowServiceImpl) Transition(ctx context.Context, entityType entity.EntityType, id int64, targetStatus string, actor Actor) (*EffectiveState, error) {
	current, err := s.currentStatus(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	machine, err := appwf.NewMachine(entityType, domainwf.State(current))
	if err != nil {
		return nil, fmt.Errorf("build machine for %s/%d: %w", entityType, id, err)
	}

	target := domainwf.State(targetStatus)
	if target == machine.State() {
		// Re-asserting the current status is a no-op success: no persistence,
		// no timestamps touched, no events.
		s.logger.Info("Transition is a no-op",
			"entity_type", entityType, "entity_id", id, "status", targetStatus)
		return &EffectiveState{
			EntityType:     entityType,
			EntityID:       id,
			PreviousStatus: current,
			Status:         current,
			NoOp:           true,
		}, nil
	}

	if err := machine.Fire(ctx, target); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// The conditional update only succeeds if the status is still the one
		// the machine validated against. A concurrent transition that committed
		// first makes it miss, rolling the whole transaction back.
		if err := s.applyStatus(txCtx, entityType, id, current, targetStatus, now); err != nil {
			return err
		}
		return s.historyRepo.Create(txCtx, &entity.StatusChange{
			EntityType:     entityType,
			EntityID:       id,
			PreviousStatus: current,
			NewStatus:      targetStatus,
			ActorID:        actor.UserID,
			ActorRole:      actor.Role,
			CreatedAt:      now,
		})
	})
	if err != nil {
		s.logger.Error("Transition failed",
			"entity_type", entityType, "entity_id", id,
			"from", current, "to", targetStatus, "error", err)
		return nil, err
	}

	s.logger.Info("Transition committed",
		"entity_type", entityType, "entity_id", id,
		"from", current, "to", targetStatus,
		"actor_id", actor.UserID, "actor_role", actor.Role)

	evt := event.New(event.TypeStatusChanged, entityType, id, map[string]interface{}{
		"previous_status": current,
		"new_status":      targetStatus,
		"actor_id":        actor.UserID,
		"actor_role":      actor.Role,
	})
	s.dispatcher.DispatchAsync(ctx, evt)

	// The task-completion cascade is resolved synchronously so a caller that
	// observes success also observes any work-order completion it implied.
	// Its failures are logged, never surfaced: the primary update is durable.
	if entityType == entity.TypeTask && targetStatus == entity.StatusCompleted {
		if err := s.cascade.OnTaskCompleted(ctx, id, evt.CorrelationID); err != nil {
			s.logger.Error("Cascade failure",
				"task_id", id, "correlation_id", evt.CorrelationID, "error", err)
		}
	}

	return &EffectiveState{
		EntityType:     entityType,
		EntityID:       id,
		PreviousStatus: current,
		Status:         targetStatus,
	}, nil
}

// currentStatus loads the entity's persisted status
func (s *workflowServiceImpl) currentStatus(ctx context.Context, entityType entity.EntityType, id int64) (string, error) {
	switch entityType {
	case entity.TypeRequest:
		req, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return req.Status, nil
	case entity.TypeQuote:
		quote, err := s.quoteRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return quote.Status, nil
	case entity.TypeWorkOrder:
		order, err := s.workOrderRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return order.Status, nil
	case entity.TypeTask:
		task, err := s.taskRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return task.Status, nil
	case entity.TypeInvoice:
		invoice, err := s.invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return invoice.Status, nil
	default:
		return "", fmt.Errorf("unknown entity type %q: %w", entityType, port.ErrNotFound)
	}
}

// applyStatus persists the status and its one-shot timestamp side effects,
// guarded on the status the transition was validated against
func (s *workflowServiceImpl) applyStatus(ctx context.Context, entityType entity.EntityType, id int64, from, status string, now time.Time) error {
	switch entityType {
	case entity.TypeRequest:
		return s.requestRepo.UpdateStatus(ctx, id, from, status)
	case entity.TypeQuote:
		return s.quoteRepo.UpdateStatus(ctx, id, from, status)
	case entity.TypeWorkOrder:
		return s.workOrderRepo.UpdateStatus(ctx, id, from, status, now)
	case entity.TypeTask:
		return s.taskRepo.UpdateStatus(ctx, id, from, status, now)
	case entity.TypeInvoice:
		return s.invoiceRepo.UpdateStatus(ctx, id, from, status, now)
	default:
		return fmt.Errorf("unknown entity type %q: %w", entityType, port.ErrNotFound)
	}
}

// CreateRequest persists a new maintenance request
func (s *workflowServiceImpl) CreateRequest(ctx context.Context, req *entity.Request) error {
	if req.Status == "" {
		req.Status = entity.StatusPending
	}
	stampNew(&req.CreatedAt, &req.UpdatedAt)

	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create request", "client_id", req.ClientID, "error", err)
		return err
	}
	s.logger.Info("Request created", "id", req.ID, "client_id", req.ClientID, "priority", req.Priority)
	return nil
}

// CreateQuote persists a new quote for a request
func (s *workflowServiceImpl) CreateQuote(ctx context.Context, quote *entity.Quote) error {
	if quote.Status == "" {
		quote.Status = entity.StatusPending
	}
	stampNew(&quote.CreatedAt, &quote.UpdatedAt)

	if _, err := s.requestRepo.GetByID(ctx, quote.RequestID); err != nil {
		return fmt.Errorf("request %d: %w", quote.RequestID, err)
	}
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		s.logger.Error("Failed to create quote", "request_id", quote.RequestID, "error", err)
		return err
	}
	s.logger.Info("Quote created", "id", quote.ID, "request_id", quote.RequestID, "total", quote.Total)
	return nil
}

// CreateWorkOrder persists a new work order and emits the creation event that
// notifies the technician and, when derived from a request, the client
func (s *workflowServiceImpl) CreateWorkOrder(ctx context.Context, order *entity.WorkOrder) error {
	if order.Status == "" {
		order.Status = entity.StatusPending
	}
	stampNew(&order.CreatedAt, &order.UpdatedAt)

	if order.RequestID != nil {
		if _, err := s.requestRepo.GetByID(ctx, *order.RequestID); err != nil {
			return fmt.Errorf("request %d: %w", *order.RequestID, err)
		}
	}
	if err := s.workOrderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create work order", "assigned_to", order.AssignedTo, "error", err)
		return err
	}
	s.logger.Info("Work order created", "id", order.ID, "assigned_to", order.AssignedTo)

	payload := map[string]interface{}{"assigned_to": order.AssignedTo}
	if order.RequestID != nil {
		payload["request_id"] = *order.RequestID
	}
	s.dispatcher.DispatchAsync(ctx, event.New(event.TypeWorkOrderCreated, entity.TypeWorkOrder, order.ID, payload))
	return nil
}

// CreateTask persists a new task under a work order
func (s *workflowServiceImpl) CreateTask(ctx context.Context, task *entity.Task) error {
	if task.Status == "" {
		task.Status = entity.StatusPending
	}
	stampNew(&task.CreatedAt, &task.UpdatedAt)

	if _, err := s.workOrderRepo.GetByID(ctx, task.WorkOrderID); err != nil {
		return fmt.Errorf("work order %d: %w", task.WorkOrderID, err)
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.logger.Error("Failed to create task", "work_order_id", task.WorkOrderID, "error", err)
		return err
	}
	s.logger.Info("Task created", "id", task.ID, "work_order_id", task.WorkOrderID)
	return nil
}

// CreateInvoice persists a new invoice and emits the creation event that
// notifies the billed client
func (s *workflowServiceImpl) CreateInvoice(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Status == "" {
		invoice.Status = entity.StatusPending
	}
	stampNew(&invoice.CreatedAt, &invoice.UpdatedAt)

	if _, err := s.workOrderRepo.GetByID(ctx, invoice.WorkOrderID); err != nil {
		return fmt.Errorf("work order %d: %w", invoice.WorkOrderID, err)
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		s.logger.Error("Failed to create invoice", "work_order_id", invoice.WorkOrderID, "error", err)
		return err
	}
	s.logger.Info("Invoice created",
		"id", invoice.ID, "work_order_id", invoice.WorkOrderID,
		"client_id", invoice.ClientID, "amount", invoice.Amount)

	s.dispatcher.DispatchAsync(ctx, event.New(event.TypeInvoiceCreated, entity.TypeInvoice, invoice.ID, map[string]interface{}{
		"client_id":     invoice.ClientID,
		"work_order_id": invoice.WorkOrderID,
		"amount":        invoice.Amount,
	}))
	return nil
}

func (s *workflowServiceImpl) GetRequest(ctx context.Context, id int64) (*entity.Request, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *workflowServiceImpl) GetQuote(ctx context.Context, id int64) (*entity.Quote, error) {
	return s.quoteRepo.GetByID(ctx, id)
}

func (s *workflowServiceImpl) GetWorkOrder(ctx context.Context, id int64) (*entity.WorkOrder, error) {
	return s.workOrderRepo.GetByID(ctx, id)
}

// GetWorkOrderWithTasks is the explicit relationship fetch used by callers
// that render an order with its task list
func (s *workflowServiceImpl) GetWorkOrderWithTasks(ctx context.Context, id int64) (*entity.WorkOrder, []*entity.Task, error) {
	order, err := s.workOrderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.taskRepo.GetByWorkOrderID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, tasks, nil
}

func (s *workflowServiceImpl) GetTask(ctx context.Context, id int64) (*entity.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

func (s *workflowServiceImpl) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *workflowServiceImpl) History(ctx context.Context, entityType entity.EntityType, id int64) ([]*entity.StatusChange, error) {
	return s.historyRepo.ListByEntity(ctx, entityType, id)
}

func stampNew(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
