package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oakline/maintflow/internal/application/dispatcher"
	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/domain/event"
)

// CascadeResolver computes secondary transitions implied by aggregate
// conditions over related entities. The only cascade in the base system is
// task completion driving work-order completion.
type CascadeResolver interface {
	// OnTaskCompleted checks whether the task's work order is now fully done
	// and completes it if so. The check-and-complete is a single conditional
	// update at the store, so concurrent callers elect exactly one winner and
	// the completion notification fires exactly once. The work-order update is
	// a best-effort secondary effect: errors are returned for logging but the
	// caller's committed task transition stands.
	OnTaskCompleted(ctx context.Context, taskID int64, correlationID string) error
}

type cascadeResolverImpl struct {
	taskRepo      port.TaskRepository
	workOrderRepo port.WorkOrderRepository
	historyRepo   port.StatusChangeRepository
	dispatcher    dispatcher.Dispatcher
	logger        Logger
}

// NewCascadeResolver creates a new CascadeResolver
func NewCascadeResolver(
	taskRepo port.TaskRepository,
	workOrderRepo port.WorkOrderRepository,
	historyRepo port.StatusChangeRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) CascadeResolver {
	return &cascadeResolverImpl{
		taskRepo:      taskRepo,
		workOrderRepo: workOrderRepo,
		historyRepo:   historyRepo,
		dispatcher:    d,
		logger:        logger,
	}
}

// OnTaskCompleted completes the parent work order once its last task completes
func (r *cascadeResolverImpl) OnTaskCompleted(ctx context.Context, taskID int64, correlationID string) error {
	task, err := r.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %d: %w", taskID, err)
	}

	order, err := r.workOrderRepo.GetByID(ctx, task.WorkOrderID)
	if err != nil {
		return fmt.Errorf("load work order %d: %w", task.WorkOrderID, err)
	}
	previous := order.Status

	fired, err := r.workOrderRepo.CompleteIfAllTasksDone(ctx, task.WorkOrderID, time.Now())
	if err != nil {
		return fmt.Errorf("complete work order %d: %w", task.WorkOrderID, err)
	}
	if !fired {
		// Siblings remain incomplete, the order was already completed, or it
		// has no tasks at all. Nothing to do, nothing to notify.
		return nil
	}

	r.logger.Info("Work order completed by cascade",
		"work_order_id", task.WorkOrderID, "task_id", taskID, "correlation_id", correlationID)

	if err := r.historyRepo.Create(ctx, &entity.StatusChange{
		EntityType:     entity.TypeWorkOrder,
		EntityID:       task.WorkOrderID,
		PreviousStatus: previous,
		NewStatus:      entity.StatusCompleted,
		ActorID:        SystemActor.UserID,
		ActorRole:      SystemActor.Role,
		CreatedAt:      time.Now(),
	}); err != nil {
		r.logger.Error("Failed to record cascade history",
			"work_order_id", task.WorkOrderID, "error", err)
	}

	r.dispatcher.DispatchAsync(ctx, event.NewCorrelated(
		event.TypeStatusChanged,
		entity.TypeWorkOrder,
		task.WorkOrderID,
		map[string]interface{}{
			"previous_status": previous,
			"new_status":      entity.StatusCompleted,
			"actor_id":        SystemActor.UserID,
			"actor_role":      SystemActor.Role,
		},
		correlationID,
	))
	return nil
}
