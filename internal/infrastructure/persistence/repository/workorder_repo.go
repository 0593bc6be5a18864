package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
)

// WorkOrderRepository implements port.WorkOrderRepository
type WorkOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkOrderRepository creates a new work order repository
func NewWorkOrderRepository(db *sql.DB, logger *zap.Logger) port.WorkOrderRepository {
	return &WorkOrderRepository{db: db, logger: logger}
}

// Create inserts a new work order and fills in its ID
func (r *WorkOrderRepository) Create(ctx context.Context, order *entity.WorkOrder) error {
	query := `
		INSERT INTO work_orders (request_id, assigned_to, description, scheduled_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		order.RequestID, order.AssignedTo, order.Description, order.ScheduledDate,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create work order", zap.Int64("assigned_to", order.AssignedTo), zap.Error(err))
		return fmt.Errorf("create work order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("work order insert id: %w", err)
	}
	order.ID = id
	return nil
}

// GetByID retrieves a work order by its ID
func (r *WorkOrderRepository) GetByID(ctx context.Context, id int64) (*entity.WorkOrder, error) {
	query := `
		SELECT id, request_id, assigned_to, description, scheduled_date, completed_date, status, created_at, updated_at
		FROM work_orders WHERE id = ?
	`
	order, err := scanWorkOrder(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("work order %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get work order %d: %w", id, err)
	}
	return order, nil
}

// List retrieves work orders ordered by creation time
func (r *WorkOrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.WorkOrder, error) {
	query := `
		SELECT id, request_id, assigned_to, description, scheduled_date, completed_date, status, created_at, updated_at
		FROM work_orders ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.WorkOrder
	for rows.Next() {
		order, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateStatus swaps the work order status only when it still equals from.
// The completed date is stamped only on the first transition to completed.
func (r *WorkOrderRepository) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	query := `
		UPDATE work_orders
		SET status = ?,
		    completed_date = CASE WHEN ? = 'completed' THEN COALESCE(completed_date, ?) ELSE completed_date END,
		    updated_at = ?
		WHERE id = ? AND status = ?
	`
	ex := sqlite.ExecutorFor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query, status, status, now, now, id, from)
	if err != nil {
		r.logger.Error("Failed to update work order status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update work order %d status: %w", id, err)
	}
	return requireStatusSwap(ctx, ex, result, "work_orders", fmt.Sprintf("work order %d", id), id)
}

// CompleteIfAllTasksDone completes the order in one conditional update so two
// racing callers elect exactly one winner: the row changes only when the order
// is not yet completed, has at least one task, and no task is incomplete.
func (r *WorkOrderRepository) CompleteIfAllTasksDone(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE work_orders
		SET status = 'completed',
		    completed_date = COALESCE(completed_date, ?),
		    updated_at = ?
		WHERE id = ?
		  AND status != 'completed'
		  AND EXISTS (SELECT 1 FROM tasks WHERE work_order_id = work_orders.id)
		  AND NOT EXISTS (SELECT 1 FROM tasks WHERE work_order_id = work_orders.id AND status != 'completed')
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, now, now, id)
	if err != nil {
		r.logger.Error("Failed to complete work order from tasks", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("complete work order %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete work order %d rows: %w", id, err)
	}
	return affected > 0, nil
}

func scanWorkOrder(row rowScanner) (*entity.WorkOrder, error) {
	var (
		order         entity.WorkOrder
		requestID     sql.NullInt64
		scheduledDate sql.NullTime
		completedDate sql.NullTime
	)
	err := row.Scan(
		&order.ID, &requestID, &order.AssignedTo, &order.Description,
		&scheduledDate, &completedDate, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.RequestID = int64Ptr(requestID)
	order.ScheduledDate = timePtr(scheduledDate)
	order.CompletedDate = timePtr(completedDate)
	return &order, nil
}
