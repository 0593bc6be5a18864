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

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Create inserts a new task and fills in its ID
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (work_order_id, description, estimated_time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		task.WorkOrderID, task.Description, task.EstimatedTime, task.Status,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create task", zap.Int64("work_order_id", task.WorkOrderID), zap.Error(err))
		return fmt.Errorf("create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("task insert id: %w", err)
	}
	task.ID = id
	return nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	query := `
		SELECT id, work_order_id, description, estimated_time, start_time, end_time, status, created_at, updated_at
		FROM tasks WHERE id = ?
	`
	task, err := scanTask(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// GetByWorkOrderID retrieves all tasks under a work order
func (r *TaskRepository) GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Task, error) {
	query := `
		SELECT id, work_order_id, description, estimated_time, start_time, end_time, status, created_at, updated_at
		FROM tasks WHERE work_order_id = ? ORDER BY created_at
	`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for work order %d: %w", workOrderID, err)
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateStatus swaps the task status only when it still equals from.
// start_time is stamped on the first entry to in_progress and end_time on the
// first completion; neither is ever overwritten.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	query := `
		UPDATE tasks
		SET status = ?,
		    start_time = CASE WHEN ? = 'in_progress' THEN COALESCE(start_time, ?) ELSE start_time END,
		    end_time = CASE WHEN ? = 'completed' THEN COALESCE(end_time, ?) ELSE end_time END,
		    updated_at = ?
		WHERE id = ? AND status = ?
	`
	ex := sqlite.ExecutorFor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query,
		status, status, now, status, now, now, id, from)
	if err != nil {
		r.logger.Error("Failed to update task status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	return requireStatusSwap(ctx, ex, result, "tasks", fmt.Sprintf("task %d", id), id)
}

func scanTask(row rowScanner) (*entity.Task, error) {
	var (
		task      entity.Task
		startTime sql.NullTime
		endTime   sql.NullTime
	)
	err := row.Scan(
		&task.ID, &task.WorkOrderID, &task.Description, &task.EstimatedTime,
		&startTime, &endTime, &task.Status, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.StartTime = timePtr(startTime)
	task.EndTime = timePtr(endTime)
	return &task, nil
}
