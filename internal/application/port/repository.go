package port

import (
	"context"
	"errors"
	"time"

	"github.com/oakline/maintflow/internal/domain/entity"
)

// ErrNotFound is returned by repositories when the requested row does not exist
var ErrNotFound = errors.New("entity not found")

// ErrStatusConflict is returned by UpdateStatus when the row exists but its
// status no longer matches the expected one, meaning a concurrent transition
// committed first. Callers should roll back and re-read.
var ErrStatusConflict = errors.New("status changed concurrently")

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	GetByClientID(ctx context.Context, clientID int64) ([]*entity.Request, error)
	// UpdateStatus sets the status only when the current value still equals
	// from, so concurrent transitions cannot both commit against the same
	// starting state. Returns ErrNotFound when the row does not exist and
	// ErrStatusConflict when the status moved underneath the caller.
	UpdateStatus(ctx context.Context, id int64, from, status string) error
}

// QuoteRepository defines persistence operations for Quote
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id int64) (*entity.Quote, error)
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Quote, error)
	UpdateStatus(ctx context.Context, id int64, from, status string) error
}

// WorkOrderRepository defines persistence operations for WorkOrder
type WorkOrderRepository interface {
	Create(ctx context.Context, order *entity.WorkOrder) error
	GetByID(ctx context.Context, id int64) (*entity.WorkOrder, error)
	List(ctx context.Context, limit, offset int) ([]*entity.WorkOrder, error)
	// UpdateStatus sets the status only when the current value still equals
	// from. When status is completed the completed date is set only if not
	// already present.
	UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error
	// CompleteIfAllTasksDone marks the order completed in a single conditional
	// update: only when it is not yet completed, has at least one task, and no
	// task is incomplete. Returns true when this call performed the completion,
	// so two racing callers elect exactly one winner at the store.
	CompleteIfAllTasksDone(ctx context.Context, id int64, now time.Time) (bool, error)
}

// TaskRepository defines persistence operations for Task
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id int64) (*entity.Task, error)
	GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Task, error)
	// UpdateStatus sets the status only when the current value still equals
	// from, with one-shot timestamps: start_time on first entry to
	// in_progress, end_time on first completion.
	UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error
}

// InvoiceRepository defines persistence operations for Invoice
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Invoice, error)
	GetByClientID(ctx context.Context, clientID int64) ([]*entity.Invoice, error)
	// UpdateStatus sets the status only when the current value still equals
	// from; payment_date is set on the first transition to paid and never
	// overwritten.
	UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id int64) (*entity.Notification, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error)
	ListUnreadByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ClientRepository defines persistence operations for Client
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
}

// PersonnelRepository defines persistence operations for ServicePersonnel
type PersonnelRepository interface {
	Create(ctx context.Context, p *entity.ServicePersonnel) error
	GetByID(ctx context.Context, id int64) (*entity.ServicePersonnel, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// StatusChangeRepository defines persistence operations for the transition audit log
type StatusChangeRepository interface {
	Create(ctx context.Context, change *entity.StatusChange) error
	ListByEntity(ctx context.Context, entityType entity.EntityType, entityID int64) ([]*entity.StatusChange, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
