package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/pkg/database"
)

// newTestDB opens a throwaway SQLite database and applies the real migrations
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations(filepath.Join("..", "..", "..", "..", "migrations")))

	return db
}

type fixtures struct {
	db          *sql.DB
	clientID    int64
	personnelID int64
}

// seed creates a user, client and technician so foreign keys resolve
func seed(t *testing.T, db *sql.DB) fixtures {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	users := NewUserRepository(db, zap.NewNop())
	clientUser := &entity.User{Name: "Dana", Email: "dana@example.com", Role: entity.RoleClient, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, clientUser))
	techUser := &entity.User{Name: "Lee", Email: "lee@example.com", Role: entity.RoleTechnician, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, techUser))

	clients := NewClientRepository(db, zap.NewNop())
	client := &entity.Client{UserID: clientUser.ID, Name: "Dana Property Mgmt", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, clients.Create(ctx, client))

	personnel := NewPersonnelRepository(db, zap.NewNop())
	tech := &entity.ServicePersonnel{UserID: techUser.ID, Specialty: "plumbing", Available: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, personnel.Create(ctx, tech))

	return fixtures{db: db, clientID: client.ID, personnelID: tech.ID}
}

func newWorkOrder(t *testing.T, f fixtures, status string) *entity.WorkOrder {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	order := &entity.WorkOrder{AssignedTo: f.personnelID, Description: "fix leak", Status: status, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewWorkOrderRepository(f.db, zap.NewNop()).Create(context.Background(), order))
	return order
}

func newTask(t *testing.T, f fixtures, orderID int64, status string) *entity.Task {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	task := &entity.Task{WorkOrderID: orderID, Description: "replace pipe", EstimatedTime: 1.5, Status: status, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewTaskRepository(f.db, zap.NewNop()).Create(context.Background(), task))
	return task
}

func TestRequestRepository(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewRequestRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	req := &entity.Request{
		ClientID: f.clientID, ServiceType: "plumbing", Description: "leak in 4B",
		Priority: entity.PriorityHigh, Status: entity.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, req))
	require.NotZero(t, req.ID)

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "plumbing", got.ServiceType)
	assert.Equal(t, entity.StatusPending, got.Status)

	require.NoError(t, repo.UpdateStatus(ctx, req.ID, entity.StatusPending, entity.StatusApproved))
	got, err = repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)

	byClient, err := repo.GetByClientID(ctx, f.clientID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, port.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, entity.StatusPending, entity.StatusApproved), port.ErrNotFound)
}

// A stale expected status must not overwrite a transition that landed first.
func TestUpdateStatusRejectsStaleStatus(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewRequestRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	req := &entity.Request{
		ClientID: f.clientID, ServiceType: "plumbing", Description: "leak in 4B",
		Priority: entity.PriorityHigh, Status: entity.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, req))
	require.NoError(t, repo.UpdateStatus(ctx, req.ID, entity.StatusPending, entity.StatusRejected))

	err := repo.UpdateStatus(ctx, req.ID, entity.StatusPending, entity.StatusApproved)
	require.ErrorIs(t, err, port.ErrStatusConflict)

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status, "the first writer's terminal status stands")
}

func TestQuoteRepository(t *testing.T) {
	f := seed(t, newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	requests := NewRequestRepository(f.db, zap.NewNop())
	req := &entity.Request{ClientID: f.clientID, ServiceType: "hvac", Priority: entity.PriorityMedium, Status: entity.StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, requests.Create(ctx, req))

	repo := NewQuoteRepository(f.db, zap.NewNop())
	quote := &entity.Quote{RequestID: req.ID, Total: 320.50, Items: `[{"desc":"filter","amount":320.5}]`, Status: entity.StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, quote))

	got, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 320.50, got.Total)

	byRequest, err := repo.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, byRequest, 1)

	require.NoError(t, repo.UpdateStatus(ctx, quote.ID, entity.StatusPending, entity.StatusApproved))
	got, err = repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
}

func TestWorkOrderCompletedDateSetOnce(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewWorkOrderRepository(f.db, zap.NewNop())
	ctx := context.Background()
	order := newWorkOrder(t, f, entity.StatusInProgress)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, entity.StatusInProgress, entity.StatusCompleted, first))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedDate)
	assert.Equal(t, first, got.CompletedDate.UTC())

	// A later completion write must not move the date
	later := first.Add(48 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, entity.StatusCompleted, entity.StatusCompleted, later))

	got, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got.CompletedDate.UTC())
}

func TestCompleteIfAllTasksDone(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewWorkOrderRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("no tasks", func(t *testing.T) {
		order := newWorkOrder(t, f, entity.StatusInProgress)
		fired, err := repo.CompleteIfAllTasksDone(ctx, order.ID, now)
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("incomplete task blocks", func(t *testing.T) {
		order := newWorkOrder(t, f, entity.StatusInProgress)
		newTask(t, f, order.ID, entity.StatusCompleted)
		newTask(t, f, order.ID, entity.StatusInProgress)

		fired, err := repo.CompleteIfAllTasksDone(ctx, order.ID, now)
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("all tasks complete", func(t *testing.T) {
		order := newWorkOrder(t, f, entity.StatusInProgress)
		newTask(t, f, order.ID, entity.StatusCompleted)
		newTask(t, f, order.ID, entity.StatusCompleted)

		fired, err := repo.CompleteIfAllTasksDone(ctx, order.ID, now)
		require.NoError(t, err)
		assert.True(t, fired)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedDate)

		// Already completed, the update must not fire again
		fired, err = repo.CompleteIfAllTasksDone(ctx, order.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, fired)
	})
}

// Two callers racing for the same completion must elect exactly one winner.
func TestCompleteIfAllTasksDoneConcurrent(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewWorkOrderRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newWorkOrder(t, f, entity.StatusInProgress)
	newTask(t, f, order.ID, entity.StatusCompleted)
	newTask(t, f, order.ID, entity.StatusCompleted)

	const callers = 8
	results := make(chan bool, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			fired, err := repo.CompleteIfAllTasksDone(ctx, order.ID, now)
			results <- fired
			errs <- err
		}()
	}

	winners := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestTaskTimestampsSetOnce(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewTaskRepository(f.db, zap.NewNop())
	ctx := context.Background()

	order := newWorkOrder(t, f, entity.StatusInProgress)
	task := newTask(t, f, order.ID, entity.StatusPending)

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, task.ID, entity.StatusPending, entity.StatusInProgress, started))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, started, got.StartTime.UTC())
	assert.Nil(t, got.EndTime)

	ended := started.Add(2 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, task.ID, entity.StatusInProgress, entity.StatusCompleted, ended))

	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, ended, got.EndTime.UTC())
	assert.Equal(t, started, got.StartTime.UTC())

	// Repeating the writes never moves either timestamp
	require.NoError(t, repo.UpdateStatus(ctx, task.ID, entity.StatusCompleted, entity.StatusInProgress, ended.Add(time.Hour)))
	require.NoError(t, repo.UpdateStatus(ctx, task.ID, entity.StatusInProgress, entity.StatusCompleted, ended.Add(2*time.Hour)))

	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, started, got.StartTime.UTC())
	assert.Equal(t, ended, got.EndTime.UTC())
}

func TestInvoicePaymentDateSetOnce(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewInvoiceRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newWorkOrder(t, f, entity.StatusCompleted)
	invoice := &entity.Invoice{WorkOrderID: order.ID, ClientID: f.clientID, Amount: 450.50, Status: entity.StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, invoice))

	paid := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, invoice.ID, entity.StatusPending, entity.StatusPaid, paid))

	got, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, paid, got.PaymentDate.UTC())

	require.NoError(t, repo.UpdateStatus(ctx, invoice.ID, entity.StatusPaid, entity.StatusPaid, paid.Add(24*time.Hour)))
	got, err = repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, paid, got.PaymentDate.UTC())

	byClient, err := repo.GetByClientID(ctx, f.clientID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)
	byOrder, err := repo.GetByWorkOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, byOrder, 1)
}

func TestNotificationRepository(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewNotificationRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	var userID int64
	require.NoError(t, f.db.QueryRow("SELECT user_id FROM clients WHERE id = ?", f.clientID).Scan(&userID))

	first := &entity.Notification{UserID: userID, Title: "Request approved", Message: "Your request was approved", Type: entity.NotificationTypeRequest, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, first))
	second := &entity.Notification{UserID: userID, Title: "Work order update", Message: "Work started", Type: entity.NotificationTypeWorkOrder, CreatedAt: now.Add(time.Minute), UpdatedAt: now.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, second))

	unread, err := repo.ListUnreadByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	require.NoError(t, repo.MarkRead(ctx, first.ID))
	unread, err = repo.ListUnreadByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	all, err := repo.ListByUserID(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, second.ID))
	_, err = repo.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestStatusChangeRepository(t *testing.T) {
	f := seed(t, newTestDB(t))
	repo := NewStatusChangeRepository(f.db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	changes := []*entity.StatusChange{
		{EntityType: entity.TypeTask, EntityID: 7, PreviousStatus: entity.StatusPending, NewStatus: entity.StatusInProgress, ActorID: 3, ActorRole: entity.RoleTechnician, CreatedAt: now},
		{EntityType: entity.TypeTask, EntityID: 7, PreviousStatus: entity.StatusInProgress, NewStatus: entity.StatusCompleted, ActorID: 3, ActorRole: entity.RoleTechnician, CreatedAt: now.Add(time.Minute)},
		{EntityType: entity.TypeWorkOrder, EntityID: 7, PreviousStatus: entity.StatusInProgress, NewStatus: entity.StatusCompleted, ActorID: 0, ActorRole: "system", CreatedAt: now.Add(time.Minute)},
	}
	for _, change := range changes {
		require.NoError(t, repo.Create(ctx, change))
	}

	taskHistory, err := repo.ListByEntity(ctx, entity.TypeTask, 7)
	require.NoError(t, err)
	require.Len(t, taskHistory, 2)
	assert.Equal(t, entity.StatusInProgress, taskHistory[0].NewStatus)
	assert.Equal(t, entity.StatusCompleted, taskHistory[1].NewStatus)

	orderHistory, err := repo.ListByEntity(ctx, entity.TypeWorkOrder, 7)
	require.NoError(t, err)
	require.Len(t, orderHistory, 1)
	assert.Equal(t, "system", orderHistory[0].ActorRole)
}
