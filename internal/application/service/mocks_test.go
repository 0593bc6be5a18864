package service

import (
	"context"
	"sync"
	"time"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
)

// Hand-rolled mocks with overridable behavior, shared by the service tests.

type mockRequestRepo struct {
	createFunc    func(ctx context.Context, req *entity.Request) error
	getByIDFunc   func(ctx context.Context, id int64) (*entity.Request, error)
	updateStatus  func(ctx context.Context, id int64, from, status string) error
	statusUpdates []string
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = 1
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Request{ID: id, ClientID: 10, ServiceType: "plumbing", Status: entity.StatusPending}, nil
}

func (m *mockRequestRepo) GetByClientID(ctx context.Context, clientID int64) ([]*entity.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) UpdateStatus(ctx context.Context, id int64, from, status string) error {
	m.statusUpdates = append(m.statusUpdates, status)
	if m.updateStatus != nil {
		return m.updateStatus(ctx, id, from, status)
	}
	return nil
}

type mockQuoteRepo struct {
	getByIDFunc   func(ctx context.Context, id int64) (*entity.Quote, error)
	statusUpdates []string
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	quote.ID = 1
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id int64) (*entity.Quote, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Quote{ID: id, RequestID: 1, Status: entity.StatusPending}, nil
}

func (m *mockQuoteRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Quote, error) {
	return nil, nil
}

func (m *mockQuoteRepo) UpdateStatus(ctx context.Context, id int64, from, status string) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

type mockWorkOrderRepo struct {
	createFunc       func(ctx context.Context, order *entity.WorkOrder) error
	getByIDFunc      func(ctx context.Context, id int64) (*entity.WorkOrder, error)
	completeFunc     func(ctx context.Context, id int64, now time.Time) (bool, error)
	statusUpdates    []string
	completeAttempts int
}

func (m *mockWorkOrderRepo) Create(ctx context.Context, order *entity.WorkOrder) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, order)
	}
	order.ID = 1
	return nil
}

func (m *mockWorkOrderRepo) GetByID(ctx context.Context, id int64) (*entity.WorkOrder, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	reqID := int64(1)
	return &entity.WorkOrder{ID: id, RequestID: &reqID, AssignedTo: 20, Status: entity.StatusInProgress}, nil
}

func (m *mockWorkOrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.WorkOrder, error) {
	return nil, nil
}

func (m *mockWorkOrderRepo) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockWorkOrderRepo) CompleteIfAllTasksDone(ctx context.Context, id int64, now time.Time) (bool, error) {
	m.completeAttempts++
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, now)
	}
	return false, nil
}

type mockTaskRepo struct {
	getByIDFunc   func(ctx context.Context, id int64) (*entity.Task, error)
	statusUpdates []string
}

func (m *mockTaskRepo) Create(ctx context.Context, task *entity.Task) error {
	task.ID = 1
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Task{ID: id, WorkOrderID: 5, Status: entity.StatusInProgress}, nil
}

func (m *mockTaskRepo) GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

type mockInvoiceRepo struct {
	getByIDFunc   func(ctx context.Context, id int64) (*entity.Invoice, error)
	statusUpdates []string
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	invoice.ID = 1
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Invoice{ID: id, WorkOrderID: 5, ClientID: 10, Amount: 450.5, Status: entity.StatusPending}, nil
}

func (m *mockInvoiceRepo) GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Invoice, error) {
	return nil, nil
}

func (m *mockInvoiceRepo) GetByClientID(ctx context.Context, clientID int64) ([]*entity.Invoice, error) {
	return nil, nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []*entity.Notification
	read    []int64
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	return nil, port.ErrNotFound
}

func (m *mockNotificationRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) ListUnreadByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Notification
	for _, n := range m.created {
		if n.UserID == userID && !n.IsRead {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read = append(m.read, id)
	return nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func (m *mockNotificationRepo) all() []*entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.Notification(nil), m.created...)
}

type mockClientRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Client, error)
}

func (m *mockClientRepo) Create(ctx context.Context, client *entity.Client) error {
	client.ID = 1
	return nil
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Client{ID: id, UserID: 100 + id, Name: "Acme Property"}, nil
}

type mockPersonnelRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.ServicePersonnel, error)
}

func (m *mockPersonnelRepo) Create(ctx context.Context, p *entity.ServicePersonnel) error {
	p.ID = 1
	return nil
}

func (m *mockPersonnelRepo) GetByID(ctx context.Context, id int64) (*entity.ServicePersonnel, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.ServicePersonnel{ID: id, UserID: 200 + id, Specialty: "electrical"}, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	created []*entity.StatusChange
}

func (m *mockHistoryRepo) Create(ctx context.Context, change *entity.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	change.ID = int64(len(m.created) + 1)
	m.created = append(m.created, change)
	return nil
}

func (m *mockHistoryRepo) ListByEntity(ctx context.Context, entityType entity.EntityType, entityID int64) ([]*entity.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StatusChange
	for _, c := range m.created {
		if c.EntityType == entityType && c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockSink struct {
	mu       sync.Mutex
	enqueued []*entity.Notification
	err      error
}

func (m *mockSink) Enqueue(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, n)
	return nil
}

type mockCascade struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (m *mockCascade) OnTaskCompleted(ctx context.Context, taskID int64, correlationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, taskID)
	return m.err
}

func (m *mockCascade) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
