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

// NotificationService maps committed workflow events to notification records
// and hands them to the delivery sink. Each qualifying event produces at most
// one notification per recipient.
type NotificationService interface {
	// Register subscribes the rule handlers on the dispatcher
	Register(d dispatcher.Dispatcher)

	HandleStatusChanged(ctx context.Context, evt *event.Event) error
	HandleWorkOrderCreated(ctx context.Context, evt *event.Event) error
	HandleInvoiceCreated(ctx context.Context, evt *event.Event) error

	// ListUnread returns a user's unread notifications
	ListUnread(ctx context.Context, userID int64) ([]*entity.Notification, error)

	// MarkRead flips a notification to read
	MarkRead(ctx context.Context, id int64) error
}

type notificationServiceImpl struct {
	requestRepo      port.RequestRepository
	workOrderRepo    port.WorkOrderRepository
	invoiceRepo      port.InvoiceRepository
	clientRepo       port.ClientRepository
	personnelRepo    port.PersonnelRepository
	notificationRepo port.NotificationRepository
	sink             port.NotificationSink
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	requestRepo port.RequestRepository,
	workOrderRepo port.WorkOrderRepository,
	invoiceRepo port.InvoiceRepository,
	clientRepo port.ClientRepository,
	personnelRepo port.PersonnelRepository,
	notificationRepo port.NotificationRepository,
	sink port.NotificationSink,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		requestRepo:      requestRepo,
		workOrderRepo:    workOrderRepo,
		invoiceRepo:      invoiceRepo,
		clientRepo:       clientRepo,
		personnelRepo:    personnelRepo,
		notificationRepo: notificationRepo,
		sink:             sink,
		logger:           logger,
	}
}

// Register subscribes the rule handlers on the dispatcher
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeStatusChanged, "notify-status-changed", s.HandleStatusChanged)
	d.Subscribe(event.TypeWorkOrderCreated, "notify-work-order-created", s.HandleWorkOrderCreated)
	d.Subscribe(event.TypeInvoiceCreated, "notify-invoice-created", s.HandleInvoiceCreated)
}

// HandleStatusChanged applies the per-entity notification rules for a
// committed status transition
func (s *notificationServiceImpl) HandleStatusChanged(ctx context.Context, evt *event.Event) error {
	newStatus := evt.PayloadString("new_status")

	switch evt.EntityType {
	case entity.TypeRequest:
		return s.notifyRequestDecision(ctx, evt.EntityID, newStatus)
	case entity.TypeWorkOrder:
		return s.notifyWorkOrderStatus(ctx, evt.EntityID, newStatus)
	case entity.TypeInvoice:
		if newStatus == entity.StatusPaid {
			return s.notifyInvoicePaid(ctx, evt.EntityID)
		}
		return nil
	default:
		// Quote and Task transitions carry no notification rule.
		return nil
	}
}

// notifyRequestDecision notifies the requesting client of approval/rejection
func (s *notificationServiceImpl) notifyRequestDecision(ctx context.Context, requestID int64, newStatus string) error {
	if newStatus != entity.StatusApproved && newStatus != entity.StatusRejected {
		return nil
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request %d: %w", requestID, err)
	}
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", req.ClientID, err)
	}

	return s.deliver(ctx, &entity.Notification{
		UserID:  client.UserID,
		Title:   fmt.Sprintf("Maintenance request %s", newStatus),
		Message: fmt.Sprintf("Your %s request #%d has been %s.", req.ServiceType, req.ID, newStatus),
		Type:    entity.NotificationTypeRequest,
	})
}

// notifyWorkOrderStatus notifies the requesting client of a work order status
// change; ad-hoc orders without a request have no client to notify
func (s *notificationServiceImpl) notifyWorkOrderStatus(ctx context.Context, orderID int64, newStatus string) error {
	order, err := s.workOrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load work order %d: %w", orderID, err)
	}
	if order.RequestID == nil {
		return nil
	}

	req, err := s.requestRepo.GetByID(ctx, *order.RequestID)
	if err != nil {
		return fmt.Errorf("load request %d: %w", *order.RequestID, err)
	}
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", req.ClientID, err)
	}

	return s.deliver(ctx, &entity.Notification{
		UserID:  client.UserID,
		Title:   "Work order update",
		Message: fmt.Sprintf("Work order #%d for your %s request is now %s.", order.ID, req.ServiceType, newStatus),
		Type:    entity.NotificationTypeWorkOrder,
	})
}

// notifyInvoicePaid notifies the billed client that payment was recorded
func (s *notificationServiceImpl) notifyInvoicePaid(ctx context.Context, invoiceID int64) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	client, err := s.clientRepo.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", invoice.ClientID, err)
	}

	return s.deliver(ctx, &entity.Notification{
		UserID:  client.UserID,
		Title:   "Invoice paid",
		Message: fmt.Sprintf("Payment of %.2f for invoice #%d has been recorded. Thank you.", invoice.Amount, invoice.ID),
		Type:    entity.NotificationTypeInvoice,
	})
}

// HandleWorkOrderCreated notifies the assigned technician and, when the order
// derives from a request, the requesting client
func (s *notificationServiceImpl) HandleWorkOrderCreated(ctx context.Context, evt *event.Event) error {
	order, err := s.workOrderRepo.GetByID(ctx, evt.EntityID)
	if err != nil {
		return fmt.Errorf("load work order %d: %w", evt.EntityID, err)
	}

	tech, err := s.personnelRepo.GetByID(ctx, order.AssignedTo)
	if err != nil {
		return fmt.Errorf("load personnel %d: %w", order.AssignedTo, err)
	}
	if err := s.deliver(ctx, &entity.Notification{
		UserID:  tech.UserID,
		Title:   "New work order assigned",
		Message: fmt.Sprintf("Work order #%d has been assigned to you.", order.ID),
		Type:    entity.NotificationTypeWorkOrder,
	}); err != nil {
		return err
	}

	if order.RequestID == nil {
		return nil
	}
	req, err := s.requestRepo.GetByID(ctx, *order.RequestID)
	if err != nil {
		return fmt.Errorf("load request %d: %w", *order.RequestID, err)
	}
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", req.ClientID, err)
	}
	return s.deliver(ctx, &entity.Notification{
		UserID:  client.UserID,
		Title:   "Work order scheduled",
		Message: fmt.Sprintf("Work order #%d has been scheduled for your %s request.", order.ID, req.ServiceType),
		Type:    entity.NotificationTypeWorkOrder,
	})
}

// HandleInvoiceCreated notifies the billed client, including the amount and
// the related work order reference
func (s *notificationServiceImpl) HandleInvoiceCreated(ctx context.Context, evt *event.Event) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, evt.EntityID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", evt.EntityID, err)
	}
	client, err := s.clientRepo.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", invoice.ClientID, err)
	}

	return s.deliver(ctx, &entity.Notification{
		UserID:  client.UserID,
		Title:   "New invoice",
		Message: fmt.Sprintf("Invoice #%d for %.2f has been issued for work order #%d.", invoice.ID, invoice.Amount, invoice.WorkOrderID),
		Type:    entity.NotificationTypeInvoice,
	})
}

// deliver persists the notification record and hands it to the sink. A sink
// failure is logged only: the record exists, delivery can be retried out of band.
func (s *notificationServiceImpl) deliver(ctx context.Context, n *entity.Notification) error {
	n.IsRead = false
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if err := s.sink.Enqueue(ctx, n); err != nil {
		s.logger.Error("Notification delivery failed",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
		return nil
	}

	s.logger.Info("Notification delivered",
		"notification_id", n.ID, "user_id", n.UserID, "type", n.Type)
	return nil
}

func (s *notificationServiceImpl) ListUnread(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	return s.notificationRepo.ListUnreadByUserID(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id int64) error {
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		s.logger.Error("Failed to mark notification read", "id", id, "error", err)
		return err
	}
	return nil
}
