package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/application/service"
	"github.com/oakline/maintflow/internal/domain/entity"
	domainwf "github.com/oakline/maintflow/internal/domain/workflow"
	"github.com/oakline/maintflow/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflows     service.WorkflowService
	notifications service.NotificationService
	exporter      *export.InvoiceExporter
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflows service.WorkflowService,
	notifications service.NotificationService,
	exporter *export.InvoiceExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflows:     workflows,
		notifications: notifications,
		exporter:      exporter,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TransitionRequest is the body of a transition call
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
}

// CreateRequestBody is the body for creating a maintenance request
type CreateRequestBody struct {
	ClientID    int64  `json:"client_id" binding:"required"`
	ServiceType string `json:"service_type" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// CreateQuoteBody is the body for creating a quote
type CreateQuoteBody struct {
	RequestID int64   `json:"request_id" binding:"required"`
	Total     float64 `json:"total"`
	Items     string  `json:"items"`
}

// CreateWorkOrderBody is the body for creating a work order
type CreateWorkOrderBody struct {
	RequestID     *int64     `json:"request_id"`
	AssignedTo    int64      `json:"assigned_to" binding:"required"`
	Description   string     `json:"description"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// CreateTaskBody is the body for creating a task
type CreateTaskBody struct {
	WorkOrderID   int64   `json:"work_order_id" binding:"required"`
	Description   string  `json:"description"`
	EstimatedTime float64 `json:"estimated_time"`
}

// CreateInvoiceBody is the body for creating an invoice
type CreateInvoiceBody struct {
	WorkOrderID int64      `json:"work_order_id" binding:"required"`
	ClientID    int64      `json:"client_id" binding:"required"`
	Amount      float64    `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// WorkOrderResponse includes the order and its tasks
type WorkOrderResponse struct {
	WorkOrder *entity.WorkOrder `json:"work_order"`
	Tasks     []*entity.Task    `json:"tasks"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Transition handles POST /api/workflow/:entity_type/:id/transition
func (h *Handlers) Transition(c *gin.Context) {
	entityType := entity.EntityType(c.Param("entity_type"))
	if !entityType.IsValid() {
		h.badRequest(c, "unknown entity type")
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "target_status is required")
		return
	}

	state, err := h.workflows.Transition(c.Request.Context(), entityType, id, body.TargetStatus, h.actor(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: state})
}

// History handles GET /api/workflow/:entity_type/:id/history
func (h *Handlers) History(c *gin.Context) {
	entityType := entity.EntityType(c.Param("entity_type"))
	if !entityType.IsValid() {
		h.badRequest(c, "unknown entity type")
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	changes, err := h.workflows.History(c.Request.Context(), entityType, id)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: changes})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	req := &entity.Request{
		ClientID:    body.ClientID,
		ServiceType: body.ServiceType,
		Description: body.Description,
		Priority:    body.Priority,
	}
	if req.Priority == "" {
		req.Priority = entity.PriorityMedium
	}

	if err := h.workflows.CreateRequest(c.Request.Context(), req); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	req, err := h.workflows.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// CreateQuote handles POST /api/quotes
func (h *Handlers) CreateQuote(c *gin.Context) {
	var body CreateQuoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	quote := &entity.Quote{
		RequestID: body.RequestID,
		Total:     body.Total,
		Items:     body.Items,
	}
	if quote.Items == "" {
		quote.Items = "[]"
	}

	if err := h.workflows.CreateQuote(c.Request.Context(), quote); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: quote})
}

// GetQuote handles GET /api/quotes/:id
func (h *Handlers) GetQuote(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	quote, err := h.workflows.GetQuote(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: quote})
}

// CreateWorkOrder handles POST /api/work-orders
func (h *Handlers) CreateWorkOrder(c *gin.Context) {
	var body CreateWorkOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	order := &entity.WorkOrder{
		RequestID:     body.RequestID,
		AssignedTo:    body.AssignedTo,
		Description:   body.Description,
		ScheduledDate: body.ScheduledDate,
	}

	if err := h.workflows.CreateWorkOrder(c.Request.Context(), order); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: order})
}

// GetWorkOrder handles GET /api/work-orders/:id
func (h *Handlers) GetWorkOrder(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	order, tasks, err := h.workflows.GetWorkOrderWithTasks(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: WorkOrderResponse{WorkOrder: order, Tasks: tasks}})
}

// CreateTask handles POST /api/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	var body CreateTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	task := &entity.Task{
		WorkOrderID:   body.WorkOrderID,
		Description:   body.Description,
		EstimatedTime: body.EstimatedTime,
	}

	if err := h.workflows.CreateTask(c.Request.Context(), task); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: task})
}

// GetTask handles GET /api/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	task, err := h.workflows.GetTask(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: task})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var body CreateInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	invoice := &entity.Invoice{
		WorkOrderID: body.WorkOrderID,
		ClientID:    body.ClientID,
		Amount:      body.Amount,
		DueDate:     body.DueDate,
	}

	if err := h.workflows.CreateInvoice(c.Request.Context(), invoice); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	invoice, err := h.workflows.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// ExportInvoice handles POST /api/invoices/:id/export
func (h *Handlers) ExportInvoice(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	path, err := h.exporter.Export(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// ListUnreadNotifications handles GET /api/users/:id/notifications/unread
func (h *Handlers) ListUnreadNotifications(c *gin.Context) {
	userID, ok := h.pathID(c)
	if !ok {
		return
	}
	notifications, err := h.notifications.ListUnread(c.Request.Context(), userID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: notifications})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// actor reads the acting user from request headers. The workflow core audits
// the actor; authentication is expected in front of this service.
func (h *Handlers) actor(c *gin.Context) service.Actor {
	actor := service.Actor{Role: c.GetHeader("X-Actor-Role")}
	if id, err := strconv.ParseInt(c.GetHeader("X-Actor-ID"), 10, 64); err == nil {
		actor.UserID = id
	}
	if actor.Role == "" {
		actor.Role = entity.RoleClient
	}
	return actor
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// serviceError maps service failures to HTTP status codes
func (h *Handlers) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, domainwf.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, domainwf.ErrInvalidTransition), errors.Is(err, domainwf.ErrGuardFailed),
		errors.Is(err, port.ErrStatusConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
