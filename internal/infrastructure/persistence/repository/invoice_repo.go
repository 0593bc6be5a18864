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

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

// Create inserts a new invoice and fills in its ID
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (work_order_id, client_id, amount, due_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		invoice.WorkOrderID, invoice.ClientID, invoice.Amount, invoice.DueDate,
		invoice.Status, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Int64("work_order_id", invoice.WorkOrderID), zap.Error(err))
		return fmt.Errorf("create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("invoice insert id: %w", err)
	}
	invoice.ID = id
	return nil
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := `
		SELECT id, work_order_id, client_id, amount, due_date, payment_date, status, created_at, updated_at
		FROM invoices WHERE id = ?
	`
	invoice, err := scanInvoice(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return invoice, nil
}

// GetByWorkOrderID retrieves all invoices issued for a work order
func (r *InvoiceRepository) GetByWorkOrderID(ctx context.Context, workOrderID int64) ([]*entity.Invoice, error) {
	return r.list(ctx, `work_order_id = ?`, workOrderID)
}

// GetByClientID retrieves all invoices billed to a client
func (r *InvoiceRepository) GetByClientID(ctx context.Context, clientID int64) ([]*entity.Invoice, error) {
	return r.list(ctx, `client_id = ?`, clientID)
}

func (r *InvoiceRepository) list(ctx context.Context, where string, arg int64) ([]*entity.Invoice, error) {
	query := `
		SELECT id, work_order_id, client_id, amount, due_date, payment_date, status, created_at, updated_at
		FROM invoices WHERE ` + where + ` ORDER BY created_at`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// UpdateStatus swaps the invoice status only when it still equals from;
// payment_date is stamped on the first transition to paid and never overwritten.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, from, status string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = ?,
		    payment_date = CASE WHEN ? = 'paid' THEN COALESCE(payment_date, ?) ELSE payment_date END,
		    updated_at = ?
		WHERE id = ? AND status = ?
	`
	ex := sqlite.ExecutorFor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query, status, status, now, now, id, from)
	if err != nil {
		r.logger.Error("Failed to update invoice status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update invoice %d status: %w", id, err)
	}
	return requireStatusSwap(ctx, ex, result, "invoices", fmt.Sprintf("invoice %d", id), id)
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		invoice     entity.Invoice
		dueDate     sql.NullTime
		paymentDate sql.NullTime
	)
	err := row.Scan(
		&invoice.ID, &invoice.WorkOrderID, &invoice.ClientID, &invoice.Amount,
		&dueDate, &paymentDate, &invoice.Status, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	invoice.DueDate = timePtr(dueDate)
	invoice.PaymentDate = timePtr(paymentDate)
	return &invoice, nil
}
