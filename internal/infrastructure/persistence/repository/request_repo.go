package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

// Create inserts a new request and fills in its ID
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (client_id, service_type, description, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		req.ClientID, req.ServiceType, req.Description, req.Priority, req.Status,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Int64("client_id", req.ClientID), zap.Error(err))
		return fmt.Errorf("create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("request insert id: %w", err)
	}
	req.ID = id
	return nil
}

// GetByID retrieves a request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	query := `
		SELECT id, client_id, service_type, description, priority, status, created_at, updated_at
		FROM requests WHERE id = ?
	`
	req, err := scanRequest(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	return req, nil
}

// GetByClientID retrieves all requests submitted by a client
func (r *RequestRepository) GetByClientID(ctx context.Context, clientID int64) ([]*entity.Request, error) {
	query := `
		SELECT id, client_id, service_type, description, priority, status, created_at, updated_at
		FROM requests WHERE client_id = ? ORDER BY created_at DESC
	`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list requests for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus swaps the request status only when it still equals from
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, from, status string) error {
	query := `UPDATE requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	ex := sqlite.ExecutorFor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query, status, id, from)
	if err != nil {
		r.logger.Error("Failed to update request status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update request %d status: %w", id, err)
	}
	return requireStatusSwap(ctx, ex, result, "requests", fmt.Sprintf("request %d", id), id)
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	err := row.Scan(
		&req.ID, &req.ClientID, &req.ServiceType, &req.Description,
		&req.Priority, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
