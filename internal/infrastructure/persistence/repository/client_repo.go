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

// ClientRepository implements port.ClientRepository
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// Create inserts a new client and fills in its ID
func (r *ClientRepository) Create(ctx context.Context, client *entity.Client) error {
	query := `
		INSERT INTO clients (user_id, name, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		client.UserID, client.Name, client.Phone, client.Address,
		client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create client", zap.String("name", client.Name), zap.Error(err))
		return fmt.Errorf("create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("client insert id: %w", err)
	}
	client.ID = id
	return nil
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	query := `
		SELECT id, user_id, name, phone, address, created_at, updated_at
		FROM clients WHERE id = ?
	`
	var client entity.Client
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.UserID, &client.Name, &client.Phone, &client.Address,
		&client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return &client, nil
}
