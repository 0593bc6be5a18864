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

// PersonnelRepository implements port.PersonnelRepository
type PersonnelRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPersonnelRepository creates a new service personnel repository
func NewPersonnelRepository(db *sql.DB, logger *zap.Logger) port.PersonnelRepository {
	return &PersonnelRepository{db: db, logger: logger}
}

// Create inserts a new service personnel record and fills in its ID
func (r *PersonnelRepository) Create(ctx context.Context, p *entity.ServicePersonnel) error {
	query := `
		INSERT INTO service_personnel (user_id, specialty, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		p.UserID, p.Specialty, p.Available, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create service personnel", zap.Int64("user_id", p.UserID), zap.Error(err))
		return fmt.Errorf("create service personnel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("service personnel insert id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID retrieves a service personnel record by its ID
func (r *PersonnelRepository) GetByID(ctx context.Context, id int64) (*entity.ServicePersonnel, error) {
	query := `
		SELECT id, user_id, specialty, available, created_at, updated_at
		FROM service_personnel WHERE id = ?
	`
	var p entity.ServicePersonnel
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Specialty, &p.Available, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service personnel %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get service personnel %d: %w", id, err)
	}
	return &p, nil
}
