package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
)

// StatusChangeRepository implements port.StatusChangeRepository
type StatusChangeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusChangeRepository creates a new status change repository
func NewStatusChangeRepository(db *sql.DB, logger *zap.Logger) port.StatusChangeRepository {
	return &StatusChangeRepository{db: db, logger: logger}
}

// Create appends an audit record for a committed transition
func (r *StatusChangeRepository) Create(ctx context.Context, change *entity.StatusChange) error {
	query := `
		INSERT INTO status_changes (entity_type, entity_id, previous_status, new_status, actor_id, actor_role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		string(change.EntityType), change.EntityID, change.PreviousStatus,
		change.NewStatus, change.ActorID, change.ActorRole, change.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record status change",
			zap.String("entity_type", string(change.EntityType)),
			zap.Int64("entity_id", change.EntityID), zap.Error(err))
		return fmt.Errorf("record status change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("status change insert id: %w", err)
	}
	change.ID = id
	return nil
}

// ListByEntity retrieves the transition history of one entity, oldest first
func (r *StatusChangeRepository) ListByEntity(ctx context.Context, entityType entity.EntityType, entityID int64) ([]*entity.StatusChange, error) {
	query := `
		SELECT id, entity_type, entity_id, previous_status, new_status, actor_id, actor_role, created_at
		FROM status_changes WHERE entity_type = ? AND entity_id = ? ORDER BY created_at, id
	`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var changes []*entity.StatusChange
	for rows.Next() {
		var change entity.StatusChange
		var typ string
		err := rows.Scan(
			&change.ID, &typ, &change.EntityID, &change.PreviousStatus,
			&change.NewStatus, &change.ActorID, &change.ActorRole, &change.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		change.EntityType = entity.EntityType(typ)
		changes = append(changes, &change)
	}
	return changes, rows.Err()
}
