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

// QuoteRepository implements port.QuoteRepository
type QuoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{db: db, logger: logger}
}

// Create inserts a new quote and fills in its ID
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	query := `
		INSERT INTO quotes (request_id, total, items, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		quote.RequestID, quote.Total, quote.Items, quote.Status,
		quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quote", zap.Int64("request_id", quote.RequestID), zap.Error(err))
		return fmt.Errorf("create quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("quote insert id: %w", err)
	}
	quote.ID = id
	return nil
}

// GetByID retrieves a quote by its ID
func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*entity.Quote, error) {
	query := `
		SELECT id, request_id, total, items, status, created_at, updated_at
		FROM quotes WHERE id = ?
	`
	quote, err := scanQuote(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("quote %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get quote %d: %w", id, err)
	}
	return quote, nil
}

// GetByRequestID retrieves all quotes issued for a request
func (r *QuoteRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Quote, error) {
	query := `
		SELECT id, request_id, total, items, status, created_at, updated_at
		FROM quotes WHERE request_id = ? ORDER BY created_at
	`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list quotes for request %d: %w", requestID, err)
	}
	defer rows.Close()

	var quotes []*entity.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// UpdateStatus swaps the quote status only when it still equals from
func (r *QuoteRepository) UpdateStatus(ctx context.Context, id int64, from, status string) error {
	query := `UPDATE quotes SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	ex := sqlite.ExecutorFor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query, status, id, from)
	if err != nil {
		r.logger.Error("Failed to update quote status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update quote %d status: %w", id, err)
	}
	return requireStatusSwap(ctx, ex, result, "quotes", fmt.Sprintf("quote %d", id), id)
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var quote entity.Quote
	err := row.Scan(
		&quote.ID, &quote.RequestID, &quote.Total, &quote.Items,
		&quote.Status, &quote.CreatedAt, &quote.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
