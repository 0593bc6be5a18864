package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
)

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// requireRowAffected converts a zero-row update into ErrNotFound
func requireRowAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, port.ErrNotFound)
	}
	return nil
}

// requireStatusSwap interprets a zero-row conditional status update. A missing
// row is ErrNotFound; an existing row whose status no longer matched the
// expected value is ErrStatusConflict.
func requireStatusSwap(ctx context.Context, ex sqlite.Executor, result sql.Result, table, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", what, err)
	}
	if n > 0 {
		return nil
	}

	var one int
	err = ex.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, port.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", what, err)
	}
	return fmt.Errorf("%s: %w", what, port.ErrStatusConflict)
}

// timePtr unwraps a nullable timestamp column
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// int64Ptr unwraps a nullable integer column
func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
