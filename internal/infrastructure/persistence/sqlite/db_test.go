package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tx_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestWithTransactionCommits(t *testing.T) {
	sqlDB := newTestDB(t)
	db := NewDB(sqlDB, zap.NewNop())

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := ExecutorFor(ctx, sqlDB).ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, sqlDB))
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	sqlDB := newTestDB(t)
	db := NewDB(sqlDB, zap.NewNop())
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := ExecutorFor(ctx, sqlDB).ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countItems(t, sqlDB))
}

func TestWithTransactionNestedReusesTx(t *testing.T) {
	sqlDB := newTestDB(t)
	db := NewDB(sqlDB, zap.NewNop())

	err := db.WithTransaction(context.Background(), func(outer context.Context) error {
		return db.WithTransaction(outer, func(inner context.Context) error {
			// Same transaction carried through
			assert.Equal(t, ExtractTx(outer), ExtractTx(inner))
			_, err := ExecutorFor(inner, sqlDB).ExecContext(inner, `INSERT INTO items (name) VALUES (?)`, "nested")
			return err
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, sqlDB))
}

func TestExecutorForFallsBackToDB(t *testing.T) {
	sqlDB := newTestDB(t)
	assert.Equal(t, Executor(sqlDB), ExecutorFor(context.Background(), sqlDB))
}
