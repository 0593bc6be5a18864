package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/repository"
	"github.com/oakline/maintflow/pkg/database"
)

func setupExportTest(t *testing.T) (*InvoiceExporter, int64) {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	db, err := database.Open(database.Config{
		Path:            filepath.Join(t.TempDir(), "export.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(filepath.Join("..", "..", "migrations")))

	users := repository.NewUserRepository(db, logger)
	user := &entity.User{Name: "Dana", Email: "dana@example.com", Role: entity.RoleClient, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, user))
	techUser := &entity.User{Name: "Lee", Email: "lee@example.com", Role: entity.RoleTechnician, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, techUser))

	clients := repository.NewClientRepository(db, logger)
	client := &entity.Client{UserID: user.ID, Name: "Dana Property Mgmt", Address: "12 Oak St", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, clients.Create(ctx, client))

	personnel := repository.NewPersonnelRepository(db, logger)
	tech := &entity.ServicePersonnel{UserID: techUser.ID, Available: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, personnel.Create(ctx, tech))

	orders := repository.NewWorkOrderRepository(db, logger)
	order := &entity.WorkOrder{AssignedTo: tech.ID, Description: "fix leak", Status: entity.StatusCompleted, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, orders.Create(ctx, order))

	invoices := repository.NewInvoiceRepository(db, logger)
	invoice := &entity.Invoice{WorkOrderID: order.ID, ClientID: client.ID, Amount: 450.50, Status: entity.StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, invoices.Create(ctx, invoice))

	exporter := NewInvoiceExporter(invoices, orders, clients,
		t.TempDir(), "Oakline Building Services", logger)
	return exporter, invoice.ID
}

func TestExportWritesWorkbook(t *testing.T) {
	exporter, invoiceID := setupExportTest(t)

	path, err := exporter.Export(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Contains(t, path, "invoice_")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	company, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Oakline Building Services", company)

	billedTo, err := f.GetCellValue(sheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Dana Property Mgmt", billedTo)

	amount, err := f.GetCellValue(sheet, "B13")
	require.NoError(t, err)
	assert.Equal(t, "450.50", amount)
}

func TestExportUnknownInvoice(t *testing.T) {
	exporter, _ := setupExportTest(t)

	_, err := exporter.Export(context.Background(), 9999)
	assert.ErrorIs(t, err, port.ErrNotFound)
}
