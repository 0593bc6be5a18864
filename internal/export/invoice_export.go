package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
)

// InvoiceExporter writes invoice statements as Excel workbooks
type InvoiceExporter struct {
	invoices    port.InvoiceRepository
	workOrders  port.WorkOrderRepository
	clients     port.ClientRepository
	outputDir   string
	companyName string
	logger      *zap.Logger
}

// NewInvoiceExporter creates a new invoice exporter
func NewInvoiceExporter(
	invoices port.InvoiceRepository,
	workOrders port.WorkOrderRepository,
	clients port.ClientRepository,
	outputDir, companyName string,
	logger *zap.Logger,
) *InvoiceExporter {
	return &InvoiceExporter{
		invoices:    invoices,
		workOrders:  workOrders,
		clients:     clients,
		outputDir:   outputDir,
		companyName: companyName,
		logger:      logger,
	}
}

// Export writes a single invoice to an xlsx file and returns its path
func (e *InvoiceExporter) Export(ctx context.Context, invoiceID int64) (string, error) {
	invoice, err := e.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	order, err := e.workOrders.GetByID(ctx, invoice.WorkOrderID)
	if err != nil {
		return "", err
	}
	client, err := e.clients.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	e.setCell(f, sheet, "A1", e.companyName)
	e.setCell(f, sheet, "A2", fmt.Sprintf("Invoice #%d", invoice.ID))
	e.setCell(f, sheet, "A4", "Billed to")
	e.setCell(f, sheet, "B4", client.Name)
	e.setCell(f, sheet, "B5", client.Address)
	e.setCell(f, sheet, "A7", "Work order")
	e.setCell(f, sheet, "B7", fmt.Sprintf("#%d %s", order.ID, order.Description))
	e.setCell(f, sheet, "A8", "Status")
	e.setCell(f, sheet, "B8", invoice.Status)
	e.setCell(f, sheet, "A9", "Issued")
	e.setCell(f, sheet, "B9", invoice.CreatedAt.Format("2006-01-02"))
	if invoice.DueDate != nil {
		e.setCell(f, sheet, "A10", "Due")
		e.setCell(f, sheet, "B10", invoice.DueDate.Format("2006-01-02"))
	}
	if invoice.PaymentDate != nil {
		e.setCell(f, sheet, "A11", "Paid")
		e.setCell(f, sheet, "B11", invoice.PaymentDate.Format("2006-01-02"))
	}
	e.setCell(f, sheet, "A13", "Amount")
	e.setCell(f, sheet, "B13", fmt.Sprintf("%.2f", invoice.Amount))

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	outputPath := filepath.Join(e.outputDir, fmt.Sprintf("invoice_%d.xlsx", invoice.ID))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	e.logger.Info("Invoice exported",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("output_path", outputPath))

	return outputPath, nil
}

func (e *InvoiceExporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
