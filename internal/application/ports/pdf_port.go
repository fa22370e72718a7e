package ports

import (
	"context"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

// ProformaPDFGenerator puerto de salida para renderizar el borrador como proforma PDF.
type ProformaPDFGenerator interface {
	GenerateProformaPDF(ctx context.Context, draft entity.Draft) ([]byte, error)
}

// DraftSpreadsheetExporter puerto de salida para exportar el borrador como .xlsx.
type DraftSpreadsheetExporter interface {
	ExportDraftXLSX(ctx context.Context, draft entity.Draft) ([]byte, error)
}
