package invoicing

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ProformaUseCase genera la proforma PDF del borrador de una sesión.
type ProformaUseCase struct {
	generator ports.ProformaPDFGenerator
}

// NewProformaUseCase construye el caso de uso.
func NewProformaUseCase(generator ports.ProformaPDFGenerator) *ProformaUseCase {
	return &ProformaUseCase{generator: generator}
}

// Render genera el PDF del borrador actual de s.
//
// Retorna:
//   - (pdfBytes, filename, nil)        si todo sale bien.
//   - domain.ErrSessionNotInitialized  si la sesión aún no cargó.
//   - domain.ErrInvalidInput           si el borrador no tiene líneas.
func (uc *ProformaUseCase) Render(ctx context.Context, s *Session) (pdfBytes []byte, filename string, err error) {
	draft, err := exportableDraft(s)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.generator.GenerateProformaPDF(ctx, draft)
	if err != nil {
		return nil, "", fmt.Errorf("proforma: generación fallida: %w", err)
	}
	return pdfBytes, documentName("proforma", draft.Header, "pdf"), nil
}

// SpreadsheetUseCase exporta las líneas y totales del borrador a una hoja de cálculo.
type SpreadsheetUseCase struct {
	exporter ports.DraftSpreadsheetExporter
}

// NewSpreadsheetUseCase construye el caso de uso.
func NewSpreadsheetUseCase(exporter ports.DraftSpreadsheetExporter) *SpreadsheetUseCase {
	return &SpreadsheetUseCase{exporter: exporter}
}

// Export mismas precondiciones que ProformaUseCase.Render.
func (uc *SpreadsheetUseCase) Export(ctx context.Context, s *Session) ([]byte, string, error) {
	draft, err := exportableDraft(s)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.exporter.ExportDraftXLSX(ctx, draft)
	if err != nil {
		return nil, "", fmt.Errorf("xlsx: exportación fallida: %w", err)
	}
	return data, documentName("borrador", draft.Header, "xlsx"), nil
}

func exportableDraft(s *Session) (entity.Draft, error) {
	v := s.View()
	if !v.Initialized {
		return entity.Draft{}, domain.ErrSessionNotInitialized
	}
	if len(v.Draft.Items) == 0 {
		return entity.Draft{}, fmt.Errorf("%w: el borrador no tiene líneas", domain.ErrInvalidInput)
	}
	return v.Draft, nil
}

// documentName prefix_<número o DC>.ext con caracteres no seguros reemplazados por "_".
func documentName(prefix string, h entity.InvoiceHeader, ext string) string {
	ref := h.InvoiceNumber
	if ref == "" {
		ref = h.DCNumber
	}
	if ref == "" {
		ref = "borrador"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, unsafeFilename.ReplaceAllString(ref, "_"), ext)
}
