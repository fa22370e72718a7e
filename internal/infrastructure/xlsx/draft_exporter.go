// Package xlsx exporta el borrador de factura a una hoja de cálculo (excelize).
package xlsx

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
)

var _ ports.DraftSpreadsheetExporter = (*DraftExporter)(nil)

// SheetName nombre de la hoja con las líneas.
const SheetName = "Factura"

var itemHeaders = []string{
	"#", "Descripción", "HSN/SAC", "Unidad", "Cantidad", "Tarifa",
	"Base imponible", "CGST", "SGST", "Total",
}

// DraftExporter implementa ports.DraftSpreadsheetExporter.
type DraftExporter struct{}

// NewDraftExporter construye el exportador.
func NewDraftExporter() *DraftExporter { return &DraftExporter{} }

// ExportDraftXLSX escribe cabecera, líneas y totales en una sola hoja y devuelve el .xlsx.
func (e *DraftExporter) ExportDraftXLSX(_ context.Context, draft entity.Draft) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("renombrar hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("estilo de cabecera: %w", err)
	}

	h := draft.Header
	meta := [][2]string{
		{"Factura N°", h.InvoiceNumber},
		{"Fecha", h.InvoiceDate},
		{"DC N°", h.DCNumber},
		{"Proveedor", h.SupplierName},
		{"GSTIN proveedor", h.SupplierGSTIN},
		{"Comprador", h.BuyerName},
		{"GSTIN comprador", h.BuyerGSTIN},
		{"Lugar de suministro", h.PlaceOfSupply},
	}
	for i, kv := range meta {
		row := i + 1
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return nil, err
		}
	}

	headerRow := len(meta) + 2
	for i, title := range itemHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, bold); err != nil {
			return nil, err
		}
	}

	for i, it := range draft.Items {
		values := []any{
			i + 1, it.Description, it.HSNSAC, it.Unit,
			amount(it.Quantity), amount(it.Rate), amount(it.TaxableValue),
			amount(it.CGSTAmount), amount(it.SGSTAmount), amount(it.TotalAmount),
		}
		cell := fmt.Sprintf("A%d", headerRow+1+i)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
	}

	totalsRow := headerRow + len(draft.Items) + 2
	totals := [][2]any{
		{"Base imponible", amount(h.TotalTaxableValue)},
		{"CGST", amount(h.CGSTTotal)},
		{"SGST", amount(h.SGSTTotal)},
		{"Total factura", amount(h.TotalInvoiceValue)},
	}
	for i, kv := range totals {
		row := totalsRow + i
		if err := f.SetCellValue(SheetName, fmt.Sprintf("I%d", row), kv[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("J%d", row), kv[1]); err != nil {
			return nil, err
		}
	}
	last := fmt.Sprintf("J%d", totalsRow+len(totals)-1)
	if err := f.SetCellStyle(SheetName, fmt.Sprintf("I%d", totalsRow+len(totals)-1), last, bold); err != nil {
		return nil, err
	}

	widths := []float64{6, 36, 10, 8, 10, 12, 14, 12, 12, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("escribir xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// amount redondea a 2 decimales para la celda; el borrador conserva los valores exactos.
func amount(d decimal.Decimal) float64 {
	return tax.Round(d).InexactFloat64()
}
