package xlsx_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/xlsx"
)

func TestDraftExporter_EscribeLineasYTotales(t *testing.T) {
	draft := tax.RecomputeDraft(entity.Draft{
		Header: entity.InvoiceHeader{InvoiceNumber: "INV-7", InvoiceDate: "2024-06-15", BuyerName: "Tata Motors"},
		Items: []entity.InvoiceItem{
			{Description: "Shaft", Quantity: decimal.RequireFromString("2"), Rate: decimal.RequireFromString("1000")},
			{Description: "Bush", Quantity: decimal.RequireFromString("3"), Rate: decimal.RequireFromString("33.33")},
		},
	}, tax.DefaultRates())

	data, err := xlsx.NewDraftExporter().ExportDraftXLSX(context.Background(), draft)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(xlsx.SheetName, "B1")
	require.NoError(t, err)
	assert.Equal(t, "INV-7", v)

	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)

	var descriptions []string
	var total string
	for _, r := range rows {
		if len(r) >= 2 && (r[1] == "Shaft" || r[1] == "Bush") {
			descriptions = append(descriptions, r[1])
		}
		if len(r) >= 10 && r[8] == "Total factura" {
			total = r[9]
		}
	}
	assert.Equal(t, []string{"Shaft", "Bush"}, descriptions)
	// 2000 + 99.99 = 2099.99; 18 % = 377.9982 → 2477.9882 → 2477.99
	assert.Equal(t, "2477.99", total)
}
