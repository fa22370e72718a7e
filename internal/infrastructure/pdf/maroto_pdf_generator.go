// Package pdf genera la proforma (borrador no fiscal) de una factura GST a partir del borrador
// de la sesión de creación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Proveedor + GSTIN   │  PROFORMA N° + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  COMPRADOR: Nombre + GSTIN + dirección + lugar de suministro │
//	│  DC / pedido / transporte                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Descripción | HSN | Cant | Tarifa | Base | Total │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base imponible / CGST / SGST / TOTAL               │
//	│  QR con el resumen + leyenda                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// MarotoPDFGenerator implementa ports.ProformaPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateProformaPDF genera el PDF del borrador y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateProformaPDF(_ context.Context, draft entity.Draft) ([]byte, error) {
	h := draft.Header
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Proforma "+nonEmpty(h.InvoiceNumber, h.DCNumber), true).
		WithAuthor(h.SupplierName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(h))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(buyerRow(h))
	m.AddRows(dispatchRow(h))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(draft.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(h))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(h))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar proforma: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(h entity.InvoiceHeader) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(nonEmpty(h.SupplierName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("GSTIN: "+nonEmpty(h.SupplierGSTIN, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New(oneLine(h.SupplierAddress)+"  "+h.SupplierContact, props.Text{
				Size: 7, Top: 14, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("PROFORMA - TAX INVOICE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(h.InvoiceNumber, "(sin número)"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+nonEmpty(h.InvoiceDate, "—"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func buyerRow(h entity.InvoiceHeader) core.Row {
	return row.New(18).Add(
		col.New(12).Add(
			text.New("COMPRADOR (BILL TO)", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(h.BuyerName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("GSTIN: %s   |   Estado: %s (%s)   |   Lugar de suministro: %s",
				nonEmpty(h.BuyerGSTIN, "—"),
				nonEmpty(h.BuyerState, "—"),
				nonEmpty(h.BuyerStateCode, "—"),
				nonEmpty(h.PlaceOfSupply, "—"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
			text.New(oneLine(h.BuyerAddress), props.Text{Size: 7, Top: 15, Color: colorGray}),
		),
	)
}

func dispatchRow(h entity.InvoiceHeader) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("DC: %s (%s)   |   Pedido: %s (%s)   |   Vehículo: %s   |   LR: %s   |   Transportista: %s",
				nonEmpty(h.DCNumber, "—"), nonEmpty(h.DCDate, "—"),
				nonEmpty(h.BuyersOrderNo, "—"), nonEmpty(h.BuyersOrderDate, "—"),
				nonEmpty(h.VehicleNo, "—"), nonEmpty(h.LRNo, "—"), nonEmpty(h.Transporter, "—"),
			), props.Text{Size: 7, Top: 1, Color: colorGray}),
			text.New(fmt.Sprintf("Destino: %s   |   Condiciones de entrega: %s   |   Pago: %s %s",
				nonEmpty(h.Destination, "—"), nonEmpty(h.TermsOfDelivery, "—"),
				h.PaymentTerms, h.ModeOfPayment,
			), props.Text{Size: 7, Top: 5, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("HSN/SAC", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("Tarifa", 2, align.Right),
		h("Base", 1, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableItemRows(items []entity.InvoiceItem) []core.Row {
	out := make([]core.Row, 0, len(items))
	for i, it := range items {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		desc := it.Description
		if it.Unit != "" {
			desc += " (" + it.Unit + ")"
		}
		out = append(out, row.New(7).Add(
			cell(fmt.Sprintf("%d", i+1), 1, align.Center),
			cell(desc, 4, align.Left),
			cell(it.HSNSAC, 1, align.Center),
			cell(it.Quantity.String(), 1, align.Right),
			cell(FormatINR(it.Rate), 2, align.Right),
			cell(FormatINR(it.TaxableValue), 1, align.Right),
			cell(FormatINR(it.TotalAmount), 2, align.Right),
		))
	}
	return out
}

func totalsRow(h entity.InvoiceHeader) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(26).Add(
		col.New(4),
		col.New(4).Add(
			label("Base imponible:"),
			text.New("CGST:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("SGST:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 10}),
			text.New("TOTAL FACTURA:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 16,
			}),
		),
		col.New(4).Add(
			value("Rs. "+FormatINR(h.TotalTaxableValue)),
			text.New("Rs. "+FormatINR(h.CGSTTotal), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			text.New("Rs. "+FormatINR(h.SGSTTotal), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 10}),
			text.New("Rs. "+FormatINR(h.TotalInvoiceValue), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 16,
			}),
		),
	)
}

func footerRow(h entity.InvoiceHeader) core.Row {
	qr := strings.Join([]string{
		h.SupplierGSTIN, h.BuyerGSTIN, h.InvoiceNumber, h.InvoiceDate, tax.Round(h.TotalInvoiceValue).String(),
	}, "|")
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Documento PROFORMA sin validez fiscal.", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 4, Left: 3, Color: colorPrimary,
			}),
			text.New("Los importes se recalculan al guardar la factura definitiva.", props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
			text.New(oneLine(h.Remarks), props.Text{Size: 8, Top: 18, Left: 3, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatINR redondea a 2 decimales y agrupa al estilo indio.
// Ej: 1234567.891 → "12,34,567.89"
func FormatINR(d decimal.Decimal) string {
	s := tax.Round(d).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		return "-" + intPart + frac
	}
	return intPart + frac
}
