// Package tax implementa el cálculo de GST (CGST + SGST) por línea y los totales de la factura.
//
// Todas las funciones son puras: los totales se recalculan desde cero sobre las líneas actuales,
// nunca se ajustan de forma incremental.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// DefaultRatePct tasa por defecto (%) de cada mitad del GST cuando la configuración falta o es ilegible.
var DefaultRatePct = decimal.NewFromInt(9)

// Rates porcentajes de CGST y SGST activos en una sesión.
type Rates struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
}

// DefaultRates 9% / 9%.
func DefaultRates() Rates {
	return Rates{CGST: DefaultRatePct, SGST: DefaultRatePct}
}

// ParseRates interpreta las tasas configuradas (texto decimal). Cada tasa ausente,
// ilegible o negativa cae de forma independiente al 9%.
func ParseRates(cgstRaw, sgstRaw string) Rates {
	return Rates{CGST: parsePct(cgstRaw), SGST: parsePct(sgstRaw)}
}

func parsePct(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return DefaultRatePct
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return DefaultRatePct
	}
	return d
}

// LineAmounts valores derivados de una línea.
type LineAmounts struct {
	TaxableValue decimal.Decimal
	CGSTAmount   decimal.Decimal
	SGSTAmount   decimal.Decimal
	TotalAmount  decimal.Decimal
}

// Compute calcula los derivados de (cantidad, tarifa) con las tasas dadas.
//
//	taxable = q × r
//	cgst    = taxable × cgst% / 100
//	sgst    = taxable × sgst% / 100
//	total   = taxable + cgst + sgst
func Compute(quantity, rate decimal.Decimal, rates Rates) LineAmounts {
	taxable := quantity.Mul(rate)
	cgst := taxable.Mul(rates.CGST).Div(hundred)
	sgst := taxable.Mul(rates.SGST).Div(hundred)
	return LineAmounts{
		TaxableValue: taxable,
		CGSTAmount:   cgst,
		SGSTAmount:   sgst,
		TotalAmount:  taxable.Add(cgst).Add(sgst),
	}
}

// ComputeLine devuelve una copia de la línea con sus derivados recalculados.
func ComputeLine(item entity.InvoiceItem, rates Rates) entity.InvoiceItem {
	a := Compute(item.Quantity, item.Rate, rates)
	item.TaxableValue = a.TaxableValue
	item.CGSTAmount = a.CGSTAmount
	item.SGSTAmount = a.SGSTAmount
	item.TotalAmount = a.TotalAmount
	return item
}

// Totals agregados de la factura.
type Totals struct {
	TaxableValue decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	InvoiceValue decimal.Decimal
}

// Sum suma campo a campo los derivados de las líneas (ya calculadas).
func Sum(items []entity.InvoiceItem) Totals {
	var t Totals
	for _, it := range items {
		t.TaxableValue = t.TaxableValue.Add(it.TaxableValue)
		t.CGST = t.CGST.Add(it.CGSTAmount)
		t.SGST = t.SGST.Add(it.SGSTAmount)
		t.InvoiceValue = t.InvoiceValue.Add(it.TotalAmount)
	}
	return t
}

// Recompute recalcula todas las líneas y los totales. No modifica el slice recibido.
func Recompute(items []entity.InvoiceItem, rates Rates) ([]entity.InvoiceItem, Totals) {
	out := make([]entity.InvoiceItem, len(items))
	for i, it := range items {
		out[i] = ComputeLine(it, rates)
	}
	return out, Sum(out)
}

// ApplyTotals escribe los totales en la cabecera.
func ApplyTotals(h *entity.InvoiceHeader, t Totals) {
	h.TotalTaxableValue = t.TaxableValue
	h.CGSTTotal = t.CGST
	h.SGSTTotal = t.SGST
	h.TotalInvoiceValue = t.InvoiceValue
}

// RecomputeDraft recalcula líneas y totales del borrador completo.
func RecomputeDraft(d entity.Draft, rates Rates) entity.Draft {
	items, totals := Recompute(d.Items, rates)
	d.Items = items
	ApplyTotals(&d.Header, totals)
	return d
}

// Round redondeo de presentación (2 decimales). Los cálculos internos nunca redondean.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
