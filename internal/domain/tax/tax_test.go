package tax_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_FormulaExacta(t *testing.T) {
	cases := []struct {
		name       string
		q, r, c, s string
	}{
		{"tasas por defecto", "10", "125.50", "9", "9"},
		{"tasas fraccionarias", "3.333", "17.07", "2.5", "2.5"},
		{"sin impuesto", "7", "100", "0", "0"},
		{"cantidad cero", "0", "999.99", "9", "9"},
		{"tarifa cero", "12", "0", "6", "6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rates := tax.Rates{CGST: d(tc.c), SGST: d(tc.s)}
			got := tax.Compute(d(tc.q), d(tc.r), rates)

			qr := d(tc.q).Mul(d(tc.r))
			assert.True(t, qr.Equal(got.TaxableValue), "taxable = q·r")
			want := qr.Mul(decimal.NewFromInt(1).Add(d(tc.c).Add(d(tc.s)).Div(decimal.NewFromInt(100))))
			assert.True(t, want.Equal(got.TotalAmount), "total = q·r·(1+(c+s)/100): want %s got %s", want, got.TotalAmount)
			assert.True(t, got.TaxableValue.Add(got.CGSTAmount).Add(got.SGSTAmount).Equal(got.TotalAmount))
		})
	}
}

func TestCompute_CamposFaltantesSonCero(t *testing.T) {
	item := tax.ComputeLine(entity.InvoiceItem{Description: "sin cantidad"}, tax.DefaultRates())
	assert.True(t, item.TaxableValue.IsZero())
	assert.True(t, item.TotalAmount.IsZero())
}

func TestParseRates(t *testing.T) {
	cases := []struct {
		name             string
		cgst, sgst       string
		wantCGST, wantSG string
	}{
		{"configuradas", "6", "6", "6", "6"},
		{"ausentes", "", "", "9", "9"},
		{"ilegibles", "nueve", "abc", "9", "9"},
		{"negativa", "-1", "2.5", "9", "2.5"},
		{"con sufijo %", "14%", " 14 ", "14", "14"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tax.ParseRates(tc.cgst, tc.sgst)
			assert.True(t, d(tc.wantCGST).Equal(r.CGST), "cgst %s", r.CGST)
			assert.True(t, d(tc.wantSG).Equal(r.SGST), "sgst %s", r.SGST)
		})
	}
}

func TestRecompute_TotalesSonSumaDeLineas(t *testing.T) {
	items := []entity.InvoiceItem{
		{Description: "A", Quantity: d("2"), Rate: d("100")},
		{Description: "B", Quantity: d("1.5"), Rate: d("40.10")},
		{Description: "C"},
	}
	out, totals := tax.Recompute(items, tax.DefaultRates())
	require.Len(t, out, 3)

	var taxable, cgst, sgst, total decimal.Decimal
	for _, it := range out {
		taxable = taxable.Add(it.TaxableValue)
		cgst = cgst.Add(it.CGSTAmount)
		sgst = sgst.Add(it.SGSTAmount)
		total = total.Add(it.TotalAmount)
	}
	assert.True(t, taxable.Equal(totals.TaxableValue))
	assert.True(t, cgst.Equal(totals.CGST))
	assert.True(t, sgst.Equal(totals.SGST))
	assert.True(t, total.Equal(totals.InvoiceValue))
	assert.True(t, d("260.15").Equal(totals.TaxableValue))

	// el slice de entrada no se toca
	assert.True(t, items[0].TaxableValue.IsZero())
}

func TestRecomputeDraft_Idempotente(t *testing.T) {
	draft := entity.Draft{Items: []entity.InvoiceItem{
		{Quantity: d("3"), Rate: d("33.33")},
		{Quantity: d("0.5"), Rate: d("19.99")},
	}}
	once := tax.RecomputeDraft(draft, tax.DefaultRates())
	twice := tax.RecomputeDraft(once, tax.DefaultRates())
	assert.True(t, once.Header.TotalInvoiceValue.Equal(twice.Header.TotalInvoiceValue))
	assert.True(t, once.Header.CGSTTotal.Equal(twice.Header.CGSTTotal))
	assert.True(t, once.Header.TotalTaxableValue.Equal(twice.Header.TotalTaxableValue))
}

func TestRecomputeDraft_SinTotalesObsoletos(t *testing.T) {
	draft := entity.Draft{
		Header: entity.InvoiceHeader{TotalInvoiceValue: d("999999")},
		Items:  []entity.InvoiceItem{{Quantity: d("1"), Rate: d("100")}},
	}
	got := tax.RecomputeDraft(draft, tax.DefaultRates())
	assert.True(t, d("118").Equal(got.Header.TotalInvoiceValue))
}
