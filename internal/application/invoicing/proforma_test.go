package invoicing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/internal/application/invoicing"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

type fakePDF struct {
	got entity.Draft
	err error
}

func (f *fakePDF) GenerateProformaPDF(_ context.Context, dr entity.Draft) ([]byte, error) {
	f.got = dr
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestProforma_RenderUsaElBorradorActual(t *testing.T) {
	s := newTestSession(t, newFakeGateway(), "DC-100")
	require.NoError(t, s.UpdateHeaderField("invoice_number", "INV/24-25/007"))
	gen := &fakePDF{}
	uc := invoicing.NewProformaUseCase(gen)

	pdf, name, err := uc.Render(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "proforma_INV_24-25_007.pdf", name)
	assert.Equal(t, "INV/24-25/007", gen.got.Header.InvoiceNumber)
	assert.True(t, d("1575.3").Equal(gen.got.Header.TotalInvoiceValue))
}

func TestProforma_SinLineas(t *testing.T) {
	s := newTestSession(t, newFakeGateway(), "")
	_, _, err := invoicing.NewProformaUseCase(&fakePDF{}).Render(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProforma_ErrorDelGenerador(t *testing.T) {
	s := newTestSession(t, newFakeGateway(), "DC-200")
	_, _, err := invoicing.NewProformaUseCase(&fakePDF{err: errors.New("fuente")}).Render(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proforma")
}

type fakeXLSX struct{ calls int }

func (f *fakeXLSX) ExportDraftXLSX(context.Context, entity.Draft) ([]byte, error) {
	f.calls++
	return []byte("PK"), nil
}

func TestSpreadsheet_ExportNombrePorDC(t *testing.T) {
	s := newTestSession(t, newFakeGateway(), "DC-100")
	exp := &fakeXLSX{}

	data, name, err := invoicing.NewSpreadsheetUseCase(exp).Export(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
	assert.Equal(t, "borrador_DC-100.xlsx", name)
	assert.Equal(t, 1, exp.calls)
}

func TestSpreadsheet_SesionCerrada(t *testing.T) {
	s := newTestSession(t, newFakeGateway(), "DC-100")
	s.Close()
	exp := &fakeXLSX{}

	_, _, err := invoicing.NewSpreadsheetUseCase(exp).Export(context.Background(), s)
	require.Error(t, err)
	assert.Zero(t, exp.calls)
}
