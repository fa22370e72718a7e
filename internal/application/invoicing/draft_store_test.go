package invoicing_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/internal/application/invoicing"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
)

func newDerivedStore() *invoicing.DraftStore {
	s := invoicing.NewDraftStore()
	s.SetDeriver(func(dr entity.Draft) entity.Draft { return tax.RecomputeDraft(dr, tax.DefaultRates()) })
	return s
}

func sampleItems() []entity.InvoiceItem {
	return []entity.InvoiceItem{
		{Description: "Flange", Quantity: d("10"), Rate: d("125.50")},
		{Description: "Gasket", Quantity: d("4"), Rate: d("20")},
	}
}

func TestDraftStore_SetInvoiceReemplazaTodo(t *testing.T) {
	s := newDerivedStore()
	s.SetInvoice(entity.InvoiceHeader{InvoiceNumber: "A", Remarks: "viejo", DCNumber: "DC-1"}, sampleItems())
	s.SetInvoice(entity.InvoiceHeader{InvoiceNumber: "B"}, []entity.InvoiceItem{{Quantity: d("1"), Rate: d("100")}})

	got := s.Snapshot()
	assert.Equal(t, "B", got.Header.InvoiceNumber)
	assert.Empty(t, got.Header.Remarks, "no se mezcla con la cabecera anterior")
	assert.Empty(t, got.Header.DCNumber)
	require.Len(t, got.Items, 1)
	assert.True(t, d("118").Equal(got.Header.TotalInvoiceValue))
}

func TestDraftStore_DerivadosSiempreActuales(t *testing.T) {
	s := newDerivedStore()
	s.SetInvoice(entity.InvoiceHeader{}, sampleItems())

	got := s.Snapshot()
	assert.True(t, d("1335").Equal(got.Header.TotalTaxableValue), got.Header.TotalTaxableValue.String())
	assert.True(t, d("1575.3").Equal(got.Header.TotalInvoiceValue), got.Header.TotalInvoiceValue.String())

	require.NoError(t, s.UpdateItem(1, "quantity", "0"))
	got = s.Snapshot()
	assert.True(t, d("1255").Equal(got.Header.TotalTaxableValue))
	assert.True(t, got.Items[1].TotalAmount.IsZero())

	require.NoError(t, s.RemoveItem(0))
	got = s.Snapshot()
	require.Len(t, got.Items, 1)
	assert.True(t, got.Header.TotalInvoiceValue.IsZero())
}

func TestDraftStore_UpdateItemValidaCampo(t *testing.T) {
	s := newDerivedStore()
	s.SetInvoice(entity.InvoiceHeader{}, sampleItems())
	before := s.Snapshot()

	assert.ErrorIs(t, s.UpdateItem(0, "total_amount", "1"), domain.ErrLockedField)
	assert.ErrorIs(t, s.UpdateItem(0, "color", "rojo"), domain.ErrUnknownField)
	assert.ErrorIs(t, s.UpdateItem(0, "rate", "abc"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.UpdateItem(0, "quantity", "-1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.UpdateItem(5, "rate", "1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.RemoveItem(-1), domain.ErrInvalidInput)

	after := s.Snapshot()
	assert.Equal(t, before.Version, after.Version, "un error no produce una nueva versión")

	require.NoError(t, s.UpdateItem(0, "rate", ""))
	assert.True(t, s.Snapshot().Items[0].Rate.IsZero(), "vacío cuenta como cero")
}

func TestDraftStore_UpdateHeaderNoEscribeTotales(t *testing.T) {
	s := newDerivedStore()
	assert.ErrorIs(t, s.UpdateHeader("total_invoice_value", "5"), domain.ErrLockedField)
	assert.ErrorIs(t, s.UpdateHeader("no_existe", "5"), domain.ErrUnknownField)
	assert.ErrorIs(t, s.UpdateHeader("invoice_date", "15/06/2024"), domain.ErrInvalidInput)
	require.NoError(t, s.UpdateHeader("invoice_date", "2024-06-15"))
	assert.Equal(t, "2024-06-15", s.Snapshot().Header.InvoiceDate)
}

func TestDraftStore_SnapshotEsCopia(t *testing.T) {
	s := newDerivedStore()
	s.SetInvoice(entity.InvoiceHeader{}, sampleItems())
	snap := s.Snapshot()
	snap.Items[0].Description = "mutado"
	assert.Equal(t, "Flange", s.Snapshot().Items[0].Description)
}

func TestDraftStore_SuscriptoresEnOrdenDeVersion(t *testing.T) {
	s := newDerivedStore()
	var mu sync.Mutex
	var versions []uint64
	unsubscribe := s.Subscribe(func(dr entity.Draft) {
		mu.Lock()
		versions = append(versions, dr.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetNumberStatus(true, false)
		}()
	}
	wg.Wait()
	unsubscribe()
	s.Clear()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 20)
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
}

func TestDraftStore_ResetVaciaYDesconecta(t *testing.T) {
	s := newDerivedStore()
	s.SetInvoice(entity.InvoiceHeader{InvoiceNumber: "X"}, sampleItems())
	s.SetNumberStatus(false, true)

	calls := 0
	s.Subscribe(func(entity.Draft) { calls++ })
	s.Reset()
	s.SetHeader(entity.InvoiceHeader{InvoiceNumber: "Y"})

	assert.Equal(t, 1, calls, "solo la notificación del propio Reset")
	got := s.Snapshot()
	assert.Equal(t, "Y", got.Header.InvoiceNumber)
	assert.Empty(t, got.Items)
	assert.False(t, got.NumberStatus.Duplicate)
}
