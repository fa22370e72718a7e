package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
)

func TestDuplicateQuery_PorTipo(t *testing.T) {
	q, err := duplicateQuery(ports.KindInvoice)
	require.NoError(t, err)
	assert.Contains(t, q, "gst_invoices")
	assert.Contains(t, q, "invoice_date >= $2")
	assert.Contains(t, q, "invoice_date < $3", "límite superior excluido")

	q, err = duplicateQuery(ports.KindDC)
	require.NoError(t, err)
	assert.Contains(t, q, "delivery_challans")
	assert.Contains(t, q, "dc_date < $3")

	_, err = duplicateQuery("PO")
	assert.Error(t, err)
}
