package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/backend"
)

func newClient(t *testing.T, h http.Handler) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := backend.NewClient(backend.Config{BaseURL: srv.URL + "/", APIKey: "k-123", Timeout: 2 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewClient_BaseURLInvalida(t *testing.T) {
	_, err := backend.NewClient(backend.Config{BaseURL: "localhost"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestClient_GetBuyers(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/buyers/", r.URL.Path)
		assert.Equal(t, "k-123", r.Header.Get("X-API-Key"))
		_, _ = io.WriteString(w, `[{"id":7,"name":"Tata Motors","gstin":"27AAACT2727Q1ZW","is_default":true,"created_at":"2024-01-01"}]`)
	}))

	buyers, err := c.GetBuyers(context.Background())
	require.NoError(t, err)
	require.Len(t, buyers, 1)
	assert.EqualValues(t, 7, buyers[0].ID)
	assert.True(t, buyers[0].IsDefault)
}

func TestClient_GetSettingsAceptaNumerosYNull(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"supplier_name":"SGEW","cgst_rate":9,"sgst_rate":"2.5","supplier_contact":null}`)
	}))

	st, err := c.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SGEW", st.SupplierName)
	assert.Equal(t, "9", st.CGSTRate)
	assert.Equal(t, "2.5", st.SGSTRate)
	assert.Empty(t, st.SupplierContact)
}

func TestClient_CheckDuplicateNumber(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/common/check-duplicate", r.URL.Path)
		assert.Equal(t, "Invoice", r.URL.Query().Get("type"))
		assert.Equal(t, "INV/7 A", r.URL.Query().Get("number"))
		assert.Equal(t, "2025-03-31", r.URL.Query().Get("date"))
		_ = json.NewEncoder(w).Encode(map[string]any{"exists": true, "financial_year": "2024-25", "conflict_type": "Invoice"})
	}))

	exists, err := c.CheckDuplicateNumber(context.Background(), ports.KindInvoice, "INV/7 A",
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_GetInvoicePreview(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invoice/preview/DC%2F24%2F001", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"header":{"dc_number":"DC/24/001","buyer_name":"TATA"},
			"items":[{"description":"Shaft","quantity":2,"rate":"1000.50"}]}`)
	}))

	p, err := c.GetInvoicePreview(context.Background(), "DC/24/001")
	require.NoError(t, err)
	assert.Equal(t, "DC/24/001", p.Header.DCNumber)
	require.Len(t, p.Items, 1)
	assert.True(t, decimal.RequireFromString("1000.50").Equal(p.Items[0].Rate))
}

func TestClient_GetInvoicePreviewErrores(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"no encontrado", 404, `{"detail":"DC X not found or has no items"}`, domain.ErrNotFound, "DC X not found or has no items"},
		{"ya facturado", 409, `{"success":false,"message":"DC X already invoiced","error_code":"CONFLICT"}`, domain.ErrAlreadyInvoiced, "DC X already invoiced"},
		{"validación", 422, `{"detail":[{"loc":["path"],"msg":"field required"}]}`, domain.ErrInvalidInput, "field required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			_, err := c.GetInvoicePreview(context.Background(), "X")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			var re *domain.RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.wantMsg, domain.UserMessage(err))
		})
	}
}

func TestClient_CreateInvoice(t *testing.T) {
	buyerID := int64(3)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/invoice/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "INV-9", body["invoice_number"], "la cabecera viaja aplanada")
		assert.EqualValues(t, 3, body["buyer_id"])
		assert.Len(t, body["items"], 1)
		_, _ = io.WriteString(w, `{"success":true,"invoice_number":"INV-9","total_amount":118,"items_count":1}`)
	}))

	out, err := c.CreateInvoice(context.Background(), entity.CreateInvoicePayload{
		InvoiceHeader: entity.InvoiceHeader{InvoiceNumber: "INV-9"},
		BuyerID:       &buyerID,
		Items:         []entity.InvoiceItem{{Description: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-9", out.InvoiceNumber)
	assert.True(t, decimal.NewFromInt(118).Equal(out.TotalAmount))
}

func TestClient_CreateInvoiceConflicto(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"detail":"Invoice INV-9 already exists in FY 2024-25"}`)
	}))
	_, err := c.CreateInvoice(context.Background(), entity.CreateInvoicePayload{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Invoice INV-9 already exists in FY 2024-25", domain.UserMessage(err))
}

func TestClient_Error500SinJSON(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	_, err := c.GetBuyers(context.Background())
	var re *domain.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 500, re.Status)
	assert.Equal(t, "boom", re.Message)
}
