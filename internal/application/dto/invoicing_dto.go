package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

// StartDraftRequest body para POST /api/invoice-drafts.
// DCNumber es opcional: si va, el borrador se siembra desde la vista previa del DC.
type StartDraftRequest struct {
	DCNumber string `json:"dc_number,omitempty"`
}

// LinkDCRequest body para POST /api/invoice-drafts/:id/dc.
type LinkDCRequest struct {
	DCNumber string `json:"dc_number"`
}

// FieldUpdateRequest body para PATCH de cabecera o línea.
type FieldUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SelectBuyerRequest body para PUT /api/invoice-drafts/:id/buyer.
type SelectBuyerRequest struct {
	BuyerID int64 `json:"buyer_id"`
}

// SaveInvoiceRequest body para POST /api/invoice-drafts/:id/save.
// Confirm debe ser true: el guardado exige un paso de confirmación explícito.
type SaveInvoiceRequest struct {
	Confirm bool `json:"confirm"`
}

// DraftSessionResponse vista completa de una sesión de creación de factura.
// El cliente no debe renderizar el formulario editable mientras Initialized sea false.
type DraftSessionResponse struct {
	ID              string          `json:"id"`
	Phase           string          `json:"phase"`
	Initialized     bool            `json:"initialized"`
	Draft           entity.Draft    `json:"draft"`
	Buyers          []entity.Buyer  `json:"buyers"`
	SelectedBuyerID *int64          `json:"selected_buyer_id,omitempty"`
	BuyerMatch      string          `json:"buyer_match,omitempty"` // matched|default|first|none|manual
	NumberState     string          `json:"number_state"`          // idle|checking|clean|duplicate
	CGSTRate        decimal.Decimal `json:"cgst_rate"`
	SGSTRate        decimal.Decimal `json:"sgst_rate"`
	CanSave         bool            `json:"can_save"`
	BlockedBy       []string        `json:"blocked_by"`
	Warnings        []string        `json:"warnings,omitempty"`
	Error           string          `json:"error,omitempty"` // banner descartable
}

// SaveInvoiceResponse respuesta de un guardado exitoso.
type SaveInvoiceResponse struct {
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemsCount    int             `json:"items_count"`
	RedirectTo    string          `json:"redirect_to"`
}

// SaveBlockedResponse error 422 con los motivos que impiden guardar.
type SaveBlockedResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons"`
}
