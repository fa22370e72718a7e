package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/pkg/gst"
)

// fieldKind clasifica quién puede escribir un campo de cabecera.
type fieldKind int

const (
	fieldEditable fieldKind = iota // lo edita el usuario
	fieldBuyer                     // solo por selección de comprador
	fieldSupplier                  // solo desde settings de la organización
	fieldLink                      // solo al vincular un DC
	fieldDerived                   // recalculado desde las líneas
)

type headerField struct {
	kind fieldKind
	ptr  func(h *entity.InvoiceHeader) *string
}

var headerFields = map[string]headerField{
	"invoice_number":    {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.InvoiceNumber }},
	"invoice_date":      {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.InvoiceDate }},
	"buyers_order_no":   {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.BuyersOrderNo }},
	"buyers_order_date": {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.BuyersOrderDate }},
	"payment_terms":     {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.PaymentTerms }},
	"mode_of_payment":   {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.ModeOfPayment }},
	"vehicle_no":        {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.VehicleNo }},
	"lr_no":             {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.LRNo }},
	"transporter":       {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.Transporter }},
	"destination":       {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.Destination }},
	"terms_of_delivery": {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.TermsOfDelivery }},
	"remarks":           {fieldEditable, func(h *entity.InvoiceHeader) *string { return &h.Remarks }},

	"dc_number": {fieldLink, func(h *entity.InvoiceHeader) *string { return &h.DCNumber }},
	"dc_date":   {fieldLink, func(h *entity.InvoiceHeader) *string { return &h.DCDate }},

	"supplier_name":    {fieldSupplier, func(h *entity.InvoiceHeader) *string { return &h.SupplierName }},
	"supplier_address": {fieldSupplier, func(h *entity.InvoiceHeader) *string { return &h.SupplierAddress }},
	"supplier_gstin":   {fieldSupplier, func(h *entity.InvoiceHeader) *string { return &h.SupplierGSTIN }},
	"supplier_contact": {fieldSupplier, func(h *entity.InvoiceHeader) *string { return &h.SupplierContact }},

	"buyer_name":       {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.BuyerName }},
	"buyer_gstin":      {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.BuyerGSTIN }},
	"buyer_address":    {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.BuyerAddress }},
	"buyer_state":      {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.BuyerState }},
	"buyer_state_code": {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.BuyerStateCode }},
	"place_of_supply":  {fieldBuyer, func(h *entity.InvoiceHeader) *string { return &h.PlaceOfSupply }},

	"total_taxable_value": {kind: fieldDerived},
	"cgst_total":          {kind: fieldDerived},
	"sgst_total":          {kind: fieldDerived},
	"total_invoice_value": {kind: fieldDerived},
}

// setHeaderField escribe un campo de texto de la cabecera. Los totales derivados no se escriben nunca.
func setHeaderField(h *entity.InvoiceHeader, field, value string) error {
	f, ok := headerFields[field]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	if f.kind == fieldDerived {
		return fmt.Errorf("%w: %s", domain.ErrLockedField, field)
	}
	if field == "invoice_date" || field == "buyers_order_date" || field == "dc_date" {
		if v := strings.TrimSpace(value); v != "" {
			if _, err := gst.ParseDate(v); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
		}
	}
	*f.ptr(h) = value
	return nil
}

// headerFieldEditable indica si el usuario puede editar el campo directamente.
func headerFieldEditable(field string) (bool, error) {
	f, ok := headerFields[field]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	return f.kind == fieldEditable, nil
}

// setItemField escribe un campo de entrada de la línea. Cantidad y tarifa vacías valen cero.
func setItemField(it *entity.InvoiceItem, field, value string) error {
	switch field {
	case "quantity", "rate":
		v, err := parseAmount(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, field, err)
		}
		if field == "quantity" {
			it.Quantity = v
		} else {
			it.Rate = v
		}
	case "description":
		it.Description = value
	case "unit":
		it.Unit = value
	case "hsn_sac":
		it.HSNSAC = value
	case "material_code":
		it.MaterialCode = value
	case "po_item_no":
		it.POItemNo = value
	case "taxable_value", "cgst_amount", "sgst_amount", "total_amount":
		return fmt.Errorf("%w: %s", domain.ErrLockedField, field)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %s", raw)
	}
	return v, nil
}
