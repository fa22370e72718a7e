package entity

import "github.com/shopspring/decimal"

// InvoiceHeader cabecera de la factura GST en edición.
// Los cuatro totales son derivados: siempre se recalculan desde las líneas y las tasas.
type InvoiceHeader struct {
	InvoiceNumber   string `json:"invoice_number"`
	InvoiceDate     string `json:"invoice_date"` // YYYY-MM-DD
	DCNumber        string `json:"dc_number,omitempty"`
	DCDate          string `json:"dc_date,omitempty"`
	BuyersOrderNo   string `json:"buyers_order_no,omitempty"`
	BuyersOrderDate string `json:"buyers_order_date,omitempty"`
	PaymentTerms    string `json:"payment_terms,omitempty"`
	ModeOfPayment   string `json:"mode_of_payment,omitempty"`
	VehicleNo       string `json:"vehicle_no,omitempty"`
	LRNo            string `json:"lr_no,omitempty"`
	Transporter     string `json:"transporter,omitempty"`
	Destination     string `json:"destination,omitempty"`
	TermsOfDelivery string `json:"terms_of_delivery,omitempty"`
	Remarks         string `json:"remarks,omitempty"`

	// Proveedor: siempre desde settings de la organización.
	SupplierName    string `json:"supplier_name"`
	SupplierAddress string `json:"supplier_address"`
	SupplierGSTIN   string `json:"supplier_gstin"`
	SupplierContact string `json:"supplier_contact"`

	// Comprador: solo cambia por selección de comprador.
	BuyerName      string `json:"buyer_name"`
	BuyerGSTIN     string `json:"buyer_gstin"`
	BuyerAddress   string `json:"buyer_address"`
	BuyerState     string `json:"buyer_state"`
	BuyerStateCode string `json:"buyer_state_code"`
	PlaceOfSupply  string `json:"place_of_supply"`

	TotalTaxableValue decimal.Decimal `json:"total_taxable_value"`
	CGSTTotal         decimal.Decimal `json:"cgst_total"`
	SGSTTotal         decimal.Decimal `json:"sgst_total"`
	TotalInvoiceValue decimal.Decimal `json:"total_invoice_value"`
}

// InvoiceItem línea de factura. TaxableValue, CGSTAmount, SGSTAmount y TotalAmount son derivados.
type InvoiceItem struct {
	POItemNo     string          `json:"po_item_no,omitempty"`
	MaterialCode string          `json:"material_code,omitempty"`
	Description  string          `json:"description"`
	HSNSAC       string          `json:"hsn_sac,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGSTAmount   decimal.Decimal `json:"cgst_amount"`
	SGSTAmount   decimal.Decimal `json:"sgst_amount"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NumberStatus resultado del control de número duplicado.
type NumberStatus struct {
	Checking  bool `json:"checking"`
	Duplicate bool `json:"duplicate"`
}

// Draft factura en curso: cabecera + líneas + estado del control de número.
type Draft struct {
	Header       InvoiceHeader `json:"header"`
	Items        []InvoiceItem `json:"items"`
	NumberStatus NumberStatus  `json:"number_status"`
	Version      uint64        `json:"version"`
}

// Clone devuelve una copia profunda (el slice de líneas no se comparte).
func (d Draft) Clone() Draft {
	out := d
	out.Items = CloneItems(d.Items)
	return out
}

// CloneItems copia un slice de líneas; nil se normaliza a slice vacío.
func CloneItems(items []InvoiceItem) []InvoiceItem {
	out := make([]InvoiceItem, len(items))
	copy(out, items)
	return out
}

// CreateInvoicePayload cuerpo enviado al backend para crear la factura.
type CreateInvoicePayload struct {
	InvoiceHeader
	BuyerID *int64        `json:"buyer_id,omitempty"`
	Items   []InvoiceItem `json:"items"`
}

// CreatedInvoice respuesta del backend tras crear la factura.
type CreatedInvoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemsCount    int             `json:"items_count"`
	RedirectTo    string          `json:"redirect_to"`
}
