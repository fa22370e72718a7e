package entity

import "github.com/shopspring/decimal"

// DCPreviewHeader cabecera de la vista previa calculada por el backend a partir de un DC.
// Es una instantánea no confiable: solo los campos en lista blanca pasan al borrador.
type DCPreviewHeader struct {
	DCNumber        string `json:"dc_number"`
	DCDate          string `json:"dc_date"`
	BuyersOrderNo   string `json:"buyers_order_no"`
	BuyersOrderDate string `json:"buyers_order_date"`
	VehicleNo       string `json:"vehicle_no"`
	LRNo            string `json:"lr_no"`
	Transporter     string `json:"transporter"`
	Destination     string `json:"destination"`
	TermsOfDelivery string `json:"terms_of_delivery"`
	PaymentTerms    string `json:"payment_terms"`
	Remarks         string `json:"remarks"`

	BuyerName    string `json:"buyer_name"` // texto libre registrado en el DC
	BuyerGSTIN   string `json:"buyer_gstin"`
	BuyerAddress string `json:"buyer_address"`

	SupplierName    string `json:"supplier_name"`
	SupplierAddress string `json:"supplier_address"`
	SupplierGSTIN   string `json:"supplier_gstin"`
	SupplierContact string `json:"supplier_contact"`

	TotalTaxableValue decimal.Decimal `json:"total_taxable_value"`
	CGSTTotal         decimal.Decimal `json:"cgst_total"`
	SGSTTotal         decimal.Decimal `json:"sgst_total"`
	TotalInvoiceValue decimal.Decimal `json:"total_invoice_value"`
}

// DCPreview vista previa de factura (cabecera + líneas ya consolidadas).
type DCPreview struct {
	Header DCPreviewHeader `json:"header"`
	Items  []InvoiceItem   `json:"items"`
}
