package invoicing_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nopLogger() zerolog.Logger { return zerolog.Nop() }

// fakeGateway backend en memoria para los tests de la sesión.
type fakeGateway struct {
	mu sync.Mutex

	buyers      []entity.Buyer
	buyersErr   error
	settings    entity.OrgSettings
	settingsErr error

	previews    map[string]*entity.DCPreview
	previewErrs map[string]error
	previewGate chan struct{}

	existing  map[string]bool
	checkErr  error
	checkGate chan struct{}
	checks    []string

	createErr error
	created   []entity.CreateInvoicePayload
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		buyers: []entity.Buyer{
			{ID: 1, Name: "Bharat Heavy Electricals Ltd", GSTIN: "33AAACB4146P1ZM", State: "Tamil Nadu", StateCode: "33", PlaceOfSupply: "Tamil Nadu"},
			{ID: 2, Name: "Larsen & Toubro", GSTIN: "27AAACL0140P1ZJ", State: "Maharashtra", StateCode: "27", IsDefault: true},
			{ID: 3, Name: "Tata Motors", GSTIN: "27AAACT2727Q1ZW", State: "Maharashtra", StateCode: "27"},
		},
		settings: entity.OrgSettings{
			SupplierName:    "Sri Ganesh Engineering Works",
			SupplierAddress: "12 Industrial Estate, Coimbatore",
			SupplierGSTIN:   "33AAPFU0939F1Z2",
			SupplierContact: "+91 98400 00000",
			CGSTRate:        "9",
			SGSTRate:        "9",
		},
		previews: map[string]*entity.DCPreview{
			"DC-100": {
				Header: entity.DCPreviewHeader{
					DCNumber:        "DC-100",
					DCDate:          "2024-06-10",
					BuyersOrderNo:   "PO-77",
					BuyersOrderDate: "2024-06-01",
					VehicleNo:       "TN 38 AB 1234",
					BuyerName:       "BHEL - Bharat Heavy Electricals Ltd.",
					BuyerGSTIN:      "XXXXXXXX",
					SupplierName:    "Nombre de proveedor del DC",
					SupplierGSTIN:   "NO-CONFIABLE",

					TotalInvoiceValue: d("1"),
				},
				Items: []entity.InvoiceItem{
					{Description: "Flange 4in", HSNSAC: "7307", Unit: "NOS", Quantity: d("10"), Rate: d("125.50"), TotalAmount: d("999999")},
					{Description: "Gasket", HSNSAC: "4016", Unit: "NOS", Quantity: d("4"), Rate: d("20")},
				},
			},
			"DC-200": {
				Header: entity.DCPreviewHeader{DCNumber: "DC-200", DCDate: "2024-06-12", BuyerName: "Tata Motors Pune"},
				Items:  []entity.InvoiceItem{{Description: "Shaft", Quantity: d("2"), Rate: d("1000")}},
			},
		},
		previewErrs: map[string]error{
			"DC-404": &domain.RemoteError{Status: 404, Message: "DC not found", Err: domain.ErrNotFound},
			"DC-409": &domain.RemoteError{Status: 409, Message: "DC DC-409 already invoiced", Err: domain.ErrAlreadyInvoiced},
		},
		existing: map[string]bool{"INV-001": true},
	}
}

func (f *fakeGateway) GetBuyers(context.Context) ([]entity.Buyer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buyersErr != nil {
		return nil, f.buyersErr
	}
	out := make([]entity.Buyer, len(f.buyers))
	copy(out, f.buyers)
	return out, nil
}

func (f *fakeGateway) GetSettings(context.Context) (entity.OrgSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, f.settingsErr
}

func (f *fakeGateway) CheckDuplicateNumber(ctx context.Context, _ ports.DocumentKind, number string, _ time.Time) (bool, error) {
	f.mu.Lock()
	f.checks = append(f.checks, number)
	gate := f.checkGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.existing[number], nil
}

func (f *fakeGateway) GetInvoicePreview(ctx context.Context, dc string) (*entity.DCPreview, error) {
	f.mu.Lock()
	gate := f.previewGate
	p, err := f.previews[dc], f.previewErrs[dc]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.RemoteError{Status: 404, Message: "DC not found", Err: domain.ErrNotFound}
	}
	cp := *p
	cp.Items = entity.CloneItems(p.Items)
	return &cp, nil
}

func (f *fakeGateway) CreateInvoice(_ context.Context, payload entity.CreateInvoicePayload) (*entity.CreatedInvoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &entity.CreatedInvoice{InvoiceNumber: payload.InvoiceNumber, ItemsCount: len(payload.Items)}, nil
}

func (f *fakeGateway) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeGateway) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}
