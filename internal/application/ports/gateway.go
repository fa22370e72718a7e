package ports

import (
	"context"
	"time"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

// DocumentKind tipo de documento para el control de número duplicado.
type DocumentKind string

const (
	KindInvoice DocumentKind = "Invoice"
	KindDC      DocumentKind = "DC"
)

// BuyerDirectory lista los compradores activos.
type BuyerDirectory interface {
	GetBuyers(ctx context.Context) ([]entity.Buyer, error)
}

// SettingsSource lee la configuración de la organización (proveedor + tasas GST).
type SettingsSource interface {
	GetSettings(ctx context.Context) (entity.OrgSettings, error)
}

// NumberChecker consulta si un número de documento ya existe en el año financiero de date.
type NumberChecker interface {
	CheckDuplicateNumber(ctx context.Context, kind DocumentKind, number string, date time.Time) (bool, error)
}

// PreviewSource obtiene la vista previa de factura calculada por el backend para un DC.
// Falla con domain.ErrNotFound o domain.ErrAlreadyInvoiced (envueltos en *domain.RemoteError).
type PreviewSource interface {
	GetInvoicePreview(ctx context.Context, dcNumber string) (*entity.DCPreview, error)
}

// InvoiceCreator guarda la factura en una sola petición.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, payload entity.CreateInvoicePayload) (*entity.CreatedInvoice, error)
}

// Gateway todas las operaciones del backend colaborador que consume la sesión de creación.
type Gateway interface {
	BuyerDirectory
	SettingsSource
	NumberChecker
	PreviewSource
	InvoiceCreator
}

// CompositeGateway permite combinar adaptadores: p. ej. directorio, settings y numeración
// leídos de PostgreSQL, y vista previa + creación vía HTTP.
type CompositeGateway struct {
	BuyerDirectory
	SettingsSource
	NumberChecker
	PreviewSource
	InvoiceCreator
}

var _ Gateway = CompositeGateway{}
