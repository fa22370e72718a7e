package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrAlreadyInvoiced       = errors.New("el DC ya fue facturado")
	ErrLockedField           = errors.New("campo bloqueado: solo cambia por selección de comprador o recálculo")
	ErrUnknownField          = errors.New("campo desconocido")
	ErrConfirmationRequired  = errors.New("se requiere confirmación antes de guardar")
	ErrSessionBusy           = errors.New("la sesión está ocupada con otra operación")
	ErrSessionClosed         = errors.New("la sesión de creación ya fue cerrada")
	ErrSessionNotInitialized = errors.New("la sesión aún no está inicializada")
)

// RemoteError error devuelto por el backend colaborador. Message es el texto legible
// para el usuario (campo "detail" de la respuesta); Err permite errors.Is contra los
// sentinelas de dominio (ErrNotFound, ErrAlreadyInvoiced, ErrInvalidInput...).
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Motivos por los que no se permite guardar la factura.
const (
	ReasonInvoiceNumberRequired = "invoice_number_required"
	ReasonBuyerNameRequired     = "buyer_name_required"
	ReasonItemsRequired         = "items_required"
	ReasonNumberChecking        = "number_checking"
	ReasonNumberDuplicate       = "number_duplicate"
)

// SaveBlockedError indica que la validación previa al guardado falló; no se envió nada al backend.
type SaveBlockedError struct {
	Reasons []string
}

func (e *SaveBlockedError) Error() string {
	return "guardado bloqueado: " + strings.Join(e.Reasons, ", ")
}

// UserMessage devuelve el mensaje legible de err: el de RemoteError si lo hay, o err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
