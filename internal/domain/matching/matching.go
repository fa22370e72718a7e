// Package matching resuelve el comprador de una factura a partir del nombre en texto libre
// registrado en un DC y el directorio de compradores.
package matching

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

// Reason indica cómo se eligió el comprador.
type Reason string

const (
	ReasonMatched Reason = "matched" // contención bidireccional de nombres normalizados
	ReasonDefault Reason = "default" // comprador marcado como predeterminado
	ReasonFirst   Reason = "first"   // primera entrada del directorio
	ReasonNone    Reason = "none"    // directorio vacío
)

// Normalize pasa a minúsculas y elimina todo lo que no sea [a-z0-9].
func Normalize(s string) string {
	lower := cases.Lower(language.Und).String(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match devuelve el primer comprador cuyo nombre normalizado contiene o está contenido en el
// objetivo normalizado. Nombres que normalizan a vacío nunca coinciden.
func Match(target string, buyers []entity.Buyer) (entity.Buyer, bool) {
	nt := Normalize(target)
	if nt == "" {
		return entity.Buyer{}, false
	}
	for _, b := range buyers {
		nb := Normalize(b.Name)
		if nb == "" {
			continue
		}
		if strings.Contains(nt, nb) || strings.Contains(nb, nt) {
			return b, true
		}
	}
	return entity.Buyer{}, false
}

// Fallback comprador predeterminado; si ninguno lo es, la primera entrada.
func Fallback(buyers []entity.Buyer) (entity.Buyer, Reason, bool) {
	for _, b := range buyers {
		if b.IsDefault {
			return b, ReasonDefault, true
		}
	}
	if len(buyers) > 0 {
		return buyers[0], ReasonFirst, true
	}
	return entity.Buyer{}, ReasonNone, false
}

// Resolve aplica Match y, si no hay coincidencia (o target vacío), la política de respaldo.
func Resolve(target string, buyers []entity.Buyer) (entity.Buyer, Reason, bool) {
	if b, ok := Match(target, buyers); ok {
		return b, ReasonMatched, true
	}
	return Fallback(buyers)
}

// ApplyBuyer sobrescribe los campos de comprador de la cabecera. Con buyer == nil quedan vacíos.
func ApplyBuyer(h *entity.InvoiceHeader, buyer *entity.Buyer) {
	if buyer == nil {
		h.BuyerName, h.BuyerGSTIN, h.BuyerAddress = "", "", ""
		h.BuyerState, h.BuyerStateCode, h.PlaceOfSupply = "", "", ""
		return
	}
	h.BuyerName = buyer.Name
	h.BuyerGSTIN = buyer.GSTIN
	h.BuyerAddress = buyer.Address
	h.BuyerState = buyer.State
	h.BuyerStateCode = buyer.StateCode
	h.PlaceOfSupply = buyer.PlaceOfSupply
}
