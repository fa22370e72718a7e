package invoicing

import (
	"fmt"
	"sync"

	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

// Deriver recalcula los campos derivados de un borrador (líneas + totales).
type Deriver func(entity.Draft) entity.Draft

// DraftStore fuente única del borrador de factura en curso.
//
// Cada operación es un único reemplazo síncrono del estado bajo el mutex y, si hay un Deriver,
// los derivados se recalculan dentro del mismo reemplazo: ningún lector ve totales obsoletos.
// Los suscriptores se notifican fuera del lock y en orden de versión; no deben invocar el
// store de forma síncrona desde la notificación.
type DraftStore struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	draft    entity.Draft
	derive   Deriver
	subs     map[uint64]func(entity.Draft)
	nextSub  uint64
}

// NewDraftStore crea un store vacío.
func NewDraftStore() *DraftStore {
	return &DraftStore{
		draft: emptyDraft(),
		subs:  make(map[uint64]func(entity.Draft)),
	}
}

func emptyDraft() entity.Draft {
	return entity.Draft{Items: []entity.InvoiceItem{}}
}

// SetDeriver instala el cálculo de derivados y lo aplica al estado actual.
func (s *DraftStore) SetDeriver(fn Deriver) {
	s.commit(func(d *entity.Draft) error {
		s.derive = fn
		return nil
	})
}

// Snapshot copia inmutable del borrador actual.
func (s *DraftStore) Snapshot() entity.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Subscribe registra fn para recibir cada nueva versión. Devuelve la función para darse de baja.
func (s *DraftStore) Subscribe(fn func(entity.Draft)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetInvoice reemplaza cabecera y líneas a la vez (nunca mezcla con el estado anterior).
func (s *DraftStore) SetInvoice(header entity.InvoiceHeader, items []entity.InvoiceItem) {
	s.commit(func(d *entity.Draft) error {
		d.Header = header
		d.Items = entity.CloneItems(items)
		return nil
	})
}

// SetHeader reemplaza la cabecera completa; las líneas no se tocan.
func (s *DraftStore) SetHeader(header entity.InvoiceHeader) {
	s.commit(func(d *entity.Draft) error {
		d.Header = header
		return nil
	})
}

// UpdateHeader modifica un único campo de la cabecera.
func (s *DraftStore) UpdateHeader(field, value string) error {
	return s.commit(func(d *entity.Draft) error {
		return setHeaderField(&d.Header, field, value)
	})
}

// SetItems reemplaza todas las líneas; la cabecera no se toca (salvo los totales derivados).
func (s *DraftStore) SetItems(items []entity.InvoiceItem) {
	s.commit(func(d *entity.Draft) error {
		d.Items = entity.CloneItems(items)
		return nil
	})
}

// UpdateItem modifica un campo de entrada de la línea index.
func (s *DraftStore) UpdateItem(index int, field, value string) error {
	return s.commit(func(d *entity.Draft) error {
		if index < 0 || index >= len(d.Items) {
			return fmt.Errorf("%w: línea %d fuera de rango", domain.ErrInvalidInput, index)
		}
		return setItemField(&d.Items[index], field, value)
	})
}

// RemoveItem elimina la línea index.
func (s *DraftStore) RemoveItem(index int) error {
	return s.commit(func(d *entity.Draft) error {
		if index < 0 || index >= len(d.Items) {
			return fmt.Errorf("%w: línea %d fuera de rango", domain.ErrInvalidInput, index)
		}
		d.Items = append(d.Items[:index], d.Items[index+1:]...)
		return nil
	})
}

// SetNumberStatus registra el resultado del control de número duplicado.
func (s *DraftStore) SetNumberStatus(checking, duplicate bool) {
	s.commit(func(d *entity.Draft) error {
		d.NumberStatus = entity.NumberStatus{Checking: checking, Duplicate: duplicate}
		return nil
	})
}

// Clear vacía el borrador (cabecera, líneas y estado de número). Los suscriptores se mantienen.
func (s *DraftStore) Clear() {
	s.commit(func(d *entity.Draft) error {
		*d = emptyDraft()
		return nil
	})
}

// Reset desmontaje: vacía el borrador, notifica por última vez y desconecta a los suscriptores.
func (s *DraftStore) Reset() {
	s.Clear()
	s.mu.Lock()
	s.subs = make(map[uint64]func(entity.Draft))
	s.mu.Unlock()
}

// commit aplica mutate sobre una copia; si no hay error la copia reemplaza al estado.
func (s *DraftStore) commit(mutate func(d *entity.Draft) error) error {
	s.mu.Lock()
	next := s.draft.Clone()
	if err := mutate(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.derive != nil {
		next = s.derive(next)
	}
	next.Version = s.draft.Version + 1
	s.draft = next
	snap := next.Clone()
	subs := make([]func(entity.Draft), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	// notifyMu se toma antes de soltar mu para conservar el orden de versiones
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range subs {
		fn(snap.Clone())
	}
	return nil
}
