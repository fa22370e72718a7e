package invoicing

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/invoice-desk/internal/application/dto"
	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/internal/domain/matching"
	"github.com/jhoicas/invoice-desk/internal/domain/tax"
	"github.com/jhoicas/invoice-desk/pkg/gst"
)

// Phase fase del ciclo de vida de una sesión de creación.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseReady        Phase = "ready"
	PhaseLoadingDC    Phase = "loading_dc"
	PhaseSaving       Phase = "saving"
	PhaseClosed       Phase = "closed"
)

// reasonManual el usuario eligió el comprador a mano.
const reasonManual matching.Reason = "manual"

// Advertencias no bloqueantes.
const (
	WarningBuyerGSTINInvalid    = "buyer_gstin_invalid"
	WarningSupplierGSTINInvalid = "supplier_gstin_invalid"
	WarningSettingsUnavailable  = "settings_unavailable"
	WarningBuyersUnavailable    = "buyers_unavailable"
)

// SessionConfig parámetros de una sesión.
type SessionConfig struct {
	DebounceDelay   time.Duration
	MinNumberLength int
	// Now reloj inyectable; por defecto time.Now.
	Now func() time.Time
}

// Session orquesta la creación de una factura: carga inicial, vínculo con un DC, ediciones,
// selección de comprador, control de número y guardado. Cada sesión tiene su propio borrador;
// nada se comparte entre sesiones.
type Session struct {
	id    string
	owner string
	gw    ports.Gateway
	log   zerolog.Logger
	now   func() time.Time

	store *DraftStore
	guard *NumberGuard

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	phase           Phase
	initialized     bool
	buyers          []entity.Buyer
	settings        entity.OrgSettings
	rates           tax.Rates
	selectedBuyerID *int64
	buyerReason     matching.Reason
	banner          string
	warnings        []string
	lastActive      time.Time
}

// NewSession crea una sesión sin inicializar. Initialize debe llamarse antes de cualquier edición.
func NewSession(id, owner string, gw ports.Gateway, cfg SessionConfig, log zerolog.Logger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     id,
		owner:  owner,
		gw:     gw,
		log:    log.With().Str("session_id", id).Logger(),
		now:    cfg.Now,
		store:  NewDraftStore(),
		ctx:    ctx,
		cancel: cancel,
		phase:  PhaseInitializing,
		rates:  tax.DefaultRates(),
	}
	s.lastActive = s.now()
	s.guard = NewNumberGuard(gw, GuardConfig{
		Delay:     cfg.DebounceDelay,
		MinLength: cfg.MinNumberLength,
		OnChange:  s.store.SetNumberStatus,
	}, s.log)
	return s
}

// ID identificador de la sesión.
func (s *Session) ID() string { return s.id }

// Owner usuario dueño de la sesión.
func (s *Session) Owner() string { return s.owner }

// Initialize limpia cualquier resto de una sesión previa, carga en paralelo compradores, settings
// y (si dcRef no está vacío) la vista previa del DC, y siembra el borrador en un único reemplazo.
// Los fallos de carga no abortan: se registran y el formulario queda utilizable.
func (s *Session) Initialize(ctx context.Context, dcRef string) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.initialized || s.phase != PhaseInitializing {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}
	s.mu.Unlock()

	s.store.Clear()

	ctx, done := s.bind(ctx)
	defer done()

	dcRef = strings.TrimSpace(dcRef)
	var (
		buyers      []entity.Buyer
		settings    entity.OrgSettings
		preview     *entity.DCPreview
		buyersErr   error
		settingsErr error
		previewErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		buyers, buyersErr = s.gw.GetBuyers(ctx)
		return buyersErr
	})
	g.Go(func() error {
		settings, settingsErr = s.gw.GetSettings(ctx)
		return settingsErr
	})
	if dcRef != "" {
		g.Go(func() error {
			preview, previewErr = s.gw.GetInvoicePreview(ctx, dcRef)
			return previewErr
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Msg("carga inicial incompleta")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}

	s.warnings = nil
	if buyersErr != nil {
		s.log.Error().Err(buyersErr).Msg("no se pudo cargar el directorio de compradores")
		s.warnings = append(s.warnings, WarningBuyersUnavailable)
		buyers = nil
	}
	if settingsErr != nil {
		s.log.Error().Err(settingsErr).Msg("no se pudo cargar la configuración; se usan tasas por defecto")
		s.warnings = append(s.warnings, WarningSettingsUnavailable)
		settings = entity.OrgSettings{}
	}
	s.buyers = buyers
	s.settings = settings
	s.rates = tax.ParseRates(settings.CGSTRate, settings.SGSTRate)
	rates := s.rates
	s.store.SetDeriver(func(d entity.Draft) entity.Draft { return tax.RecomputeDraft(d, rates) })

	header := entity.InvoiceHeader{InvoiceDate: s.now().Format(gst.DateLayout)}
	var items []entity.InvoiceItem
	target := ""
	if dcRef != "" {
		if previewErr != nil {
			s.log.Error().Err(previewErr).Str("dc_number", dcRef).Msg("no se pudo cargar la vista previa del DC")
			s.banner = domain.UserMessage(previewErr)
		} else if preview != nil {
			header = headerFromPreview(preview.Header, dcRef, header)
			items = preview.Items
			target = preview.Header.BuyerName
		}
	}
	applySupplier(&header, s.settings)
	s.resolveBuyerLocked(&header, target)
	s.store.SetInvoice(header, items)

	s.initialized = true
	s.phase = PhaseReady
	s.lastActive = s.now()
	s.log.Info().Str("dc_number", dcRef).Int("items", len(items)).Str("buyer_match", string(s.buyerReason)).
		Msg("sesión de creación inicializada")
	return nil
}

// LinkDC vincula (o cambia) el DC de la factura. En éxito cabecera y líneas se reemplazan a la
// vez con los datos del DC; número y fecha de factura se conservan. En error el borrador no cambia.
func (s *Session) LinkDC(ctx context.Context, dcNumber string) error {
	dcNumber = strings.TrimSpace(dcNumber)
	if dcNumber == "" {
		return fmt.Errorf("%w: dc_number requerido", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}
	s.phase = PhaseLoadingDC
	s.mu.Unlock()

	ctx, done := s.bind(ctx)
	defer done()
	preview, err := s.gw.GetInvoicePreview(ctx, dcNumber)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}
	s.phase = PhaseReady
	s.lastActive = s.now()
	if err != nil {
		s.log.Warn().Err(err).Str("dc_number", dcNumber).Msg("vínculo con DC fallido")
		s.banner = domain.UserMessage(err)
		return err
	}
	if preview == nil {
		preview = &entity.DCPreview{}
	}

	current := s.store.Snapshot().Header
	header := headerFromPreview(preview.Header, dcNumber, entity.InvoiceHeader{
		InvoiceNumber: current.InvoiceNumber,
		InvoiceDate:   current.InvoiceDate,
	})
	applySupplier(&header, s.settings)
	s.selectedBuyerID = nil
	s.resolveBuyerLocked(&header, preview.Header.BuyerName)
	s.store.SetInvoice(header, preview.Items)
	s.banner = ""
	s.log.Info().Str("dc_number", dcNumber).Int("items", len(preview.Items)).Msg("DC vinculado")
	return nil
}

// UpdateHeaderField edita un campo de cabecera del usuario. Los campos de comprador, proveedor,
// DC y totales están bloqueados. Cambiar número o fecha de factura dispara el control de duplicados.
func (s *Session) UpdateHeaderField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	editable, err := headerFieldEditable(field)
	if err != nil {
		return err
	}
	if !editable {
		return fmt.Errorf("%w: %s", domain.ErrLockedField, field)
	}
	if err := s.store.UpdateHeader(field, value); err != nil {
		return err
	}
	s.lastActive = s.now()
	if field == "invoice_number" || field == "invoice_date" {
		s.observeNumberLocked()
	}
	return nil
}

// SelectBuyer sobrescribe los campos de comprador con la entrada buyerID del directorio.
func (s *Session) SelectBuyer(buyerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	for i := range s.buyers {
		if s.buyers[i].ID != buyerID {
			continue
		}
		b := s.buyers[i]
		h := s.store.Snapshot().Header
		matching.ApplyBuyer(&h, &b)
		s.store.SetHeader(h)
		id := b.ID
		s.selectedBuyerID = &id
		s.buyerReason = reasonManual
		s.lastActive = s.now()
		return nil
	}
	return fmt.Errorf("%w: comprador %d", domain.ErrNotFound, buyerID)
}

// UpdateItem edita cantidad, tarifa o un campo descriptivo de una línea; los derivados se recalculan.
func (s *Session) UpdateItem(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.lastActive = s.now()
	return s.store.UpdateItem(index, field, value)
}

// RemoveItem elimina una línea; los totales se recalculan.
func (s *Session) RemoveItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.lastActive = s.now()
	return s.store.RemoveItem(index)
}

// DismissError descarta el banner de error.
func (s *Session) DismissError() {
	s.mu.Lock()
	s.banner = ""
	s.mu.Unlock()
}

// SaveCheck motivos que impiden guardar ahora mismo (vacío = se puede guardar).
func (s *Session) SaveCheck() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveReasonsLocked(s.store.Snapshot())
}

func (s *Session) saveReasonsLocked(d entity.Draft) []string {
	reasons := []string{}
	if strings.TrimSpace(d.Header.InvoiceNumber) == "" {
		reasons = append(reasons, domain.ReasonInvoiceNumberRequired)
	}
	if strings.TrimSpace(d.Header.BuyerName) == "" {
		reasons = append(reasons, domain.ReasonBuyerNameRequired)
	}
	if len(d.Items) == 0 {
		reasons = append(reasons, domain.ReasonItemsRequired)
	}
	switch s.guard.State() {
	case GuardChecking:
		reasons = append(reasons, domain.ReasonNumberChecking)
	case GuardDuplicate:
		reasons = append(reasons, domain.ReasonNumberDuplicate)
	}
	return reasons
}

// Save valida, exige confirmación y envía la factura en una sola petición. Si la validación
// falla no se llama al backend. En error del backend el borrador se conserva y el mensaje queda
// en el banner.
func (s *Session) Save(ctx context.Context, confirmed bool) (*entity.CreatedInvoice, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}
	draft := s.store.Snapshot()
	if reasons := s.saveReasonsLocked(draft); len(reasons) > 0 {
		s.mu.Unlock()
		return nil, &domain.SaveBlockedError{Reasons: reasons}
	}
	if !confirmed {
		s.mu.Unlock()
		return nil, domain.ErrConfirmationRequired
	}
	payload := buildPayload(tax.RecomputeDraft(draft, s.rates), s.selectedBuyerID)
	s.phase = PhaseSaving
	s.mu.Unlock()

	ctx, done := s.bind(ctx)
	defer done()
	created, err := s.gw.CreateInvoice(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseClosed {
		s.phase = PhaseReady
	}
	s.lastActive = s.now()
	if err != nil {
		s.log.Error().Err(err).Str("invoice_number", payload.InvoiceNumber).Msg("error al guardar la factura")
		s.banner = domain.UserMessage(err)
		return nil, err
	}
	if created == nil {
		created = &entity.CreatedInvoice{}
	}
	if created.InvoiceNumber == "" {
		created.InvoiceNumber = payload.InvoiceNumber
	}
	if created.TotalAmount.IsZero() {
		created.TotalAmount = payload.TotalInvoiceValue
	}
	if created.ItemsCount == 0 {
		created.ItemsCount = len(payload.Items)
	}
	created.RedirectTo = "/invoice/" + url.PathEscape(created.InvoiceNumber)
	s.banner = ""
	s.log.Info().Str("invoice_number", created.InvoiceNumber).Str("total", created.TotalAmount.String()).
		Msg("factura creada")
	return created, nil
}

// Draft copia del borrador actual.
func (s *Session) Draft() entity.Draft {
	return s.store.Snapshot()
}

// Subscribe recibe cada nueva versión del borrador hasta que se llame a la función devuelta
// o la sesión se cierre.
func (s *Session) Subscribe(fn func(entity.Draft)) func() {
	return s.store.Subscribe(fn)
}

// Done se cierra cuando la sesión termina.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// View estado completo para el cliente.
func (s *Session) View() dto.DraftSessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.store.Snapshot()
	reasons := s.saveReasonsLocked(d)
	buyers := make([]entity.Buyer, len(s.buyers))
	copy(buyers, s.buyers)
	var selected *int64
	if s.selectedBuyerID != nil {
		id := *s.selectedBuyerID
		selected = &id
	}
	return dto.DraftSessionResponse{
		ID:              s.id,
		Phase:           string(s.phase),
		Initialized:     s.initialized,
		Draft:           d,
		Buyers:          buyers,
		SelectedBuyerID: selected,
		BuyerMatch:      string(s.buyerReason),
		NumberState:     string(s.guard.State()),
		CGSTRate:        s.rates.CGST,
		SGSTRate:        s.rates.SGST,
		CanSave:         s.initialized && s.phase == PhaseReady && len(reasons) == 0,
		BlockedBy:       reasons,
		Warnings:        s.warningsLocked(d.Header),
		Error:           s.banner,
	}
}

func (s *Session) warningsLocked(h entity.InvoiceHeader) []string {
	out := append([]string(nil), s.warnings...)
	if h.BuyerGSTIN != "" && gst.ValidateGSTIN(h.BuyerGSTIN) != nil {
		out = append(out, WarningBuyerGSTINInvalid)
	}
	if h.SupplierGSTIN != "" && gst.ValidateGSTIN(h.SupplierGSTIN) != nil {
		out = append(out, WarningSupplierGSTINInvalid)
	}
	return out
}

// IdleSince último momento de actividad.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close desmonta la sesión: cancela consultas en curso, descarta resultados tardíos y vacía el
// borrador. Es idempotente.
func (s *Session) Close() {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseClosed
	s.mu.Unlock()

	s.guard.Close()
	// la última versión (vacía) llega a los suscriptores antes de que Done se cierre
	s.store.Reset()
	s.cancel()
	s.log.Debug().Msg("sesión cerrada")
}

// Closed indica si la sesión ya fue cerrada.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseClosed
}

func (s *Session) usableLocked() error {
	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}
	if !s.initialized {
		return domain.ErrSessionNotInitialized
	}
	return nil
}

func (s *Session) observeNumberLocked() {
	h := s.store.Snapshot().Header
	date, err := gst.ParseDate(h.InvoiceDate)
	if err != nil {
		date = s.now()
	}
	s.guard.Observe(h.InvoiceNumber, date)
}

// resolveBuyerLocked aplica el comprador resuelto desde el nombre del DC (o el de respaldo).
func (s *Session) resolveBuyerLocked(h *entity.InvoiceHeader, target string) {
	b, reason, ok := matching.Resolve(target, s.buyers)
	s.buyerReason = reason
	if !ok {
		s.selectedBuyerID = nil
		matching.ApplyBuyer(h, nil)
		return
	}
	id := b.ID
	s.selectedBuyerID = &id
	matching.ApplyBuyer(h, &b)
}

// bind deriva un contexto que también se cancela al cerrar la sesión.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// headerFromPreview toma del DC solo los campos de lista blanca. Proveedor y comprador nunca
// se copian de la vista previa.
func headerFromPreview(p entity.DCPreviewHeader, dcNumber string, base entity.InvoiceHeader) entity.InvoiceHeader {
	h := base
	h.DCNumber = p.DCNumber
	if h.DCNumber == "" {
		h.DCNumber = dcNumber
	}
	h.DCDate = p.DCDate
	h.BuyersOrderNo = p.BuyersOrderNo
	h.BuyersOrderDate = p.BuyersOrderDate
	h.VehicleNo = p.VehicleNo
	h.LRNo = p.LRNo
	h.Transporter = p.Transporter
	h.Destination = p.Destination
	h.TermsOfDelivery = p.TermsOfDelivery
	h.PaymentTerms = p.PaymentTerms
	h.Remarks = p.Remarks
	return h
}

func applySupplier(h *entity.InvoiceHeader, st entity.OrgSettings) {
	h.SupplierName = st.SupplierName
	h.SupplierAddress = st.SupplierAddress
	h.SupplierGSTIN = st.SupplierGSTIN
	h.SupplierContact = st.SupplierContact
}

func buildPayload(d entity.Draft, buyerID *int64) entity.CreateInvoicePayload {
	h := d.Header
	h.InvoiceNumber = strings.TrimSpace(h.InvoiceNumber)
	return entity.CreateInvoicePayload{
		InvoiceHeader: h,
		BuyerID:       buyerID,
		Items:         entity.CloneItems(d.Items),
	}
}
