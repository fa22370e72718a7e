package invoicing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
)

// GuardState estado del control de número duplicado.
type GuardState string

const (
	GuardIdle      GuardState = "idle"
	GuardChecking  GuardState = "checking"
	GuardClean     GuardState = "clean"
	GuardDuplicate GuardState = "duplicate"
)

// DefaultMinNumberLength longitud mínima del número para consultar duplicados.
const DefaultMinNumberLength = 3

// DefaultDebounceDelay espera desde la última pulsación antes de consultar.
const DefaultDebounceDelay = 500 * time.Millisecond

type numberQuery struct {
	number string
	date   time.Time
}

// NumberGuard control de número de factura duplicado: con debounce, cancelable y
// "el último gana". Cada consulta emite un token creciente; un resultado solo se aplica si su
// token sigue siendo el último emitido. Los errores de consulta se tratan como "no duplicado".
type NumberGuard struct {
	checker  ports.NumberChecker
	kind     ports.DocumentKind
	minLen   int
	log      zerolog.Logger
	onChange func(checking, duplicate bool)
	debounce *Debouncer[numberQuery]

	mu       sync.Mutex
	state    GuardState
	token    uint64
	cancel   context.CancelFunc
	closed   bool
	inFlight sync.WaitGroup
}

// GuardConfig parámetros del control.
type GuardConfig struct {
	Delay     time.Duration
	MinLength int
	// OnChange recibe cada transición (p. ej. DraftStore.SetNumberStatus).
	OnChange func(checking, duplicate bool)
}

// NewNumberGuard construye el control para facturas.
func NewNumberGuard(checker ports.NumberChecker, cfg GuardConfig, log zerolog.Logger) *NumberGuard {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDebounceDelay
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinNumberLength
	}
	g := &NumberGuard{
		checker:  checker,
		kind:     ports.KindInvoice,
		minLen:   cfg.MinLength,
		log:      log,
		onChange: cfg.OnChange,
		state:    GuardIdle,
	}
	g.debounce = NewDebouncer(cfg.Delay, g.run)
	return g
}

// Observe recibe cada cambio del número (o de la fecha) de la factura.
func (g *NumberGuard) Observe(number string, date time.Time) {
	g.debounce.Trigger(numberQuery{number: strings.TrimSpace(number), date: date})
}

// State estado actual.
func (g *NumberGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// BlocksSave indica si el estado impide guardar (comprobando o duplicado).
func (g *NumberGuard) BlocksSave() bool {
	s := g.State()
	return s == GuardChecking || s == GuardDuplicate
}

// run se ejecuta tras el debounce con el último valor.
func (g *NumberGuard) run(q numberQuery) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.token++
	token := g.token
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if len([]rune(q.number)) < g.minLen {
		g.setStateLocked(GuardIdle)
		g.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.setStateLocked(GuardChecking)
	g.inFlight.Add(1)
	g.mu.Unlock()

	go g.check(ctx, token, q)
}

func (g *NumberGuard) check(ctx context.Context, token uint64, q numberQuery) {
	defer g.inFlight.Done()
	exists, err := g.checker.CheckDuplicateNumber(ctx, g.kind, q.number, q.date)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || token != g.token {
		g.log.Debug().Str("number", q.number).Uint64("token", token).Msg("resultado de consulta obsoleto descartado")
		return
	}
	g.cancel = nil
	if err != nil {
		g.log.Warn().Err(err).Str("number", q.number).Msg("consulta de número duplicado fallida; se asume no duplicado")
		g.setStateLocked(GuardClean)
		return
	}
	if exists {
		g.setStateLocked(GuardDuplicate)
		return
	}
	g.setStateLocked(GuardClean)
}

func (g *NumberGuard) setStateLocked(s GuardState) {
	g.state = s
	if g.onChange != nil {
		g.onChange(s == GuardChecking, s == GuardDuplicate)
	}
}

// Close detiene el debounce, cancela la consulta en curso e ignora cualquier resultado posterior.
func (g *NumberGuard) Close() {
	g.debounce.Stop()
	g.mu.Lock()
	g.closed = true
	g.token++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.mu.Unlock()
}

// Wait espera a que terminen las consultas lanzadas (útil en apagado y tests).
func (g *NumberGuard) Wait() {
	g.inFlight.Wait()
}
