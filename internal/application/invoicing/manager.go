package invoicing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
)

// DefaultIdleTTL tiempo sin actividad tras el cual el recolector cierra una sesión.
const DefaultIdleTTL = 30 * time.Minute

// ManagerConfig parámetros del gestor de sesiones.
type ManagerConfig struct {
	Session SessionConfig
	IdleTTL time.Duration
}

// Manager registro de sesiones de creación en memoria. Un usuario tiene como máximo una sesión
// abierta: iniciar una nueva cierra la anterior (equivale a salir de la pantalla de creación).
type Manager struct {
	gw  ports.Gateway
	cfg ManagerConfig
	log zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byOwner  map[string]string
}

// NewManager construye el gestor.
func NewManager(gw ports.Gateway, cfg ManagerConfig, log zerolog.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &Manager{
		gw:       gw,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
		byOwner:  make(map[string]string),
	}
}

// Start abre una sesión para owner, cerrando la que tuviera abierta, y la inicializa.
func (m *Manager) Start(ctx context.Context, owner, dcRef string) (*Session, error) {
	s := NewSession(uuid.New().String(), owner, m.gw, m.cfg.Session, m.log)

	m.mu.Lock()
	prev := m.sessions[m.byOwner[owner]]
	if prev != nil {
		delete(m.sessions, prev.ID())
	}
	m.sessions[s.ID()] = s
	m.byOwner[owner] = s.ID()
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
		m.log.Debug().Str("session_id", prev.ID()).Str("owner", owner).Msg("sesión anterior reemplazada")
	}

	if err := s.Initialize(ctx, dcRef); err != nil {
		m.remove(s)
		return nil, fmt.Errorf("inicializar sesión: %w", err)
	}
	return s, nil
}

// Get devuelve la sesión id si pertenece a owner.
func (m *Manager) Get(id, owner string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: sesión %s", domain.ErrNotFound, id)
	}
	if s.Owner() != owner {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// Close cierra y olvida la sesión id.
func (m *Manager) Close(id, owner string) error {
	s, err := m.Get(id, owner)
	if err != nil {
		return err
	}
	m.remove(s)
	return nil
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[s.ID()]; ok && cur == s {
		delete(m.sessions, s.ID())
		if m.byOwner[s.Owner()] == s.ID() {
			delete(m.byOwner, s.Owner())
		}
	}
	m.mu.Unlock()
	s.Close()
}

// Len número de sesiones abiertas.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap cierra las sesiones inactivas desde antes de now-IdleTTL. Devuelve cuántas cerró.
func (m *Manager) Reap(now time.Time) int {
	m.mu.Lock()
	idle := make([]*Session, 0)
	for _, s := range m.sessions {
		if now.Sub(s.IdleSince()) > m.cfg.IdleTTL {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		m.remove(s)
	}
	if len(idle) > 0 {
		m.log.Info().Int("sessions", len(idle)).Msg("sesiones inactivas cerradas")
	}
	return len(idle)
}

// RunReaper ejecuta Reap periódicamente hasta que ctx termine.
func (m *Manager) RunReaper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Reap(now)
		}
	}
}

// Shutdown cierra todas las sesiones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.byOwner = make(map[string]string)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
