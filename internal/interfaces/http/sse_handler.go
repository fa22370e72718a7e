package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/invoice-desk/internal/domain/entity"
)

const (
	sseBuffer    = 32
	sseHeartbeat = 30 * time.Second
)

// Events abre un stream SSE con cada nueva versión del borrador de la sesión.
// El primer evento ("snapshot") lleva la vista completa; después llegan eventos "draft" y,
// cuando la sesión termina, un "closed".
// GET /api/invoice-drafts/:id/events?access_token=xxx
func (h *DraftHandler) Events(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	initial, err := json.Marshal(s.View())
	if err != nil {
		return writeError(c, h.log, err)
	}

	// El store notifica con su lock tomado: nunca bloquear aquí.
	events := make(chan entity.Draft, sseBuffer)
	unsubscribe := s.Subscribe(func(d entity.Draft) {
		select {
		case events <- d:
		default:
			h.log.Debug().Str("session_id", s.ID()).Uint64("version", d.Version).Msg("buffer SSE lleno, versión descartada")
		}
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log.With().Str("session_id", s.ID()).Logger()
	done := s.Done()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		log.Debug().Msg("cliente SSE conectado")

		if writeEvent(w, "snapshot", initial) != nil {
			return
		}
		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()
		for {
			select {
			case <-done:
				// versiones pendientes (incluida la del cierre) antes de "closed"
				if drainDrafts(w, events, log) != nil {
					return
				}
				_ = writeEvent(w, "closed", []byte(`{}`))
				return
			case d := <-events:
				if writeDraft(w, d, log) != nil {
					log.Debug().Msg("cliente SSE desconectado")
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if w.Flush() != nil {
					return
				}
			}
		}
	}))
	return nil
}

// drainDrafts escribe sin bloquear las versiones que quedan en el buffer.
func drainDrafts(w *bufio.Writer, events <-chan entity.Draft, log zerolog.Logger) error {
	for {
		select {
		case d := <-events:
			if err := writeDraft(w, d, log); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// writeDraft emite un evento "draft"; un borrador que no serializa se omite.
func writeDraft(w *bufio.Writer, d entity.Draft, log zerolog.Logger) error {
	data, err := json.Marshal(d)
	if err != nil {
		log.Error().Err(err).Msg("serializar borrador")
		return nil
	}
	return writeEvent(w, "draft", data)
}

func writeEvent(w *bufio.Writer, event string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
