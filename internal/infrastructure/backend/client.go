// Package backend implementa el gateway de datos remoto contra la API HTTP del backend de
// documentos (compradores, settings, numeración, vista previa de DC y creación de facturas).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/domain"
	"github.com/jhoicas/invoice-desk/internal/domain/entity"
	"github.com/jhoicas/invoice-desk/pkg/gst"
)

// Verificar en tiempo de compilación que Client implementa el gateway completo.
var _ ports.Gateway = (*Client)(nil)

const maxBodyBytes = 4 << 20

// Config parámetros de conexión al backend.
type Config struct {
	BaseURL string
	APIKey  string // se envía como X-API-Key si no está vacío
	Timeout time.Duration
}

// Client adaptador HTTP del backend. Usa net/http de la librería estándar.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient construye el adaptador. BaseURL debe ser absoluta (p. ej. http://localhost:8000).
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: BaseURL inválida %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

// ── Estructuras del protocolo ─────────────────────────────────────────────────

type duplicateCheckResponse struct {
	Exists        bool   `json:"exists"`
	FinancialYear string `json:"financial_year"`
	ConflictType  string `json:"conflict_type"`
}

// errorBody cubre los dos formatos de error del backend: {"detail": "..."} y
// {"success": false, "message": "...", "error_code": "..."}.
type errorBody struct {
	Detail    json.RawMessage `json:"detail"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// GetBuyers GET /api/buyers/
func (c *Client) GetBuyers(ctx context.Context) ([]entity.Buyer, error) {
	var out []entity.Buyer
	if err := c.do(ctx, http.MethodGet, "/api/buyers/", nil, nil, &out, statusMapping{}); err != nil {
		return nil, fmt.Errorf("backend: listar compradores: %w", err)
	}
	if out == nil {
		out = []entity.Buyer{}
	}
	return out, nil
}

// GetSettings GET /api/settings/ (mapa plano clave/valor).
func (c *Client) GetSettings(ctx context.Context) (entity.OrgSettings, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/settings/", nil, nil, &raw, statusMapping{}); err != nil {
		return entity.OrgSettings{}, fmt.Errorf("backend: leer settings: %w", err)
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		m[k] = rawToString(v)
	}
	return entity.SettingsFromMap(m), nil
}

// CheckDuplicateNumber GET /api/common/check-duplicate?type=&number=&date=
func (c *Client) CheckDuplicateNumber(ctx context.Context, kind ports.DocumentKind, number string, date time.Time) (bool, error) {
	q := url.Values{}
	q.Set("type", string(kind))
	q.Set("number", number)
	q.Set("date", date.Format(gst.DateLayout))
	var out duplicateCheckResponse
	if err := c.do(ctx, http.MethodGet, "/api/common/check-duplicate", q, nil, &out, statusMapping{}); err != nil {
		return false, fmt.Errorf("backend: comprobar número duplicado: %w", err)
	}
	if out.Exists {
		c.log.Debug().Str("number", number).Str("financial_year", out.FinancialYear).
			Str("conflict_type", out.ConflictType).Msg("número existente en el año financiero")
	}
	return out.Exists, nil
}

// GetInvoicePreview GET /api/invoice/preview/{dc}
func (c *Client) GetInvoicePreview(ctx context.Context, dcNumber string) (*entity.DCPreview, error) {
	var out entity.DCPreview
	path := "/api/invoice/preview/" + url.PathEscape(dcNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, statusMapping{conflict: domain.ErrAlreadyInvoiced}); err != nil {
		return nil, fmt.Errorf("backend: vista previa del DC %s: %w", dcNumber, err)
	}
	if out.Items == nil {
		out.Items = []entity.InvoiceItem{}
	}
	return &out, nil
}

// CreateInvoice POST /api/invoice/
func (c *Client) CreateInvoice(ctx context.Context, payload entity.CreateInvoicePayload) (*entity.CreatedInvoice, error) {
	var out entity.CreatedInvoice
	if err := c.do(ctx, http.MethodPost, "/api/invoice/", nil, payload, &out, statusMapping{conflict: domain.ErrConflict}); err != nil {
		return nil, fmt.Errorf("backend: crear factura %s: %w", payload.InvoiceNumber, err)
	}
	return &out, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

// statusMapping sentinela para 409 según el endpoint.
type statusMapping struct {
	conflict error
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, sm statusMapping) error {
	// path ya viene escapado
	target := c.baseURL + path
	if query != nil {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("serializar request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("leer respuesta: %w", err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("backend")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, raw, sm)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decodificar respuesta: %w", err)
	}
	return nil
}

func remoteError(status int, raw []byte, sm statusMapping) *domain.RemoteError {
	re := &domain.RemoteError{Status: status, Message: errorMessage(raw)}
	switch {
	case status == http.StatusNotFound:
		re.Err = domain.ErrNotFound
	case status == http.StatusConflict:
		re.Err = domain.ErrConflict
		if sm.conflict != nil {
			re.Err = sm.conflict
		}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		re.Err = domain.ErrInvalidInput
	case status == http.StatusUnauthorized:
		re.Err = domain.ErrUnauthorized
	case status == http.StatusForbidden:
		re.Err = domain.ErrForbidden
	default:
		re.Err = errors.New(http.StatusText(status))
	}
	return re
}

// errorMessage extrae el texto legible de un cuerpo de error del backend.
func errorMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if len(eb.Detail) > 0 {
		var s string
		if json.Unmarshal(eb.Detail, &s) == nil {
			return s
		}
		// errores de validación: [{"loc": [...], "msg": "..."}]
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(eb.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				msgs = append(msgs, it.Msg)
			}
			return strings.Join(msgs, "; ")
		}
	}
	return eb.Message
}

// rawToString convierte un valor JSON escalar en texto (null → "").
func rawToString(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	t := strings.TrimSpace(string(v))
	if t == "null" {
		return ""
	}
	return t
}
