package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/dto"
	"github.com/jhoicas/invoice-desk/internal/application/invoicing"
)

// DraftHandler maneja las sesiones de creación de factura (protegido).
type DraftHandler struct {
	sessions    *invoicing.Manager
	proforma    *invoicing.ProformaUseCase
	spreadsheet *invoicing.SpreadsheetUseCase
	log         zerolog.Logger
}

// NewDraftHandler construye el handler.
func NewDraftHandler(sessions *invoicing.Manager, proforma *invoicing.ProformaUseCase, spreadsheet *invoicing.SpreadsheetUseCase, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{sessions: sessions, proforma: proforma, spreadsheet: spreadsheet, log: log}
}

// session resuelve la sesión :id del usuario autenticado.
func (h *DraftHandler) session(c *fiber.Ctx) (*invoicing.Session, error) {
	return h.sessions.Get(c.Params("id"), GetUserID(c))
}

// Start abre una sesión y carga compradores, settings y (opcional) la vista previa del DC.
// POST /api/invoice-drafts
func (h *DraftHandler) Start(c *fiber.Ctx) error {
	var in dto.StartDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if in.DCNumber == "" {
		in.DCNumber = c.Query("dc")
	}
	s, err := h.sessions.Start(c.UserContext(), GetUserID(c), in.DCNumber)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.View())
}

// Get devuelve el estado completo de la sesión.
// GET /api/invoice-drafts/:id
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// Close desmonta la sesión.
// DELETE /api/invoice-drafts/:id
func (h *DraftHandler) Close(c *fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LinkDC vincula o cambia el DC del borrador.
// POST /api/invoice-drafts/:id/dc
func (h *DraftHandler) LinkDC(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.LinkDCRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := s.LinkDC(c.UserContext(), in.DCNumber); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// UpdateHeader PATCH /api/invoice-drafts/:id/header
func (h *DraftHandler) UpdateHeader(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.FieldUpdateRequest
	if err := c.BodyParser(&in); err != nil || in.Field == "" {
		return badBody(c)
	}
	if err := s.UpdateHeaderField(in.Field, in.Value); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// SelectBuyer PUT /api/invoice-drafts/:id/buyer
func (h *DraftHandler) SelectBuyer(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.SelectBuyerRequest
	if err := c.BodyParser(&in); err != nil || in.BuyerID == 0 {
		return badBody(c)
	}
	if err := s.SelectBuyer(in.BuyerID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// UpdateItem PATCH /api/invoice-drafts/:id/items/:index
func (h *DraftHandler) UpdateItem(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	index, ok := itemIndex(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "índice de línea inválido"})
	}
	var in dto.FieldUpdateRequest
	if err := c.BodyParser(&in); err != nil || in.Field == "" {
		return badBody(c)
	}
	if err := s.UpdateItem(index, in.Field, in.Value); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// RemoveItem DELETE /api/invoice-drafts/:id/items/:index
func (h *DraftHandler) RemoveItem(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	index, ok := itemIndex(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "índice de línea inválido"})
	}
	if err := s.RemoveItem(index); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(s.View())
}

// DismissError DELETE /api/invoice-drafts/:id/error
func (h *DraftHandler) DismissError(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	s.DismissError()
	return c.JSON(s.View())
}

// Save valida y crea la factura. En éxito la sesión se cierra y el cliente navega a RedirectTo.
// POST /api/invoice-drafts/:id/save
func (h *DraftHandler) Save(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.SaveInvoiceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	created, err := s.Save(c.UserContext(), in.Confirm)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.sessions.Close(s.ID(), s.Owner()); err != nil {
		h.log.Warn().Err(err).Str("session_id", s.ID()).Msg("no se pudo cerrar la sesión tras guardar")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaveInvoiceResponse{
		InvoiceNumber: created.InvoiceNumber,
		TotalAmount:   created.TotalAmount,
		ItemsCount:    created.ItemsCount,
		RedirectTo:    created.RedirectTo,
	})
}

// Proforma descarga el PDF proforma del borrador actual.
// GET /api/invoice-drafts/:id/proforma.pdf
func (h *DraftHandler) Proforma(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pdf, filename, err := h.proforma.Render(c.UserContext(), s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

// Spreadsheet descarga las líneas y totales del borrador como .xlsx.
// GET /api/invoice-drafts/:id/export.xlsx
func (h *DraftHandler) Spreadsheet(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	data, filename, err := h.spreadsheet.Export(c.UserContext(), s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func itemIndex(c *fiber.Ctx) (int, bool) {
	n, err := strconv.Atoi(c.Params("index"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
