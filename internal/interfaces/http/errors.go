package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/dto"
	"github.com/jhoicas/invoice-desk/internal/domain"
)

// writeError traduce un error de la capa de aplicación a status + código.
// El mensaje siempre es el legible para el usuario (el del backend si lo hubo).
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	msg := domain.UserMessage(err)

	var blocked *domain.SaveBlockedError
	if errors.As(err, &blocked) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.SaveBlockedResponse{
			Code:    "SAVE_BLOCKED",
			Message: "la factura no se puede guardar todavía",
			Reasons: blocked.Reasons,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrConfirmationRequired):
		status, code = fiber.StatusPreconditionRequired, "CONFIRMATION_REQUIRED"
	case errors.Is(err, domain.ErrLockedField):
		status, code = fiber.StatusUnprocessableEntity, "LOCKED_FIELD"
	case errors.Is(err, domain.ErrUnknownField):
		status, code = fiber.StatusBadRequest, "UNKNOWN_FIELD"
	case errors.Is(err, domain.ErrAlreadyInvoiced):
		status, code = fiber.StatusConflict, "ALREADY_INVOICED"
	case errors.Is(err, domain.ErrSessionBusy):
		status, code = fiber.StatusConflict, "SESSION_BUSY"
	case errors.Is(err, domain.ErrSessionNotInitialized):
		status, code = fiber.StatusConflict, "SESSION_NOT_READY"
	case errors.Is(err, domain.ErrSessionClosed):
		status, code = fiber.StatusGone, "SESSION_CLOSED"
	case errors.As(err, &remote) && errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.As(err, &remote) && errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusUnprocessableEntity, "BACKEND_VALIDATION"
	case errors.As(err, &remote) && errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &remote):
		status, code = fiber.StatusBadGateway, "BACKEND_ERROR"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("error en la petición")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
