package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-desk/internal/application/invoicing"
	"github.com/jhoicas/invoice-desk/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions    *invoicing.Manager
	Proforma    *invoicing.ProformaUseCase
	Spreadsheet *invoicing.SpreadsheetUseCase
	JWTSecret   string
	JWTIssuer   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": deps.Sessions.Len()})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	drafts := api.Group("/invoice-drafts")
	h := NewDraftHandler(deps.Sessions, deps.Proforma, deps.Spreadsheet, deps.Log)
	canRead := RequireRole(jwt.RoleAdmin, jwt.RoleAccounts, jwt.RoleViewer)
	canWrite := RequireRole(jwt.RoleAdmin, jwt.RoleAccounts)

	drafts.Post("/", canWrite, h.Start)
	drafts.Get("/:id", canRead, h.Get)
	drafts.Delete("/:id", canRead, h.Close)
	drafts.Post("/:id/dc", canWrite, h.LinkDC)
	drafts.Patch("/:id/header", canWrite, h.UpdateHeader)
	drafts.Put("/:id/buyer", canWrite, h.SelectBuyer)
	drafts.Patch("/:id/items/:index", canWrite, h.UpdateItem)
	drafts.Delete("/:id/items/:index", canWrite, h.RemoveItem)
	drafts.Delete("/:id/error", canRead, h.DismissError)
	drafts.Post("/:id/save", canWrite, h.Save)
	drafts.Get("/:id/events", canRead, h.Events)
	drafts.Get("/:id/proforma.pdf", canRead, h.Proforma)
	drafts.Get("/:id/export.xlsx", canRead, h.Spreadsheet)
}
