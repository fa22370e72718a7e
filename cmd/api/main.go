package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jhoicas/invoice-desk/internal/application/invoicing"
	"github.com/jhoicas/invoice-desk/internal/application/ports"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/backend"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/invoice-desk/internal/infrastructure/pdf"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/postgres"
	"github.com/jhoicas/invoice-desk/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/invoice-desk/internal/interfaces/http"
	"github.com/jhoicas/invoice-desk/pkg/config"
	"github.com/jhoicas/invoice-desk/pkg/logger"
)

func main() {
	// .env opcional en desarrollo; en producción todo llega por variables de entorno.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("gateway_mode", cfg.App.GatewayMode).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
	}, log.Component("backend"))
	if err != nil {
		log.Fatal().Err(err).Msg("cliente del backend")
	}

	composite := ports.CompositeGateway{
		BuyerDirectory: client,
		SettingsSource: client,
		NumberChecker:  client,
		PreviewSource:  client,
		InvoiceCreator: client,
	}
	if cfg.App.GatewayMode == config.GatewayHybrid {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		// Lecturas directas a la base compartida; vista previa y creación siguen por HTTP.
		composite.BuyerDirectory = postgres.NewBuyerRepository(pool)
		composite.SettingsSource = postgres.NewSettingsRepository(pool)
		composite.NumberChecker = postgres.NewNumberRegistry(pool)
	}
	if cfg.Cache.Enabled() {
		rdb, err := cache.NewRedisClient(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("REDIS_URL inválida")
		}
		defer rdb.Close()
		dirCache := cache.NewDirectoryCache(rdb, composite.BuyerDirectory, composite.SettingsSource,
			cache.Config{TTL: cfg.Cache.TTL}, log.Component("cache"))
		composite.BuyerDirectory = dirCache
		composite.SettingsSource = dirCache
	}
	var gw ports.Gateway = composite

	sessions := invoicing.NewManager(gw, invoicing.ManagerConfig{
		Session: invoicing.SessionConfig{
			DebounceDelay:   cfg.Session.DebounceDelay,
			MinNumberLength: cfg.Session.MinNumberLength,
		},
		IdleTTL: cfg.Session.IdleTTL,
	}, log.Component("sessions"))
	go sessions.RunReaper(ctx, cfg.Session.ReapInterval)

	proformaUC := invoicing.NewProformaUseCase(infrapdf.NewMarotoPDFGenerator())
	spreadsheetUC := invoicing.NewSpreadsheetUseCase(xlsx.NewDraftExporter())

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// sin WriteTimeout: el stream SSE es de larga duración
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invoice Desk API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:    sessions,
		Proforma:    proformaUC,
		Spreadsheet: spreadsheetUC,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	// Cerrar sesiones primero: termina los streams SSE abiertos y cancela llamadas en curso.
	stop()
	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
