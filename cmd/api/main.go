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
	"github.com/sisfac/sisfac-api/internal/application/billing"
	domsunat "github.com/sisfac/sisfac-api/internal/domain/sunat"
	infrapdf "github.com/sisfac/sisfac-api/internal/infrastructure/pdf"
	"github.com/sisfac/sisfac-api/internal/infrastructure/postgres"
	infrasunat "github.com/sisfac/sisfac-api/internal/infrastructure/sunat"
	httpRouter "github.com/sisfac/sisfac-api/internal/interfaces/http"
	"github.com/sisfac/sisfac-api/pkg/config"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	policy, err := domsunat.ParseTaxablePolicy(cfg.SUNAT.TaxablePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración SUNAT")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.RunMigrations(pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	businessRepo := postgres.NewBusinessRepository(pool)
	partyRepo := postgres.NewPartyRepository(pool)
	docTypeRepo := postgres.NewDocumentTypeRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	docRepo := postgres.NewSunatDocumentRepository(pool)
	subRepo := postgres.NewSunatSubmissionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	assembler := billing.NewDocumentAssembler(txRunner, partyRepo, docTypeRepo, orderRepo, docRepo, billing.AssemblerConfig{
		IGVRate:         cfg.SUNAT.IGVRate,
		Policy:          policy,
		DefaultCurrency: cfg.SUNAT.DefaultCurrency,
	}, log)
	documentUC := billing.NewDocumentUseCase(txRunner, docRepo, log)
	tracker := billing.NewSubmissionTracker(txRunner, businessRepo, docRepo, subRepo, log)
	engine := billing.NewReconciliationEngine(txRunner, docTypeRepo, infrasunat.NewXMLExtractor(), log)
	recordQuery := billing.NewRecordQuery(docRepo, subRepo, engine)
	partyUC := billing.NewPartyUseCase(partyRepo)
	docTypeUC := billing.NewDocumentTypeUseCase(docTypeRepo)

	// PDF: representación impresa del comprobante
	pdfUC := billing.NewPDFUseCase(docRepo, subRepo, businessRepo, partyRepo, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "sisfac API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Assembler:      assembler,
		DocumentUC:     documentUC,
		Tracker:        tracker,
		Engine:         engine,
		RecordQuery:    recordQuery,
		PDFUC:          pdfUC,
		PartyUC:        partyUC,
		DocumentTypeUC: docTypeUC,
		JWTSecret:      cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
