package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sisfac/sisfac-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Assembler      *billing.DocumentAssembler
	DocumentUC     *billing.DocumentUseCase
	Tracker        *billing.SubmissionTracker
	Engine         *billing.ReconciliationEngine
	RecordQuery    *billing.RecordQuery
	PDFUC          *billing.PDFUseCase
	PartyUC        *billing.PartyUseCase
	DocumentTypeUC *billing.DocumentTypeUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token con business_id)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Comprobantes
	docs := protected.Group("/sunat-documents")
	docHandler := NewSunatDocumentHandler(deps.Assembler, deps.DocumentUC, deps.Tracker, deps.PDFUC)
	docs.Post("/", docHandler.Create)
	docs.Post("/from-order", docHandler.CreateFromOrder)
	docs.Get("/", docHandler.List)
	docs.Get("/:id", docHandler.GetByID)
	docs.Post("/:id/void", docHandler.Void)
	docs.Get("/:id/pdf", docHandler.DownloadPDF)
	docs.Post("/:id/submissions", docHandler.Submit)
	docs.Get("/:id/submissions", docHandler.ListSubmissions)

	// Envíos y conciliación
	subs := protected.Group("/sunat-submissions")
	subHandler := NewSunatSubmissionHandler(deps.Tracker, deps.Engine)
	subs.Post("/reconcile", subHandler.Reconcile)
	subs.Get("/:id", subHandler.GetByID)
	subs.Post("/:id/error", subHandler.RecordError)

	// Vista heredada
	records := protected.Group("/sunat-records")
	recordHandler := NewSunatRecordHandler(deps.RecordQuery)
	records.Post("/sync", recordHandler.Sync)
	records.Get("/", recordHandler.List)
	records.Get("/:externalId", recordHandler.GetByExternalID)

	// Clientes / proveedores
	parties := protected.Group("/parties")
	partyHandler := NewPartyHandler(deps.PartyUC)
	parties.Post("/", partyHandler.Create)
	parties.Get("/", partyHandler.List)
	parties.Get("/:id", partyHandler.GetByID)
	parties.Put("/:id", partyHandler.Update)
	parties.Delete("/:id", partyHandler.Delete)

	// Catálogo de tipos de comprobante
	docTypes := protected.Group("/document-types")
	docTypeHandler := NewDocumentTypeHandler(deps.DocumentTypeUC)
	docTypes.Get("/", docTypeHandler.List)
	docTypes.Post("/", docTypeHandler.Create)
	docTypes.Delete("/:id", docTypeHandler.Delete)
}
