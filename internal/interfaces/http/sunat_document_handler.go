package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

// SunatDocumentHandler comprobantes: ensamblado, consulta, anulación, PDF y envíos.
type SunatDocumentHandler struct {
	assembler *billing.DocumentAssembler
	docs      *billing.DocumentUseCase
	tracker   *billing.SubmissionTracker
	pdf       *billing.PDFUseCase
}

// NewSunatDocumentHandler construye el handler.
func NewSunatDocumentHandler(
	assembler *billing.DocumentAssembler,
	docs *billing.DocumentUseCase,
	tracker *billing.SubmissionTracker,
	pdf *billing.PDFUseCase,
) *SunatDocumentHandler {
	return &SunatDocumentHandler{assembler: assembler, docs: docs, tracker: tracker, pdf: pdf}
}

// Create godoc
// @Summary      Crear comprobante manual
// @Tags         sunat-documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AssembleDocumentRequest  true  "Cabecera e ítems"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sunat-documents [post]
func (h *SunatDocumentHandler) Create(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.AssembleDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.assembler.AssembleManual(c.UserContext(), businessID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateFromOrder godoc
// @Summary      Crear comprobante desde un pedido
// @Tags         sunat-documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AssembleFromOrderRequest  true  "Pedido y numeración"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sunat-documents/from-order [post]
func (h *SunatDocumentHandler) CreateFromOrder(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.AssembleFromOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.assembler.AssembleFromOrder(c.UserContext(), businessID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/sunat-documents?limit=20&offset=0
func (h *SunatDocumentHandler) List(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.List(c.UserContext(), businessID, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/sunat-documents/:id
func (h *SunatDocumentHandler) GetByID(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.Get(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Void POST /api/sunat-documents/:id/void
func (h *SunatDocumentHandler) Void(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.Void(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	log.Info().
		Str("document_id", out.ID).
		Str("business_id", businessID).
		Str("user_id", GetUserID(c)).
		Str("role", GetRole(c)).
		Msg("comprobante anulado")
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Representación impresa del comprobante
// @Tags         sunat-documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {file}    binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sunat-documents/{id}/pdf [get]
func (h *SunatDocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	pdfBytes, filename, err := h.pdf.DownloadDocumentPDF(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// Submit godoc
// @Summary      Registrar un envío a SUNAT (PENDING)
// @Tags         sunat-submissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID del comprobante"
// @Param        body  body  dto.SubmitRequest  false  "production"
// @Success      201   {object}  dto.SubmissionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sunat-documents/{id}/submissions [post]
func (h *SunatDocumentHandler) Submit(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.tracker.Submit(c.UserContext(), businessID, c.Params("id"), in.Production)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSubmissions GET /api/sunat-documents/:id/submissions
func (h *SunatDocumentHandler) ListSubmissions(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.tracker.ListByDocument(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
