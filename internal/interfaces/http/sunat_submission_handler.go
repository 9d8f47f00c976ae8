package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

// SunatSubmissionHandler envíos: consulta, error de transporte y conciliación.
type SunatSubmissionHandler struct {
	tracker *billing.SubmissionTracker
	engine  *billing.ReconciliationEngine
}

// NewSunatSubmissionHandler construye el handler.
func NewSunatSubmissionHandler(tracker *billing.SubmissionTracker, engine *billing.ReconciliationEngine) *SunatSubmissionHandler {
	return &SunatSubmissionHandler{tracker: tracker, engine: engine}
}

// GetByID GET /api/sunat-submissions/:id
func (h *SunatSubmissionHandler) GetByID(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.tracker.Get(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RecordError POST /api/sunat-submissions/:id/error
// El envío no llegó a SUNAT (timeout, 5xx); PENDING pasa a ERROR.
func (h *SunatSubmissionHandler) RecordError(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.RecordErrorRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.tracker.RecordError(c.UserContext(), businessID, c.Params("id"), in.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar un resultado de SUNAT
// @Description  Upsert por id externo. Reenviar el mismo payload no cambia nada.
// @Tags         sunat-submissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  true  "Payload de APISUNAT"
// @Success      200   {object}  dto.SubmissionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sunat-submissions/reconcile [post]
func (h *SunatSubmissionHandler) Reconcile(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.ReconcileRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.Reconcile(c.UserContext(), businessID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
