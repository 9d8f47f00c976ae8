package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

// SunatRecordHandler vista plana heredada (un registro por id externo).
type SunatRecordHandler struct {
	query *billing.RecordQuery
}

// NewSunatRecordHandler construye el handler.
func NewSunatRecordHandler(query *billing.RecordQuery) *SunatRecordHandler {
	return &SunatRecordHandler{query: query}
}

// List GET /api/sunat-records
func (h *SunatRecordHandler) List(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.query.ListByBusiness(c.UserContext(), businessID, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByExternalID GET /api/sunat-records/:externalId
func (h *SunatRecordHandler) GetByExternalID(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.query.GetByExternalID(c.UserContext(), businessID, c.Params("externalId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Sync POST /api/sunat-records/sync
func (h *SunatRecordHandler) Sync(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.ReconcileRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.query.SyncFromSunat(c.UserContext(), businessID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
