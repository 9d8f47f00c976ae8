package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

// DocumentTypeHandler catálogo de tipos de comprobante.
type DocumentTypeHandler struct {
	uc *billing.DocumentTypeUseCase
}

func NewDocumentTypeHandler(uc *billing.DocumentTypeUseCase) *DocumentTypeHandler {
	return &DocumentTypeHandler{uc: uc}
}

// List GET /api/document-types
func (h *DocumentTypeHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create POST /api/document-types
func (h *DocumentTypeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete DELETE /api/document-types/:id
func (h *DocumentTypeHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
