package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
)

// PartyHandler maneja las peticiones HTTP de clientes/proveedores (protegido).
type PartyHandler struct {
	uc *billing.PartyUseCase
}

// NewPartyHandler construye el handler.
func NewPartyHandler(uc *billing.PartyUseCase) *PartyHandler {
	return &PartyHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cliente/proveedor
// @Tags         parties
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyRequest  true  "Documento de identidad y datos"
// @Success      201   {object}  dto.PartyResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/parties [post]
func (h *PartyHandler) Create(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.CreatePartyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), businessID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/parties?limit=20&offset=0
func (h *PartyHandler) List(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.List(c.UserContext(), businessID, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/parties/:id
func (h *PartyHandler) GetByID(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update PUT /api/parties/:id
func (h *PartyHandler) Update(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	var in dto.UpdatePartyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), businessID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/parties/:id
func (h *PartyHandler) Delete(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.UserContext(), businessID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
