package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civiops/helpdesk-service/internal/api/dto"
	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/service"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// InventoryHandler exposes the provider's hardware inventory.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler constructs handler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// ListEquipment GET /admin/inventory?organization_id=.
func (h *InventoryHandler) ListEquipment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var orgID *string
	if raw := c.Query("organization_id"); raw != "" {
		orgID = &raw
	}
	items, err := h.inventory.ListEquipment(c.UserContext(), identity, orgID)
	if err != nil {
		return err
	}
	responses := make([]dto.EquipmentResponse, 0, len(items))
	for i := range items {
		responses = append(responses, equipmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// RegisterEquipment POST /admin/inventory.
func (h *InventoryHandler) RegisterEquipment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.inventory.RegisterEquipment(c.UserContext(), identity, service.EquipmentCreateInput{
		Label:          req.Label,
		Category:       req.Category,
		SerialNumber:   req.SerialNumber,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": equipmentResponse(created)})
}

// RemoveEquipment DELETE /admin/inventory/:id.
func (h *InventoryHandler) RemoveEquipment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.inventory.RemoveEquipment(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func equipmentResponse(equipment *domain.Equipment) dto.EquipmentResponse {
	return dto.EquipmentResponse{
		ID:             equipment.ID,
		Label:          equipment.Label,
		Category:       equipment.Category,
		SerialNumber:   equipment.SerialNumber,
		OrganizationID: equipment.OrganizationID,
		CreatedAt:      equipment.CreatedAt,
	}
}
