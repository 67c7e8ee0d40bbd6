package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/policy"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// InventoryService tracks the hardware assets deployed at municipalities and
// held in provider stock. Inventory is a provider-side concern: only admins
// manage or read it.
type InventoryService struct {
	equipment repository.EquipmentRepository
}

// NewInventoryService builds the service.
func NewInventoryService(equipment repository.EquipmentRepository) *InventoryService {
	return &InventoryService{equipment: equipment}
}

// EquipmentCreateInput describes a new asset.
type EquipmentCreateInput struct {
	Label          string
	Category       string
	SerialNumber   string
	OrganizationID *string
}

// RegisterEquipment records an asset. Duplicate serial numbers are refused by
// the schema and surface as a constraint violation.
func (s *InventoryService) RegisterEquipment(ctx context.Context, actor *domain.Identity, input EquipmentCreateInput) (*domain.Equipment, error) {
	if decision := policy.Authorize(actor, policy.ActionManageStock, policy.Resource{}); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	label := strings.TrimSpace(input.Label)
	serial := strings.TrimSpace(input.SerialNumber)
	if label == "" || serial == "" {
		return nil, apperrors.NewValidationError("label and serial_number required", nil)
	}
	equipment := &domain.Equipment{
		Label:          label,
		Category:       strings.TrimSpace(input.Category),
		SerialNumber:   serial,
		OrganizationID: input.OrganizationID,
	}
	if err := s.equipment.Create(ctx, equipment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return equipment, nil
}

// RemoveEquipment deletes an asset from the inventory.
func (s *InventoryService) RemoveEquipment(ctx context.Context, actor *domain.Identity, equipmentID string) error {
	if decision := policy.Authorize(actor, policy.ActionManageStock, policy.Resource{}); !decision.Allowed {
		return apperrors.NewDenied(decision.Reason)
	}
	if err := s.equipment.Delete(ctx, equipmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("equipment", map[string]any{"equipment_id": equipmentID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListEquipment returns the full inventory, optionally narrowed to one
// organization.
func (s *InventoryService) ListEquipment(ctx context.Context, actor *domain.Identity, orgID *string) ([]domain.Equipment, error) {
	if decision := policy.Authorize(actor, policy.ActionManageStock, policy.Resource{}); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	var (
		items []domain.Equipment
		err   error
	)
	if orgID != nil {
		items, err = s.equipment.ListByOrganization(ctx, *orgID)
	} else {
		items, err = s.equipment.List(ctx)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}
