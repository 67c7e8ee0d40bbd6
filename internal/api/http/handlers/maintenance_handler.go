package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/policy"
	"github.com/civiops/helpdesk-service/internal/service"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// MaintenanceHandler exposes the retention sweep as an explicit admin action,
// in addition to the timer-driven worker.
type MaintenanceHandler struct {
	retention *service.RetentionService
}

// NewMaintenanceHandler constructs handler.
func NewMaintenanceHandler(retention *service.RetentionService) *MaintenanceHandler {
	return &MaintenanceHandler{retention: retention}
}

// RunSweep POST /admin/maintenance/sweep.
func (h *MaintenanceHandler) RunSweep(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if decision := policy.Authorize(identity, policy.ActionRunSweep, policy.Resource{}); !decision.Allowed {
		return apperrors.NewDenied(decision.Reason)
	}
	purged, err := h.retention.Sweep(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"purged":         purged,
		"retention_days": int(h.retention.Window() / (24 * time.Hour)),
	}})
}
