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

// DirectoryHandler exposes organization and personnel management.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// CreateOrganization POST /directory/organizations.
func (h *DirectoryHandler) CreateOrganization(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	org, err := h.directory.CreateOrganization(c.UserContext(), identity, req.Name, req.City)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": organizationResponse(org)})
}

// DeleteOrganization DELETE /directory/organizations/:id.
func (h *DirectoryHandler) DeleteOrganization(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.directory.DeleteOrganization(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListOrganizations GET /directory/organizations.
func (h *DirectoryHandler) ListOrganizations(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	orgs, err := h.directory.ListOrganizations(c.UserContext(), identity)
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		items = append(items, organizationResponse(&orgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateIdentity POST /directory/identities.
func (h *DirectoryHandler) CreateIdentity(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.directory.CreateIdentity(c.UserContext(), identity, service.IdentityCreateInput{
		DisplayName:     req.DisplayName,
		GivenName:       req.GivenName,
		Email:           req.Email,
		Role:            domain.ParseRole(req.Role),
		OrganizationID:  req.OrganizationID,
		ServiceLabel:    req.ServiceLabel,
		InitialPassword: req.InitialPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": identityResponse(created)})
}

// DeleteIdentity DELETE /directory/identities/:id.
func (h *DirectoryHandler) DeleteIdentity(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.directory.DeleteIdentity(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListOrganizationMembers GET /directory/organizations/:id/identities.
func (h *DirectoryHandler) ListOrganizationMembers(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	members, err := h.directory.ListOrganizationMembers(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.IdentityResponse, 0, len(members))
	for i := range members {
		items = append(items, identityResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTechnicians GET /directory/technicians.
func (h *DirectoryHandler) ListTechnicians(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	technicians, err := h.directory.ListTechnicians(c.UserContext(), identity)
	if err != nil {
		return err
	}
	items := make([]dto.IdentityResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, identityResponse(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func identityResponse(identity *domain.Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID:             identity.ID,
		DisplayName:    identity.DisplayName,
		GivenName:      identity.GivenName,
		Email:          identity.Email,
		Role:           identity.Role,
		OrganizationID: identity.OrganizationID,
		ServiceLabel:   identity.ServiceLabel,
		FirstLogin:     identity.FirstLogin,
	}
}

func organizationResponse(org *domain.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{ID: org.ID, Name: org.Name, City: org.City}
}
