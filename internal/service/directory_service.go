package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/policy"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// DirectoryService manages organizations and personnel: provider admins
// manage everything, referents provision site-personnel accounts for their
// own organization.
type DirectoryService struct {
	identities    repository.IdentityRepository
	organizations repository.OrganizationRepository
	bcryptCost    int
}

// NewDirectoryService builds the service.
func NewDirectoryService(identities repository.IdentityRepository, organizations repository.OrganizationRepository, bcryptCost int) *DirectoryService {
	return &DirectoryService{
		identities:    identities,
		organizations: organizations,
		bcryptCost:    bcryptCost,
	}
}

// CreateOrganization registers a municipality. A duplicate (name, city) pair
// is refused by the schema and surfaces as a constraint violation without
// mutating the store.
func (s *DirectoryService) CreateOrganization(ctx context.Context, actor *domain.Identity, name, city string) (*domain.Organization, error) {
	if decision := policy.Authorize(actor, policy.ActionManageOrg, policy.Resource{}); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	name = strings.TrimSpace(name)
	city = strings.TrimSpace(city)
	if name == "" || city == "" {
		return nil, apperrors.NewValidationError("name and city required", nil)
	}
	org := &domain.Organization{Name: name, City: city}
	if err := s.organizations.Create(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// DeleteOrganization removes a municipality. Deletion is refused while any
// identity still references it.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, actor *domain.Identity, orgID string) error {
	if decision := policy.Authorize(actor, policy.ActionManageOrg, policy.Resource{}); !decision.Allowed {
		return apperrors.NewDenied(decision.Reason)
	}
	members, err := s.identities.ListByOrganization(ctx, orgID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(members) > 0 {
		return apperrors.NewConstraintViolation("organization still has identities", map[string]any{"organization_id": orgID, "identities": len(members)})
	}
	if err := s.organizations.Delete(ctx, orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("organization", map[string]any{"organization_id": orgID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListOrganizations returns all municipalities.
func (s *DirectoryService) ListOrganizations(ctx context.Context, actor *domain.Identity) ([]domain.Organization, error) {
	if decision := policy.Authorize(actor, policy.ActionManageOrg, policy.Resource{}); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	orgs, err := s.organizations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orgs, nil
}

// IdentityCreateInput describes a new directory account.
type IdentityCreateInput struct {
	DisplayName     string
	GivenName       string
	Email           string
	Role            domain.Role
	OrganizationID  *string
	ServiceLabel    *string
	InitialPassword string
}

// CreateIdentity provisions an account. Referents may only create
// site-personnel inside their own organization; provider admins create any
// role. New accounts start with the first-login flag set.
func (s *DirectoryService) CreateIdentity(ctx context.Context, actor *domain.Identity, input IdentityCreateInput) (*domain.Identity, error) {
	decision := policy.Authorize(actor, policy.ActionManageIdentity, policy.Resource{
		OrganizationID: input.OrganizationID,
		SubjectRole:    input.Role,
	})
	if !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.NewValidationError("malformed email address", nil)
	}
	if !input.Role.IsValid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, apperrors.NewValidationError("display name required", nil)
	}
	if len(input.InitialPassword) < 8 {
		return nil, apperrors.NewValidationError("initial password too short", map[string]any{"min_length": 8})
	}

	hash, err := auth.HashPassword(input.InitialPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	identity := &domain.Identity{
		DisplayName:    strings.TrimSpace(input.DisplayName),
		GivenName:      strings.TrimSpace(input.GivenName),
		Email:          strings.TrimSpace(input.Email),
		Role:           input.Role,
		OrganizationID: input.OrganizationID,
		ServiceLabel:   input.ServiceLabel,
		PasswordHash:   hash,
		FirstLogin:     true,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, apperrors.MapError(err)
	}
	return identity, nil
}

// DeleteIdentity removes an account. Self-deletion is refused, and so is
// removing the last referent of an organization, which would leave its
// personnel unmanaged.
func (s *DirectoryService) DeleteIdentity(ctx context.Context, actor *domain.Identity, identityID string) error {
	if actor != nil && actor.ID == identityID {
		return apperrors.NewConstraintViolation("an identity cannot delete itself", nil)
	}
	target, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("identity", map[string]any{"identity_id": identityID})
		}
		return apperrors.MapError(err)
	}
	decision := policy.Authorize(actor, policy.ActionManageIdentity, policy.Resource{
		OrganizationID: target.OrganizationID,
		SubjectRole:    target.Role,
	})
	if !decision.Allowed {
		return apperrors.NewDenied(decision.Reason)
	}
	if target.Role == domain.RoleReferent && target.OrganizationID != nil {
		count, err := s.identities.CountByOrganizationAndRole(ctx, *target.OrganizationID, domain.RoleReferent)
		if err != nil {
			return apperrors.MapError(err)
		}
		if count <= 1 {
			return apperrors.NewConstraintViolation("cannot delete the last referent of an organization", map[string]any{"organization_id": *target.OrganizationID})
		}
	}
	if err := s.identities.Delete(ctx, identityID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("identity", map[string]any{"identity_id": identityID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListOrganizationMembers returns the accounts of one organization, visible
// to its referents and to provider admins.
func (s *DirectoryService) ListOrganizationMembers(ctx context.Context, actor *domain.Identity, orgID string) ([]domain.Identity, error) {
	decision := policy.Authorize(actor, policy.ActionManageIdentity, policy.Resource{OrganizationID: &orgID})
	if !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	members, err := s.identities.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// ListTechnicians returns provider-side technicians for assignment forms.
func (s *DirectoryService) ListTechnicians(ctx context.Context, actor *domain.Identity) ([]domain.Identity, error) {
	if decision := policy.Authorize(actor, policy.ActionAssignTicket, policy.Resource{}); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	technicians, err := s.identities.ListByRole(ctx, domain.RoleTechnician)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return technicians, nil
}
