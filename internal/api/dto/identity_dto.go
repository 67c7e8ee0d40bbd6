package dto

import (
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse contains the issued token info.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RecoveryRequest payload.
type RecoveryRequest struct {
	Email string `json:"email"`
}

// RecoveryConfirmRequest payload.
type RecoveryConfirmRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateIdentityRequest provisions a directory account.
type CreateIdentityRequest struct {
	DisplayName     string  `json:"display_name"`
	GivenName       string  `json:"given_name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	OrganizationID  *string `json:"organization_id"`
	ServiceLabel    *string `json:"service_label"`
	InitialPassword string  `json:"initial_password"`
}

// IdentityResponse is the directory view of an account.
type IdentityResponse struct {
	ID             string      `json:"id"`
	DisplayName    string      `json:"display_name"`
	GivenName      string      `json:"given_name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	OrganizationID *string     `json:"organization_id,omitempty"`
	ServiceLabel   *string     `json:"service_label,omitempty"`
	FirstLogin     bool        `json:"first_login"`
}

// CreateOrganizationRequest payload.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// OrganizationResponse is the directory view of a municipality.
type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}
