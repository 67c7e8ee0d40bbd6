package domain

import (
	"strings"
	"time"
)

// Role enumerates the closed set of actor roles.
type Role string

const (
	RoleProviderAdmin Role = "PROVIDER_ADMIN"
	RoleReferent      Role = "REFERENT"
	RoleSitePersonnel Role = "SITE_PERSONNEL"
	RoleTechnician    Role = "TECHNICIAN"
	RoleUnassigned    Role = "UNASSIGNED"
)

// Identity models any account known to the directory: provider admins,
// organization referents, site personnel filing tickets and technicians.
type Identity struct {
	ID             string
	DisplayName    string
	GivenName      string
	Email          string
	Role           Role
	OrganizationID *string
	ServiceLabel   *string
	PasswordHash   string
	FirstLogin     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsValid reports whether the role belongs to the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleProviderAdmin, RoleReferent, RoleSitePersonnel, RoleTechnician, RoleUnassigned:
		return true
	}
	return false
}

// roleAliases folds legacy spellings found in imported account data. Earlier
// revisions of the schema stored free-form French labels with inconsistent
// accents and casing; normalization happens once here, at parse time.
var roleAliases = map[string]Role{
	"provider_admin":   RoleProviderAdmin,
	"provider-admin":   RoleProviderAdmin,
	"admin":            RoleProviderAdmin,
	"administrateur":   RoleProviderAdmin,
	"referent":         RoleReferent,
	"référent":         RoleReferent,
	"referente":        RoleReferent,
	"référente":        RoleReferent,
	"site_personnel":   RoleSitePersonnel,
	"site-personnel":   RoleSitePersonnel,
	"personnel_mairie": RoleSitePersonnel,
	"personnel mairie": RoleSitePersonnel,
	"technician":       RoleTechnician,
	"technicien":       RoleTechnician,
	"unassigned":       RoleUnassigned,
	"non_affecte":      RoleUnassigned,
	"non affecté":      RoleUnassigned,
}

// ParseRole normalizes a stored role label to the closed enum.
// Unknown or empty labels resolve to RoleUnassigned.
func ParseRole(raw string) Role {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RoleUnassigned
	}
	if role := Role(strings.ToUpper(trimmed)); role.IsValid() {
		return role
	}
	if role, ok := roleAliases[strings.ToLower(trimmed)]; ok {
		return role
	}
	return RoleUnassigned
}
