package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiops/helpdesk-service/internal/domain"
)

const testBcryptCost = 4

type directoryFixture struct {
	identities *memIdentityRepo
	orgs       *memOrgRepo
	svc        *DirectoryService

	admin    *domain.Identity
	referent *domain.Identity
}

func newDirectoryFixture() *directoryFixture {
	admin := &domain.Identity{ID: "adm-1", Role: domain.RoleProviderAdmin, Email: "admin@provider.fr"}
	referent := &domain.Identity{ID: "ref-1", Role: domain.RoleReferent, Email: "referent@lyon.fr", OrganizationID: strPtr("org-1")}
	identities := newMemIdentityRepo(admin, referent)
	orgs := newMemOrgRepo()
	return &directoryFixture{
		identities: identities,
		orgs:       orgs,
		svc:        NewDirectoryService(identities, orgs, testBcryptCost),
		admin:      admin,
		referent:   referent,
	}
}

func TestCreateOrganization(t *testing.T) {
	f := newDirectoryFixture()

	org, err := f.svc.CreateOrganization(context.Background(), f.admin, "  Mairie de Lyon  ", "Lyon")
	require.NoError(t, err)
	assert.Equal(t, "Mairie de Lyon", org.Name)
	assert.NotEmpty(t, org.ID)

	_, err = f.svc.CreateOrganization(context.Background(), f.admin, "Mairie de Lyon", "Lyon")
	requireCode(t, err, "CONSTRAINT_VIOLATION")

	// same name in another city is a different municipality
	_, err = f.svc.CreateOrganization(context.Background(), f.admin, "Mairie de Lyon", "Villeurbanne")
	require.NoError(t, err)

	_, err = f.svc.CreateOrganization(context.Background(), f.admin, "", "Lyon")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.svc.CreateOrganization(context.Background(), f.referent, "Mairie de Nantes", "Nantes")
	requireCode(t, err, "AUTHORIZATION_DENIED")
}

func TestDeleteOrganization(t *testing.T) {
	f := newDirectoryFixture()
	org, err := f.svc.CreateOrganization(context.Background(), f.admin, "Mairie de Nantes", "Nantes")
	require.NoError(t, err)

	member := &domain.Identity{ID: "per-9", Role: domain.RoleSitePersonnel, Email: "agent@nantes.fr", OrganizationID: &org.ID}
	f.identities.identities[member.ID] = *member

	err = f.svc.DeleteOrganization(context.Background(), f.admin, org.ID)
	requireCode(t, err, "CONSTRAINT_VIOLATION")

	require.NoError(t, f.identities.Delete(context.Background(), member.ID))
	require.NoError(t, f.svc.DeleteOrganization(context.Background(), f.admin, org.ID))

	err = f.svc.DeleteOrganization(context.Background(), f.admin, org.ID)
	requireCode(t, err, "NOT_FOUND")
}

func TestCreateIdentity(t *testing.T) {
	f := newDirectoryFixture()

	created, err := f.svc.CreateIdentity(context.Background(), f.referent, IdentityCreateInput{
		DisplayName:     "Dupont",
		GivenName:       "Claire",
		Email:           "claire.dupont@lyon.fr",
		Role:            domain.RoleSitePersonnel,
		OrganizationID:  strPtr("org-1"),
		InitialPassword: "correct horse",
	})
	require.NoError(t, err)
	assert.True(t, created.FirstLogin)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "correct horse", created.PasswordHash)

	// referents provision site personnel only
	_, err = f.svc.CreateIdentity(context.Background(), f.referent, IdentityCreateInput{
		DisplayName:     "Martin",
		Email:           "martin@lyon.fr",
		Role:            domain.RoleTechnician,
		OrganizationID:  strPtr("org-1"),
		InitialPassword: "correct horse",
	})
	requireCode(t, err, "AUTHORIZATION_DENIED")

	// and only inside their own organization
	_, err = f.svc.CreateIdentity(context.Background(), f.referent, IdentityCreateInput{
		DisplayName:     "Bernard",
		Email:           "bernard@nantes.fr",
		Role:            domain.RoleSitePersonnel,
		OrganizationID:  strPtr("org-2"),
		InitialPassword: "correct horse",
	})
	requireCode(t, err, "AUTHORIZATION_DENIED")

	_, err = f.svc.CreateIdentity(context.Background(), f.admin, IdentityCreateInput{
		DisplayName:     "Broken",
		Email:           "not-an-address",
		Role:            domain.RoleTechnician,
		InitialPassword: "correct horse",
	})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.svc.CreateIdentity(context.Background(), f.admin, IdentityCreateInput{
		DisplayName:     "Short",
		Email:           "short@provider.fr",
		Role:            domain.RoleTechnician,
		InitialPassword: "tiny",
	})
	requireCode(t, err, "VALIDATION_FAILED")

	// duplicate email surfaces the storage constraint
	_, err = f.svc.CreateIdentity(context.Background(), f.admin, IdentityCreateInput{
		DisplayName:     "Double",
		Email:           "claire.dupont@lyon.fr",
		Role:            domain.RoleSitePersonnel,
		OrganizationID:  strPtr("org-1"),
		InitialPassword: "correct horse",
	})
	requireCode(t, err, "CONSTRAINT_VIOLATION")
}

func TestDeleteIdentity(t *testing.T) {
	f := newDirectoryFixture()

	err := f.svc.DeleteIdentity(context.Background(), f.admin, f.admin.ID)
	requireCode(t, err, "CONSTRAINT_VIOLATION")

	// ref-1 is the only referent of org-1
	err = f.svc.DeleteIdentity(context.Background(), f.admin, f.referent.ID)
	requireCode(t, err, "CONSTRAINT_VIOLATION")

	second := &domain.Identity{ID: "ref-2", Role: domain.RoleReferent, Email: "ref2@lyon.fr", OrganizationID: strPtr("org-1")}
	f.identities.identities[second.ID] = *second
	require.NoError(t, f.svc.DeleteIdentity(context.Background(), f.admin, f.referent.ID))

	err = f.svc.DeleteIdentity(context.Background(), f.admin, "ghost")
	requireCode(t, err, "NOT_FOUND")
}

func TestListTechnicians(t *testing.T) {
	f := newDirectoryFixture()
	tech := &domain.Identity{ID: "tec-1", Role: domain.RoleTechnician, Email: "tech@provider.fr"}
	f.identities.identities[tech.ID] = *tech

	technicians, err := f.svc.ListTechnicians(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, tech.ID, technicians[0].ID)

	_, err = f.svc.ListTechnicians(context.Background(), f.referent)
	requireCode(t, err, "AUTHORIZATION_DENIED")
}
