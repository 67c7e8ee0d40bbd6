package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// IdentityRepository defines persistence access for directory identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	Update(ctx context.Context, identity *domain.Identity) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Identity, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Identity, error)
	CountByOrganizationAndRole(ctx context.Context, orgID string, role domain.Role) (int, error)
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

const identityColumns = `id, display_name, given_name, email, role, organization_id, service_label, password_hash, first_login, created_at, updated_at`

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO identities (display_name, given_name, email, role, organization_id, service_label, password_hash, first_login)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		identity.DisplayName,
		identity.GivenName,
		identity.Email,
		identity.Role,
		identity.OrganizationID,
		identity.ServiceLabel,
		identity.PasswordHash,
		identity.FirstLogin,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
}

func (r *identityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	const query = `
        UPDATE identities SET display_name=$1, given_name=$2, email=$3, role=$4,
            organization_id=$5, service_label=$6, password_hash=$7, first_login=$8, updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		identity.DisplayName,
		identity.GivenName,
		identity.Email,
		identity.Role,
		identity.OrganizationID,
		identity.ServiceLabel,
		identity.PasswordHash,
		identity.FirstLogin,
		identity.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.fetchSingle(ctx, `SELECT `+identityColumns+` FROM identities WHERE id=$1`, id)
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.fetchSingle(ctx, `SELECT `+identityColumns+` FROM identities WHERE email=$1`, email)
}

func (r *identityRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	var (
		identity domain.Identity
		rawRole  string
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&identity.ID,
		&identity.DisplayName,
		&identity.GivenName,
		&identity.Email,
		&rawRole,
		&identity.OrganizationID,
		&identity.ServiceLabel,
		&identity.PasswordHash,
		&identity.FirstLogin,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	identity.Role = domain.ParseRole(rawRole)
	return &identity, nil
}

func (r *identityRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE organization_id=$1 ORDER BY display_name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIdentities(rows)
}

func (r *identityRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE role=$1 ORDER BY display_name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIdentities(rows)
}

func (r *identityRepository) CountByOrganizationAndRole(ctx context.Context, orgID string, role domain.Role) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM identities WHERE organization_id=$1 AND role=$2`, orgID, role).Scan(&count)
	return count, err
}

func scanIdentities(rows pgx.Rows) ([]domain.Identity, error) {
	var result []domain.Identity
	for rows.Next() {
		var (
			identity domain.Identity
			rawRole  string
		)
		if err := rows.Scan(
			&identity.ID,
			&identity.DisplayName,
			&identity.GivenName,
			&identity.Email,
			&rawRole,
			&identity.OrganizationID,
			&identity.ServiceLabel,
			&identity.PasswordHash,
			&identity.FirstLogin,
			&identity.CreatedAt,
			&identity.UpdatedAt,
		); err != nil {
			return nil, err
		}
		identity.Role = domain.ParseRole(rawRole)
		result = append(result, identity)
	}
	return result, rows.Err()
}
