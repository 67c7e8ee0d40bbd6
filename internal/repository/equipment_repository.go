package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// EquipmentRepository manages the hardware inventory. Serial numbers are
// unique; violations surface as pg constraint errors.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Equipment, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Equipment, error)
}

type equipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository builds the repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{pool: pool}
}

const equipmentColumns = `id, label, category, serial_number, organization_id, created_at`

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        INSERT INTO equipment (label, category, serial_number, organization_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		equipment.Label,
		equipment.Category,
		equipment.SerialNumber,
		equipment.OrganizationID,
	).Scan(&equipment.ID, &equipment.CreatedAt)
}

func (r *equipmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *equipmentRepository) List(ctx context.Context) ([]domain.Equipment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+equipmentColumns+` FROM equipment ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipment(rows)
}

func (r *equipmentRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Equipment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE organization_id=$1 ORDER BY label`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipment(rows)
}

func scanEquipment(rows pgx.Rows) ([]domain.Equipment, error) {
	var result []domain.Equipment
	for rows.Next() {
		var equipment domain.Equipment
		if err := rows.Scan(
			&equipment.ID,
			&equipment.Label,
			&equipment.Category,
			&equipment.SerialNumber,
			&equipment.OrganizationID,
			&equipment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, equipment)
	}
	return result, rows.Err()
}
