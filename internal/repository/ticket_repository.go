package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// ErrVersionConflict is returned when a CAS update loses against a concurrent
// writer: the row exists but its version moved on.
var ErrVersionConflict = errors.New("ticket modified concurrently")

// TicketFilter captures listing parameters. Scope fields are combined with
// AND; nil fields are ignored.
type TicketFilter struct {
	CreatorID      *string
	TechnicianID   *string
	OrganizationID *string
	Statuses       []domain.TicketStatus
	Limit          int
	Offset         int
}

// ReportRow is the read-only join consumed by the reporting exporter.
type ReportRow struct {
	Ticket           domain.Ticket
	OrganizationName string
	TechnicianName   string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update persists the ticket with a compare-and-swap on Version; a
	// missed swap returns ErrVersionConflict, a missing row pgx.ErrNoRows.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// DeleteClosedBefore hard-deletes Closed tickets completed before the
	// cutoff and reports how many rows went away.
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListReportRows(ctx context.Context, from, to time.Time, orgID *string) ([]ReportRow, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category, creator_id, technician_id, status, tier, deadline_hours, created_at, completed_at, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, creator_id, technician_id, status, tier, deadline_hours, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, version`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.CreatorID,
		ticket.TechnicianID,
		ticket.Status,
		ticket.Tier,
		ticket.DeadlineHours,
		ticket.CompletedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.Version)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, technician_id=$4,
            status=$5, tier=$6, deadline_hours=$7, completed_at=$8, version=version+1
        WHERE id=$9 AND version=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.TechnicianID,
		ticket.Status,
		ticket.Tier,
		ticket.DeadlineHours,
		ticket.CompletedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.CreatorID,
		&ticket.TechnicianID,
		&ticket.Status,
		&ticket.Tier,
		&ticket.DeadlineHours,
		&ticket.CreatedAt,
		&ticket.CompletedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT t.id, t.title, t.description, t.category, t.creator_id, t.technician_id,
                    t.status, t.tier, t.deadline_hours, t.created_at, t.completed_at, t.version
             FROM tickets t`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrganizationID != nil {
		base += ` JOIN identities c ON c.id = t.creator_id`
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("c.organization_id=$%d", len(args)))
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM tickets WHERE status=$1 AND completed_at IS NOT NULL AND completed_at < $2`,
		domain.TicketStatusClosed, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) ListReportRows(ctx context.Context, from, to time.Time, orgID *string) ([]ReportRow, error) {
	query := `
        SELECT t.id, t.title, t.description, t.category, t.creator_id, t.technician_id,
               t.status, t.tier, t.deadline_hours, t.created_at, t.completed_at, t.version,
               COALESCE(o.name, ''), COALESCE(tech.given_name, '')
        FROM tickets t
        JOIN identities c ON c.id = t.creator_id
        LEFT JOIN organizations o ON o.id = c.organization_id
        LEFT JOIN identities tech ON tech.id = t.technician_id
        WHERE t.created_at >= $1 AND t.created_at < $2`
	args := []any{from, to}
	if orgID != nil {
		args = append(args, *orgID)
		query += fmt.Sprintf(" AND c.organization_id=$%d", len(args))
	}
	query += " ORDER BY t.created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(
			&row.Ticket.ID,
			&row.Ticket.Title,
			&row.Ticket.Description,
			&row.Ticket.Category,
			&row.Ticket.CreatorID,
			&row.Ticket.TechnicianID,
			&row.Ticket.Status,
			&row.Ticket.Tier,
			&row.Ticket.DeadlineHours,
			&row.Ticket.CreatedAt,
			&row.Ticket.CompletedAt,
			&row.Ticket.Version,
			&row.OrganizationName,
			&row.TechnicianName,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.CreatorID,
			&ticket.TechnicianID,
			&ticket.Status,
			&ticket.Tier,
			&ticket.DeadlineHours,
			&ticket.CreatedAt,
			&ticket.CompletedAt,
			&ticket.Version,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
