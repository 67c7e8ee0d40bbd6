package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/repository"
)

// memTicketRepo is an in-memory TicketRepository honoring the same
// compare-and-swap contract as the Postgres implementation.
type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket

	// forceConflicts makes the next N updates lose their swap, to exercise
	// the retry path.
	forceConflicts int
	calls          []string
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *memTicketRepo) record(name string) {
	r.calls = append(r.calls, name)
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create")
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.Version = 1
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("update")
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.forceConflicts > 0 {
		r.forceConflicts--
		return repository.ErrVersionConflict
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("get")
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("list")
	var result []domain.Ticket
	for _, t := range r.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.TechnicianID != nil && (t.TechnicianID == nil || *t.TechnicianID != *filter.TechnicianID) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memTicketRepo) DeleteClosedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("sweep")
	var purged int64
	for id, t := range r.tickets {
		if t.Status == domain.TicketStatusClosed && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(r.tickets, id)
			purged++
		}
	}
	return purged, nil
}

func (r *memTicketRepo) ListReportRows(_ context.Context, from, to time.Time, _ *string) ([]repository.ReportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("report")
	var rows []repository.ReportRow
	for _, t := range r.tickets {
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		rows = append(rows, repository.ReportRow{Ticket: t, OrganizationName: "Mairie de Lyon", TechnicianName: "Marc"})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticket.ID < rows[j].Ticket.ID })
	return rows, nil
}

// memIdentityRepo is an in-memory IdentityRepository.
type memIdentityRepo struct {
	mu         sync.Mutex
	seq        int
	identities map[string]domain.Identity
}

func newMemIdentityRepo(seed ...*domain.Identity) *memIdentityRepo {
	r := &memIdentityRepo{identities: make(map[string]domain.Identity)}
	for _, identity := range seed {
		r.identities[identity.ID] = *identity
	}
	return r
}

func (r *memIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.Email == identity.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "identities_email_key"}
		}
	}
	r.seq++
	identity.ID = fmt.Sprintf("id-%d", r.seq)
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	r.identities[identity.ID] = *identity
	return nil
}

func (r *memIdentityRepo) Update(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[identity.ID]; !ok {
		return pgx.ErrNoRows
	}
	identity.UpdatedAt = time.Now()
	r.identities[identity.ID] = *identity
	return nil
}

func (r *memIdentityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.identities, id)
	return nil
}

func (r *memIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.identities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *memIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.identities {
		if stored.Email == email {
			copied := stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memIdentityRepo) ListByOrganization(_ context.Context, orgID string) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Identity
	for _, stored := range r.identities {
		if stored.OrganizationID != nil && *stored.OrganizationID == orgID {
			result = append(result, stored)
		}
	}
	return result, nil
}

func (r *memIdentityRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Identity
	for _, stored := range r.identities {
		if stored.Role == role {
			result = append(result, stored)
		}
	}
	return result, nil
}

func (r *memIdentityRepo) CountByOrganizationAndRole(_ context.Context, orgID string, role domain.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, stored := range r.identities {
		if stored.Role == role && stored.OrganizationID != nil && *stored.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

// memEquipmentRepo is an in-memory EquipmentRepository enforcing serial
// uniqueness like the schema.
type memEquipmentRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.Equipment
}

func newMemEquipmentRepo() *memEquipmentRepo {
	return &memEquipmentRepo{items: make(map[string]domain.Equipment)}
}

func (r *memEquipmentRepo) Create(_ context.Context, equipment *domain.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.SerialNumber == equipment.SerialNumber {
			return &pgconn.PgError{Code: "23505", ConstraintName: "equipment_serial_number_key"}
		}
	}
	r.seq++
	equipment.ID = fmt.Sprintf("eq-%d", r.seq)
	equipment.CreatedAt = time.Now()
	r.items[equipment.ID] = *equipment
	return nil
}

func (r *memEquipmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *memEquipmentRepo) List(_ context.Context) ([]domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Equipment
	for _, stored := range r.items {
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memEquipmentRepo) ListByOrganization(_ context.Context, orgID string) ([]domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Equipment
	for _, stored := range r.items {
		if stored.OrganizationID != nil && *stored.OrganizationID == orgID {
			result = append(result, stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// memOrgRepo is an in-memory OrganizationRepository enforcing the same
// (name, city) uniqueness rule as the schema.
type memOrgRepo struct {
	mu   sync.Mutex
	seq  int
	orgs map[string]domain.Organization
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{orgs: make(map[string]domain.Organization)}
}

func (r *memOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if existing.Name == org.Name && existing.City == org.City {
			return &pgconn.PgError{Code: "23505", ConstraintName: "organizations_name_city_key"}
		}
	}
	r.seq++
	org.ID = fmt.Sprintf("org-gen-%d", r.seq)
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	r.orgs[org.ID] = *org
	return nil
}

func (r *memOrgRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.orgs, id)
	return nil
}

func (r *memOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *memOrgRepo) List(_ context.Context) ([]domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Organization
	for _, stored := range r.orgs {
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
