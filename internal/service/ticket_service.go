package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/events"
	"github.com/civiops/helpdesk-service/internal/lifecycle"
	"github.com/civiops/helpdesk-service/internal/observability"
	"github.com/civiops/helpdesk-service/internal/policy"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows: every transition goes through
// the role policy and the lifecycle machine, and persists via a
// compare-and-swap update so concurrent writers cannot lose updates.
type TicketService struct {
	tickets    repository.TicketRepository
	identities repository.IdentityRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	IdentityRepo repository.IdentityRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		identities: deps.IdentityRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// CreateTicket files a new ticket attributed to the acting identity.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	decision := policy.Authorize(actor, policy.ActionCreateTicket, policy.Resource{OrganizationID: actor.OrganizationID})
	if !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    strings.TrimSpace(input.Category),
		CreatorID:   actor.ID,
		Status:      domain.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTransition("create")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
		},
	})
	return ticket, nil
}

// GetTicket fetches one ticket, enforcing visibility scope.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	res, err := s.ticketResource(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if decision := policy.Authorize(actor, policy.ActionViewTicket, res); !decision.Allowed {
		return nil, apperrors.NewDenied(decision.Reason)
	}
	return ticket, nil
}

// ListTickets returns the tickets visible to the actor: everything for
// provider admins, the organization's tickets for referents, own tickets for
// site personnel and assigned tickets for technicians.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Identity, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	switch actor.Role {
	case domain.RoleProviderAdmin:
	case domain.RoleReferent:
		if actor.OrganizationID == nil {
			return []domain.Ticket{}, nil
		}
		filter.OrganizationID = actor.OrganizationID
	case domain.RoleSitePersonnel:
		creatorID := actor.ID
		filter.CreatorID = &creatorID
	case domain.RoleTechnician:
		techID := actor.ID
		filter.TechnicianID = &techID
	default:
		return nil, apperrors.NewDenied("role has no ticket visibility")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Assign places the ticket with a technician under a contract tier. The
// deadline comes from the fixed tier table; an unrecognized tier leaves it
// undefined rather than zero.
func (s *TicketService) Assign(ctx context.Context, actor *domain.Identity, ticketID, technicianID string, tier domain.ContractTier) (*domain.Ticket, error) {
	technician, err := s.identities.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if technician.Role != domain.RoleTechnician {
		return nil, apperrors.NewValidationError("assignee is not a technician", map[string]any{"technician_id": technicianID})
	}

	ticket, err := s.applyTransition(ctx, actor, ticketID, policy.ActionAssignTicket, func(t *domain.Ticket) lifecycle.Outcome {
		return lifecycle.Assign(t, technician.ID, tier)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("assign")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketAssignedPayload{
			TechnicianID:  technician.ID,
			Tier:          tier,
			DeadlineHours: ticket.DeadlineHours,
		},
	})
	return ticket, nil
}

// UpdateStatus applies a requested status. A request for Closed is diverted
// to PendingClientConfirmation: closure always passes through client
// confirmation, so the creator keeps final authority.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Identity, ticketID string, requested domain.TicketStatus) (*domain.Ticket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.applyTransition(ctx, actor, ticketID, policy.ActionUpdateStatus, func(t *domain.Ticket) lifecycle.Outcome {
		oldStatus = t.Status
		return lifecycle.RequestStatus(t, requested)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("update_status")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return ticket, nil
}

// ConfirmClosure finalizes a ticket awaiting confirmation. Only the creator
// or a provider admin may confirm; an assigned technician is denied.
func (s *TicketService) ConfirmClosure(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	now := time.Now()
	ticket, err := s.applyTransition(ctx, actor, ticketID, policy.ActionConfirmClosure, func(t *domain.Ticket) lifecycle.Outcome {
		return lifecycle.ConfirmClosure(t, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("confirm_closure")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventClosureConfirmed,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.ClosureConfirmedPayload{
			CompletedAt: now,
			SLALabel:    lifecycle.EvaluateSLA(ticket).Label(),
		},
	})
	return ticket, nil
}

// applyTransition runs the load / authorize / transition / CAS-persist cycle.
// A lost compare-and-swap reloads the fresh row and re-runs the whole cycle
// once, so authorization and lifecycle rules are always evaluated against the
// state that actually gets written.
func (s *TicketService) applyTransition(ctx context.Context, actor *domain.Identity, ticketID string, action policy.Action, apply func(*domain.Ticket) lifecycle.Outcome) (*domain.Ticket, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return nil, apperrors.MapError(err)
		}
		res, err := s.ticketResource(ctx, ticket)
		if err != nil {
			return nil, err
		}
		if decision := policy.Authorize(actor, action, res); !decision.Allowed {
			return nil, apperrors.NewDenied(decision.Reason)
		}
		if outcome := apply(ticket); outcome.Kind != lifecycle.OutcomeApplied {
			return nil, apperrors.NewInvalidTransition(outcome.Reason, map[string]any{"ticket_id": ticketID})
		}
		err = s.tickets.Update(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return nil, apperrors.NewConstraintViolation("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
}

func (s *TicketService) ticketResource(ctx context.Context, ticket *domain.Ticket) (policy.Resource, error) {
	creator, err := s.identities.GetByID(ctx, ticket.CreatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// creator gone; only provider admins retain access
			return policy.Resource{CreatorID: ticket.CreatorID, TechnicianID: ticket.TechnicianID}, nil
		}
		return policy.Resource{}, apperrors.MapError(err)
	}
	return policy.Resource{
		OrganizationID: creator.OrganizationID,
		CreatorID:      ticket.CreatorID,
		TechnicianID:   ticket.TechnicianID,
	}, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(identity *domain.Identity) events.Actor {
	return events.Actor{IdentityID: identity.ID, Role: identity.Role}
}
