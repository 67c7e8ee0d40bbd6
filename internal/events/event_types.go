package events

import (
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketAssigned    EventType = "ticket_assigned"
	EventStatusChanged     EventType = "ticket_status_changed"
	EventClosureConfirmed  EventType = "ticket_closure_confirmed"
	EventTicketsPurged     EventType = "tickets_purged"
	EventRecoveryRequested EventType = "recovery_requested"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	IdentityID string      `json:"identity_id"`
	Role       domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID  string              `json:"technician_id"`
	Tier          domain.ContractTier `json:"tier"`
	DeadlineHours *int                `json:"deadline_hours,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// ClosureConfirmedPayload payload.
type ClosureConfirmedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	SLALabel    string    `json:"sla_label"`
}

// TicketsPurgedPayload payload.
type TicketsPurgedPayload struct {
	Purged int64     `json:"purged"`
	Cutoff time.Time `json:"cutoff"`
}

// RecoveryRequestedPayload payload. The code itself is only delivered via the
// simulated email channel, never broadcast.
type RecoveryRequestedPayload struct {
	Email string `json:"email"`
}
