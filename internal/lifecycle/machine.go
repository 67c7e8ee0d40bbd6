package lifecycle

import (
	"fmt"
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// OutcomeKind tags the result of a requested transition.
type OutcomeKind string

const (
	OutcomeApplied OutcomeKind = "APPLIED"
	OutcomeInvalid OutcomeKind = "INVALID"
)

// Outcome is the tagged result of a transition attempt. On OutcomeApplied the
// ticket has been mutated in place; on OutcomeInvalid it is left untouched and
// Reason explains which rule refused the request.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func applied() Outcome {
	return Outcome{Kind: OutcomeApplied}
}

func invalid(format string, args ...any) Outcome {
	return Outcome{Kind: OutcomeInvalid, Reason: fmt.Sprintf(format, args...)}
}

// Assign places a ticket with a technician under a contract tier.
// Allowed from New or InProgress; the ticket ends InProgress either way.
// The deadline is looked up from the fixed tier table; an unrecognized tier
// leaves DeadlineHours nil ("Not defined") rather than zero.
func Assign(t *domain.Ticket, technicianID string, tier domain.ContractTier) Outcome {
	if t.Status != domain.TicketStatusNew && t.Status != domain.TicketStatusInProgress {
		return invalid("cannot assign a ticket in status %q", t.Status)
	}
	t.TechnicianID = &technicianID
	t.Tier = &tier
	if hours, ok := tier.DeadlineHours(); ok {
		t.DeadlineHours = &hours
	} else {
		t.DeadlineHours = nil
	}
	t.Status = domain.TicketStatusInProgress
	return applied()
}

// RequestStatus applies a status requested by a technician or administrator.
// A request for Closed never closes directly: closure must pass through
// client confirmation, so the ticket is diverted to
// PendingClientConfirmation and only ConfirmClosure completes it. Any other
// recognized status is a reopen.
func RequestStatus(t *domain.Ticket, requested domain.TicketStatus) Outcome {
	if !requested.IsValid() {
		return invalid("unknown status %q", requested)
	}
	if requested == domain.TicketStatusClosed {
		// A Closed ticket can land here too; the divert must drop its old
		// completion timestamp so only ConfirmClosure ever sets one.
		t.Status = domain.TicketStatusPending
		t.CompletedAt = nil
		return applied()
	}
	return Reopen(t, requested)
}

// Reopen moves the ticket to any non-Closed status and clears the completion
// timestamp, so a ticket brought back into work never looks finished. The
// assigned technician is kept.
func Reopen(t *domain.Ticket, to domain.TicketStatus) Outcome {
	if !to.IsValid() || to == domain.TicketStatusClosed {
		return invalid("cannot reopen to status %q", to)
	}
	t.Status = to
	t.CompletedAt = nil
	return applied()
}

// ConfirmClosure finalizes a ticket awaiting client confirmation. It is the
// only transition that sets the completion timestamp.
func ConfirmClosure(t *domain.Ticket, now time.Time) Outcome {
	if t.Status != domain.TicketStatusPending {
		return invalid("closure can only be confirmed from %q, ticket is %q", domain.TicketStatusPending, t.Status)
	}
	t.Status = domain.TicketStatusClosed
	t.CompletedAt = &now
	return applied()
}
