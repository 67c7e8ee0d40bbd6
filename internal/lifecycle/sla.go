package lifecycle

import (
	"fmt"
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// SLAState classifies a ticket against its contract deadline.
type SLAState string

const (
	SLAOnTime     SLAState = "OnTime"
	SLABreached   SLAState = "Breached"
	SLAPending    SLAState = "Pending"
	SLANotDefined SLAState = "NotDefined"
)

// SLAReport is the derived service-level verdict for one ticket.
type SLAReport struct {
	State SLAState
	// BreachHours is the number of whole hours past the deadline,
	// rounded up. Only meaningful when State is SLABreached.
	BreachHours int
}

// Label renders the verdict for listings and exports.
func (r SLAReport) Label() string {
	switch r.State {
	case SLAOnTime:
		return "on time"
	case SLABreached:
		return fmt.Sprintf("breach +%dh", r.BreachHours)
	case SLAPending:
		return "pending"
	default:
		return "not applicable"
	}
}

// EvaluateSLA derives the SLA verdict for a ticket. Tickets without a defined
// deadline report NotDefined; tickets not yet closed report Pending.
func EvaluateSLA(t *domain.Ticket) SLAReport {
	if t.DeadlineHours == nil {
		return SLAReport{State: SLANotDefined}
	}
	if t.Status != domain.TicketStatusClosed || t.CompletedAt == nil {
		return SLAReport{State: SLAPending}
	}
	elapsed := t.CompletedAt.Sub(t.CreatedAt)
	deadline := time.Duration(*t.DeadlineHours) * time.Hour
	if elapsed <= deadline {
		return SLAReport{State: SLAOnTime}
	}
	over := elapsed - deadline
	hours := int(over / time.Hour)
	if over%time.Hour != 0 {
		hours++
	}
	return SLAReport{State: SLABreached, BreachHours: hours}
}
