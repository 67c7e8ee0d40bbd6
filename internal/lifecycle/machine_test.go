package lifecycle

import (
	"testing"
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

func newTicket(status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:        "t-1",
		Title:     "printer offline",
		CreatorID: "u-1",
		Status:    status,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAssignFromAllowedStates(t *testing.T) {
	cases := []struct {
		from  domain.TicketStatus
		valid bool
	}{
		{domain.TicketStatusNew, true},
		{domain.TicketStatusInProgress, true},
		{domain.TicketStatusPending, false},
		{domain.TicketStatusClosed, false},
	}

	for _, tt := range cases {
		ticket := newTicket(tt.from)
		outcome := Assign(ticket, "tech-1", domain.TierGold)
		if (outcome.Kind == OutcomeApplied) != tt.valid {
			t.Fatalf("Assign from %q: got %v (%s), want valid=%v", tt.from, outcome.Kind, outcome.Reason, tt.valid)
		}
		if tt.valid && ticket.Status != domain.TicketStatusInProgress {
			t.Fatalf("Assign from %q: status = %q, want InProgress", tt.from, ticket.Status)
		}
	}
}

func TestAssignDeadlineFromTierTable(t *testing.T) {
	cases := []struct {
		tier    domain.ContractTier
		hours   int
		defined bool
	}{
		{domain.TierGold, 4, true},
		{domain.TierSilver, 24, true},
		{domain.TierBronze, 72, true},
		{domain.ContractTier("Platinum"), 0, false},
		{domain.ContractTier(""), 0, false},
	}

	for _, tt := range cases {
		ticket := newTicket(domain.TicketStatusNew)
		outcome := Assign(ticket, "tech-1", tt.tier)
		if outcome.Kind != OutcomeApplied {
			t.Fatalf("Assign tier %q: unexpected outcome %v", tt.tier, outcome.Kind)
		}
		if tt.defined {
			if ticket.DeadlineHours == nil || *ticket.DeadlineHours != tt.hours {
				t.Fatalf("Assign tier %q: deadline = %v, want %d", tt.tier, ticket.DeadlineHours, tt.hours)
			}
		} else if ticket.DeadlineHours != nil {
			// unknown tier must leave the deadline undefined, never zero
			t.Fatalf("Assign tier %q: deadline = %d, want undefined", tt.tier, *ticket.DeadlineHours)
		}
	}
}

func TestRequestStatusClosedDivertsToPending(t *testing.T) {
	ticket := newTicket(domain.TicketStatusInProgress)
	outcome := RequestStatus(ticket, domain.TicketStatusClosed)
	if outcome.Kind != OutcomeApplied {
		t.Fatalf("unexpected outcome: %v (%s)", outcome.Kind, outcome.Reason)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("status = %q, want PendingClientConfirmation", ticket.Status)
	}
	if ticket.CompletedAt != nil {
		t.Fatal("diverted closure must not set the completion timestamp")
	}
}

func TestRequestStatusClosedOnClosedTicketClearsCompletion(t *testing.T) {
	completed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := newTicket(domain.TicketStatusClosed)
	ticket.CompletedAt = &completed

	outcome := RequestStatus(ticket, domain.TicketStatusClosed)
	if outcome.Kind != OutcomeApplied {
		t.Fatalf("unexpected outcome: %v (%s)", outcome.Kind, outcome.Reason)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("status = %q, want PendingClientConfirmation", ticket.Status)
	}
	if ticket.CompletedAt != nil {
		t.Fatal("divert from Closed must drop the stale completion timestamp")
	}
}

func TestRequestStatusUnknownRejected(t *testing.T) {
	ticket := newTicket(domain.TicketStatusNew)
	outcome := RequestStatus(ticket, domain.TicketStatus("Archived"))
	if outcome.Kind != OutcomeInvalid {
		t.Fatalf("unknown status accepted: %v", outcome.Kind)
	}
	if ticket.Status != domain.TicketStatusNew {
		t.Fatalf("ticket mutated on invalid request: %q", ticket.Status)
	}
}

func TestReopenClearsCompletion(t *testing.T) {
	completed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := newTicket(domain.TicketStatusPending)
	ticket.CompletedAt = &completed

	outcome := Reopen(ticket, domain.TicketStatusInProgress)
	if outcome.Kind != OutcomeApplied {
		t.Fatalf("unexpected outcome: %v (%s)", outcome.Kind, outcome.Reason)
	}
	if ticket.CompletedAt != nil {
		t.Fatal("reopen must clear the completion timestamp")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %q, want InProgress", ticket.Status)
	}
}

func TestReopenToClosedRejected(t *testing.T) {
	ticket := newTicket(domain.TicketStatusInProgress)
	if outcome := Reopen(ticket, domain.TicketStatusClosed); outcome.Kind != OutcomeInvalid {
		t.Fatalf("reopen to Closed accepted: %v", outcome.Kind)
	}
}

func TestConfirmClosure(t *testing.T) {
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)

	ticket := newTicket(domain.TicketStatusPending)
	outcome := ConfirmClosure(ticket, now)
	if outcome.Kind != OutcomeApplied {
		t.Fatalf("unexpected outcome: %v (%s)", outcome.Kind, outcome.Reason)
	}
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %q, want Closed", ticket.Status)
	}
	if ticket.CompletedAt == nil || !ticket.CompletedAt.Equal(now) {
		t.Fatalf("completion timestamp = %v, want %v", ticket.CompletedAt, now)
	}

	for _, from := range []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusInProgress,
		domain.TicketStatusClosed,
	} {
		ticket := newTicket(from)
		outcome := ConfirmClosure(ticket, now)
		if outcome.Kind != OutcomeInvalid {
			t.Fatalf("ConfirmClosure from %q: got %v, want invalid", from, outcome.Kind)
		}
		if ticket.Status != from {
			t.Fatalf("ConfirmClosure from %q mutated ticket to %q", from, ticket.Status)
		}
		if ticket.CompletedAt != nil {
			t.Fatalf("ConfirmClosure from %q set completion timestamp", from)
		}
	}
}

func TestCompletionTimestampInvariant(t *testing.T) {
	// completion set iff Closed, across a full lifecycle
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	ticket := newTicket(domain.TicketStatusNew)

	steps := []func() Outcome{
		func() Outcome { return Assign(ticket, "tech-1", domain.TierSilver) },
		func() Outcome { return RequestStatus(ticket, domain.TicketStatusClosed) },
		func() Outcome { return ConfirmClosure(ticket, now) },
		// a "Closed" request against an already-Closed ticket
		func() Outcome { return RequestStatus(ticket, domain.TicketStatusClosed) },
		func() Outcome { return ConfirmClosure(ticket, now) },
		func() Outcome { return Reopen(ticket, domain.TicketStatusInProgress) },
	}
	for i, step := range steps {
		if outcome := step(); outcome.Kind != OutcomeApplied {
			t.Fatalf("step %d: %v (%s)", i, outcome.Kind, outcome.Reason)
		}
		hasCompletion := ticket.CompletedAt != nil
		isClosed := ticket.Status == domain.TicketStatusClosed
		if hasCompletion != isClosed {
			t.Fatalf("step %d: completion=%v but status=%q", i, hasCompletion, ticket.Status)
		}
	}
}
