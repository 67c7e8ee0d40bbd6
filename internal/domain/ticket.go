package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The literals are part
// of the schema contract and must round-trip exactly through storage and
// reporting.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusPending    TicketStatus = "PendingClientConfirmation"
	TicketStatusClosed     TicketStatus = "Closed"
)

// IsValid reports whether the status belongs to the closed set.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusPending, TicketStatusClosed:
		return true
	}
	return false
}

// ContractTier is the service-level label attached on assignment.
type ContractTier string

const (
	TierGold   ContractTier = "Gold"
	TierSilver ContractTier = "Silver"
	TierBronze ContractTier = "Bronze"
)

// tierDeadlines is the fixed contract table mapping tier to resolution
// deadline in hours.
var tierDeadlines = map[ContractTier]int{
	TierGold:   4,
	TierSilver: 24,
	TierBronze: 72,
}

// DeadlineHours returns the SLA deadline for the tier. An unrecognized tier
// yields ok=false, never a zero deadline.
func (t ContractTier) DeadlineHours() (int, bool) {
	hours, ok := tierDeadlines[t]
	return hours, ok
}

// Ticket is the aggregate for support requests.
//
// Invariants: CompletedAt is set if and only if Status is Closed, and
// DeadlineHours is nil whenever no recognized tier has been assigned.
// Version is a monotonic counter used for compare-and-swap updates so two
// racing transitions cannot silently overwrite each other.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Category      string
	CreatorID     string
	TechnicianID  *string
	Status        TicketStatus
	Tier          *ContractTier
	DeadlineHours *int
	CreatedAt     time.Time
	CompletedAt   *time.Time
	Version       int64
}
