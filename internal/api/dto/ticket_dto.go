package dto

import (
	"time"

	"github.com/civiops/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TechnicianID string `json:"technician_id"`
	Tier         string `json:"tier"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse provides full ticket info with the derived SLA verdict.
type TicketResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	CreatorID     string               `json:"creator_id"`
	TechnicianID  *string              `json:"technician_id,omitempty"`
	Status        domain.TicketStatus  `json:"status"`
	Tier          *domain.ContractTier `json:"tier,omitempty"`
	DeadlineHours *int                 `json:"deadline_hours,omitempty"`
	Deadline      string               `json:"deadline"`
	SLA           string               `json:"sla"`
	CreatedAt     time.Time            `json:"created_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}
