package dto

import "time"

// CreateEquipmentRequest registers a hardware asset.
type CreateEquipmentRequest struct {
	Label          string  `json:"label"`
	Category       string  `json:"category"`
	SerialNumber   string  `json:"serial_number"`
	OrganizationID *string `json:"organization_id"`
}

// EquipmentResponse is the inventory view of an asset.
type EquipmentResponse struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	Category       string    `json:"category"`
	SerialNumber   string    `json:"serial_number"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
