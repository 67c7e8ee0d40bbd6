package domain

import "time"

// Organization represents a municipality served under contract.
// The (Name, City) pair is unique and an organization cannot be removed
// while any identity still references it.
type Organization struct {
	ID        string
	Name      string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
