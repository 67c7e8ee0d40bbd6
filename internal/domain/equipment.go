package domain

import "time"

// Equipment is one tracked hardware asset. Assets may be tied to the
// organization they are deployed at; provider-side stock carries no
// organization.
type Equipment struct {
	ID             string
	Label          string
	Category       string
	SerialNumber   string
	OrganizationID *string
	CreatedAt      time.Time
}
