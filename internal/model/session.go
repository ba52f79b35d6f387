package model

import "time"

// Session is the persisted form of a wizard run. ConnectionString is always
// the masked descriptor; the raw password is never stored.
type Session struct {
	ID               string          `json:"id"`
	Step             string          `json:"step"`
	Driver           string          `json:"driver,omitempty"`
	ConnectionString string          `json:"connectionString,omitempty"`
	Snapshot         *SchemaSnapshot `json:"snapshot,omitempty"`
	Selected         []string        `json:"selected"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
