package types

import "time"

// Site represents a tracked website
type Site struct {
	ID             int64     `db:"id" json:"id"`
	Domain         string    `db:"domain" json:"domain"`
	Name           string    `db:"name" json:"name"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	Public         bool      `db:"public" json:"public"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
