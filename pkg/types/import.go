package types

import "time"

// ImportStatus represents the current state of an import job
type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "RUNNING"
	ImportStatusCompleted ImportStatus = "COMPLETED"
	ImportStatusFailed    ImportStatus = "FAILED"
)

// ImportJob represents a historical data import for a site.
// A job counts against the site's concurrency cap only while RUNNING;
// terminal states are set by the data-loading worker (or the janitor
// when a worker dies mid-run).
type ImportJob struct {
	ID             string       `db:"id" json:"id"`
	SiteID         int64        `db:"site_id" json:"site_id"`
	OrganizationID string       `db:"organization_id" json:"organization_id"`
	Status         ImportStatus `db:"status" json:"status"`
	ErrorMessage   *string      `db:"error_message" json:"error_message"`
	StartedAt      time.Time    `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time   `db:"completed_at" json:"completed_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}
