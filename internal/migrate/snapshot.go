// Package migrate moves the platform's full dataset between deployments as
// a versioned snapshot spanning both the relational and the columnar store.
package migrate

import (
	"time"

	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// SnapshotVersion is the current export format version. ImportAll rejects
// snapshots from a newer format.
const SnapshotVersion = 1

// Snapshot is a versioned dump of both stores. It is not a point-in-time
// consistent view: each table is read independently.
type Snapshot struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	Data       SnapshotData `json:"data"`
}

// SnapshotData holds the per-store table dumps. Both stores must be present
// for a snapshot to be importable.
type SnapshotData struct {
	Postgres   *RelationalDump `json:"postgres"`
	Clickhouse *ColumnarDump   `json:"clickhouse"`
}

// UserRow is the snapshot representation of a user. Unlike the API type it
// serializes the password hash: the target deployment must keep existing
// logins working after a migration.
type UserRow struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	Role         types.UserRole `json:"role"`
	PasswordHash string         `json:"password_hash"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// userRows converts store users to their snapshot representation
func userRows(users []types.User) []UserRow {
	rows := make([]UserRow, len(users))
	for i, u := range users {
		rows[i] = UserRow{
			ID:           u.ID,
			Email:        u.Email,
			Name:         u.Name,
			Role:         u.Role,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		}
	}
	return rows
}

// user converts the snapshot row back to the store type
func (r UserRow) user() types.User {
	return types.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// RelationalDump contains the bounded relational tables, read in full.
// Every key is always present, even when empty.
type RelationalDump struct {
	Users         []UserRow            `json:"users"`
	Sites         []types.Site         `json:"sites"`
	Organizations []types.Organization `json:"organizations"`
	Goals         []types.Goal         `json:"goals"`
	Funnels       []types.Funnel       `json:"funnels"`
}

// ColumnarDump contains the event tables. The events key is always present.
// Optional tables are pointers so an empty-but-present table keeps its key
// (as `[]`) while a table absent from the source deployment omits it.
type ColumnarDump struct {
	Events                []types.Event                  `json:"events"`
	MonitorEvents         *[]types.MonitorEvent          `json:"monitor_events,omitempty"`
	SessionReplayEvents   *[]types.SessionReplayEvent    `json:"session_replay_events,omitempty"`
	SessionReplayMetadata *[]types.SessionReplayMetadata `json:"session_replay_metadata,omitempty"`
}

// StoreResult tallies imported rows and row-level failures for one store
type StoreResult struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// Result is the per-store outcome of an import run. Partial success is the
// ordinary outcome: the tally is returned even when rows or tables failed.
type Result struct {
	Postgres   StoreResult `json:"postgres"`
	Clickhouse StoreResult `json:"clickhouse"`
}
