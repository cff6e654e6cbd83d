package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// FunnelStep is a single step in a funnel definition
type FunnelStep struct {
	Type  string `json:"type"` // "page" or "event"
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// FunnelSteps is the ordered step list stored as a JSON column
type FunnelSteps []FunnelStep

// Value implements driver.Valuer for database serialization
func (s FunnelSteps) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for database deserialization
func (s *FunnelSteps) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// Funnel represents a multi-step conversion funnel for a site
type Funnel struct {
	ID        int64       `db:"id" json:"id"`
	SiteID    int64       `db:"site_id" json:"site_id"`
	Name      string      `db:"name" json:"name"`
	Steps     FunnelSteps `db:"steps" json:"steps"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
