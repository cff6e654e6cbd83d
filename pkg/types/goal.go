package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// GoalType distinguishes path-match goals from custom-event goals
type GoalType string

const (
	GoalTypePath  GoalType = "path"
	GoalTypeEvent GoalType = "event"
)

// GoalConfig is the type-specific goal configuration stored as JSON
type GoalConfig map[string]interface{}

// Value implements driver.Valuer for database serialization
func (g GoalConfig) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	return json.Marshal(g)
}

// Scan implements sql.Scanner for database deserialization
func (g *GoalConfig) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, g)
}

// Goal represents a conversion goal configured for a site
type Goal struct {
	ID        int64      `db:"id" json:"id"`
	SiteID    int64      `db:"site_id" json:"site_id"`
	Name      string     `db:"name" json:"name"`
	GoalType  GoalType   `db:"goal_type" json:"goal_type"`
	Config    GoalConfig `db:"config" json:"config"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
