package types

import "time"

// Event is a row in the ClickHouse events table
type Event struct {
	SiteID          int64     `ch:"site_id" json:"site_id"`
	Timestamp       time.Time `ch:"timestamp" json:"timestamp"`
	SessionID       string    `ch:"session_id" json:"session_id"`
	UserID          string    `ch:"user_id" json:"user_id"`
	Hostname        string    `ch:"hostname" json:"hostname"`
	Pathname        string    `ch:"pathname" json:"pathname"`
	Querystring     string    `ch:"querystring" json:"querystring"`
	Referrer        string    `ch:"referrer" json:"referrer"`
	Browser         string    `ch:"browser" json:"browser"`
	OperatingSystem string    `ch:"operating_system" json:"operating_system"`
	DeviceType      string    `ch:"device_type" json:"device_type"`
	Country         string    `ch:"country" json:"country"`
	Type            string    `ch:"type" json:"type"` // "pageview" or "custom_event"
	EventName       string    `ch:"event_name" json:"event_name"`
	Properties      string    `ch:"properties" json:"properties"`
}

// MonitorEvent is a row in the ClickHouse monitor_events table
type MonitorEvent struct {
	MonitorID      int64     `ch:"monitor_id" json:"monitor_id"`
	Timestamp      time.Time `ch:"timestamp" json:"timestamp"`
	Region         string    `ch:"region" json:"region"`
	Status         string    `ch:"status" json:"status"`
	StatusCode     int64     `ch:"status_code" json:"status_code"`
	ResponseTimeMs float64   `ch:"response_time_ms" json:"response_time_ms"`
	ErrorMessage   string    `ch:"error_message" json:"error_message"`
}

// SessionReplayEvent is a row in the ClickHouse session_replay_events table
type SessionReplayEvent struct {
	SiteID    int64     `ch:"site_id" json:"site_id"`
	SessionID string    `ch:"session_id" json:"session_id"`
	Timestamp time.Time `ch:"timestamp" json:"timestamp"`
	EventType string    `ch:"event_type" json:"event_type"`
	EventData string    `ch:"event_data" json:"event_data"`
}

// SessionReplayMetadata is a row in the ClickHouse session_replay_metadata table
type SessionReplayMetadata struct {
	SiteID     int64     `ch:"site_id" json:"site_id"`
	SessionID  string    `ch:"session_id" json:"session_id"`
	StartedAt  time.Time `ch:"started_at" json:"started_at"`
	EndedAt    time.Time `ch:"ended_at" json:"ended_at"`
	DurationMs int64     `ch:"duration_ms" json:"duration_ms"`
	PageCount  int64     `ch:"page_count" json:"page_count"`
	Country    string    `ch:"country" json:"country"`
	Browser    string    `ch:"browser" json:"browser"`
}
