package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// Columnar table names
const (
	TableEvents                = "events"
	TableMonitorEvents         = "monitor_events"
	TableSessionReplayEvents   = "session_replay_events"
	TableSessionReplayMetadata = "session_replay_metadata"
)

// ErrTableMissing is returned when a queried table does not exist in this
// deployment. Callers use it to tell an absent optional table apart from a
// connectivity failure.
var ErrTableMissing = errors.New("table does not exist")

// ClickHouse server error code for UNKNOWN_TABLE
const codeUnknownTable = 60

// Config holds ClickHouse connection configuration
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig(addr string) *Config {
	return &Config{
		Addr:     addr,
		Database: "analytics",
		Username: "default",
	}
}

// Client wraps the ClickHouse connection for event table operations
type Client struct {
	conn driver.Conn
}

// Open connects to ClickHouse and verifies the connection
func Open(ctx context.Context, cfg *Config) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection (used by tests)
func NewClient(conn driver.Conn) *Client {
	return &Client{conn: conn}
}

// Ping verifies the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Events reads the full events table through the driver's row iterator
func (c *Client) Events(ctx context.Context) ([]types.Event, error) {
	return selectAll[types.Event](ctx, c.conn, TableEvents)
}

// MonitorEvents reads the full monitor_events table
func (c *Client) MonitorEvents(ctx context.Context) ([]types.MonitorEvent, error) {
	return selectAll[types.MonitorEvent](ctx, c.conn, TableMonitorEvents)
}

// SessionReplayEvents reads the full session_replay_events table
func (c *Client) SessionReplayEvents(ctx context.Context) ([]types.SessionReplayEvent, error) {
	return selectAll[types.SessionReplayEvent](ctx, c.conn, TableSessionReplayEvents)
}

// SessionReplayMetadata reads the full session_replay_metadata table
func (c *Client) SessionReplayMetadata(ctx context.Context) ([]types.SessionReplayMetadata, error) {
	return selectAll[types.SessionReplayMetadata](ctx, c.conn, TableSessionReplayMetadata)
}

// InsertEvents bulk-inserts rows into the events table as one batch
func (c *Client) InsertEvents(ctx context.Context, rows []types.Event) error {
	return insertAll(ctx, c.conn, TableEvents, rows)
}

// InsertMonitorEvents bulk-inserts rows into the monitor_events table
func (c *Client) InsertMonitorEvents(ctx context.Context, rows []types.MonitorEvent) error {
	return insertAll(ctx, c.conn, TableMonitorEvents, rows)
}

// InsertSessionReplayEvents bulk-inserts rows into the session_replay_events table
func (c *Client) InsertSessionReplayEvents(ctx context.Context, rows []types.SessionReplayEvent) error {
	return insertAll(ctx, c.conn, TableSessionReplayEvents, rows)
}

// InsertSessionReplayMetadata bulk-inserts rows into the session_replay_metadata table
func (c *Client) InsertSessionReplayMetadata(ctx context.Context, rows []types.SessionReplayMetadata) error {
	return insertAll(ctx, c.conn, TableSessionReplayMetadata, rows)
}

// MonthlyEventCounts aggregates event counts per YYYYMM month across the
// given sites, feeding the quota tracker's usage map
func (c *Client) MonthlyEventCounts(ctx context.Context, siteIDs []int64) (map[string]int64, error) {
	counts := map[string]int64{}
	if len(siteIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT toYYYYMM(timestamp) AS month, count() AS events
		FROM events
		WHERE site_id IN (?)
		GROUP BY month
	`

	rows, err := c.conn.Query(ctx, query, siteIDs)
	if err != nil {
		return nil, tableErr(TableEvents, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month uint32
			n     uint64
		)
		if err := rows.Scan(&month, &n); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		counts[fmt.Sprintf("%06d", month)] = int64(n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly counts: %w", err)
	}

	return counts, nil
}

// selectAll reads every row of a table, scanning by column name
func selectAll[T any](ctx context.Context, conn driver.Conn, table string) ([]T, error) {
	rows, err := conn.Query(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, tableErr(table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var row T
		if err := rows.ScanStruct(&row); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, tableErr(table, err)
	}

	return out, nil
}

// insertAll submits all rows for a table as a single batch
func insertAll[T any](ctx context.Context, conn driver.Conn, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", table))
	if err != nil {
		return tableErr(table, err)
	}

	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	if err := batch.Send(); err != nil {
		return tableErr(table, err)
	}

	return nil
}

// tableErr maps the server's UNKNOWN_TABLE exception onto ErrTableMissing
// and wraps everything else with the table name
func tableErr(table string, err error) error {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) && ex.Code == codeUnknownTable {
		return fmt.Errorf("%s: %w", table, ErrTableMissing)
	}
	return fmt.Errorf("%s: %w", table, err)
}
