package migrate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tsanders-rh/analyticsctl/internal/events"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// RelationalReader reads the relational tables in full
type RelationalReader interface {
	ListOrganizations(ctx context.Context) ([]types.Organization, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	ListSites(ctx context.Context) ([]types.Site, error)
	ListGoals(ctx context.Context) ([]types.Goal, error)
	ListFunnels(ctx context.Context) ([]types.Funnel, error)
}

// ColumnarReader reads the event tables through a row iterator
type ColumnarReader interface {
	Events(ctx context.Context) ([]types.Event, error)
	MonitorEvents(ctx context.Context) ([]types.MonitorEvent, error)
	SessionReplayEvents(ctx context.Context) ([]types.SessionReplayEvent, error)
	SessionReplayMetadata(ctx context.Context) ([]types.SessionReplayMetadata, error)
}

// Exporter produces a full snapshot of both stores
type Exporter struct {
	pg RelationalReader
	ch ColumnarReader
}

// NewExporter creates a new export pipeline
func NewExporter(pg RelationalReader, ch ColumnarReader) *Exporter {
	return &Exporter{pg: pg, ch: ch}
}

// ExportAll reads every relational table and every event table into one
// versioned snapshot. A failure on a required table aborts the export;
// an optional event table that does not exist in this deployment is
// skipped and its key omitted from the snapshot. Any other failure on an
// optional table (connectivity, permissions) aborts, so an outage cannot
// masquerade as an absent table.
func (e *Exporter) ExportAll(ctx context.Context) (*Snapshot, error) {
	rel := &RelationalDump{}

	orgs, err := e.pg.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("export organizations: %w", err)
	}
	rel.Organizations = orgs

	users, err := e.pg.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	rel.Users = userRows(users)

	sites, err := e.pg.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("export sites: %w", err)
	}
	rel.Sites = sites

	goals, err := e.pg.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("export goals: %w", err)
	}
	rel.Goals = goals

	funnels, err := e.pg.ListFunnels(ctx)
	if err != nil {
		return nil, fmt.Errorf("export funnels: %w", err)
	}
	rel.Funnels = funnels

	col := &ColumnarDump{}

	evs, err := e.ch.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	col.Events = evs

	monitor, err := e.ch.MonitorEvents(ctx)
	switch {
	case errors.Is(err, events.ErrTableMissing):
		log.Printf("No monitor events to export")
	case err != nil:
		return nil, fmt.Errorf("export monitor_events: %w", err)
	default:
		col.MonitorEvents = &monitor
	}

	replay, err := e.ch.SessionReplayEvents(ctx)
	switch {
	case errors.Is(err, events.ErrTableMissing):
		log.Printf("No session replay events to export")
	case err != nil:
		return nil, fmt.Errorf("export session_replay_events: %w", err)
	default:
		col.SessionReplayEvents = &replay
	}

	replayMeta, err := e.ch.SessionReplayMetadata(ctx)
	switch {
	case errors.Is(err, events.ErrTableMissing):
		log.Printf("No session replay metadata to export")
	case err != nil:
		return nil, fmt.Errorf("export session_replay_metadata: %w", err)
	default:
		col.SessionReplayMetadata = &replayMeta
	}

	return &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Data: SnapshotData{
			Postgres:   rel,
			Clickhouse: col,
		},
	}, nil
}
