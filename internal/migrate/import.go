package migrate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// ErrInvalidSnapshot is returned when the snapshot envelope is structurally
// invalid; no writes happen in that case.
var ErrInvalidSnapshot = errors.New("invalid export data format")

// ErrUnsupportedVersion is returned when the snapshot was produced by a
// newer export format.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// RelationalWriter upserts relational rows. Each upsert reports whether a
// row was actually inserted; an existing primary key is a no-op, not an
// error.
type RelationalWriter interface {
	UpsertOrganization(ctx context.Context, org *types.Organization) (bool, error)
	UpsertUser(ctx context.Context, user *types.User) (bool, error)
	UpsertSite(ctx context.Context, site *types.Site) (bool, error)
	UpsertGoal(ctx context.Context, goal *types.Goal) (bool, error)
	UpsertFunnel(ctx context.Context, funnel *types.Funnel) (bool, error)
}

// ColumnarWriter bulk-inserts event rows, one call per table
type ColumnarWriter interface {
	InsertEvents(ctx context.Context, rows []types.Event) error
	InsertMonitorEvents(ctx context.Context, rows []types.MonitorEvent) error
	InsertSessionReplayEvents(ctx context.Context, rows []types.SessionReplayEvent) error
	InsertSessionReplayMetadata(ctx context.Context, rows []types.SessionReplayMetadata) error
}

// Importer writes a snapshot into both stores
type Importer struct {
	pg RelationalWriter
	ch ColumnarWriter
}

// NewImporter creates a new import pipeline
func NewImporter(pg RelationalWriter, ch ColumnarWriter) *Importer {
	return &Importer{pg: pg, ch: ch}
}

// ImportAll writes the snapshot into both stores and tallies the outcome.
// Relational tables are processed in dependency order - organizations,
// users, sites, goals, funnels - row by row; a failed row is counted and
// skipped, never fatal. Event tables are submitted as one bulk insert each;
// a failed table counts all of its rows as errors and later tables still
// run. Only a structurally invalid snapshot fails the whole call.
func (i *Importer) ImportAll(ctx context.Context, snap *Snapshot) (*Result, error) {
	if snap == nil || snap.Data.Postgres == nil || snap.Data.Clickhouse == nil {
		return nil, ErrInvalidSnapshot
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}

	res := &Result{}
	pg := snap.Data.Postgres

	importRows(ctx, pg.Organizations, i.pg.UpsertOrganization, "organization", &res.Postgres)
	importRows(ctx, pg.Users, func(ctx context.Context, row *UserRow) (bool, error) {
		user := row.user()
		return i.pg.UpsertUser(ctx, &user)
	}, "user", &res.Postgres)
	importRows(ctx, pg.Sites, i.pg.UpsertSite, "site", &res.Postgres)
	importRows(ctx, pg.Goals, i.pg.UpsertGoal, "goal", &res.Postgres)
	importRows(ctx, pg.Funnels, i.pg.UpsertFunnel, "funnel", &res.Postgres)

	ch := snap.Data.Clickhouse

	importTable(ctx, ch.Events, i.ch.InsertEvents, "events", &res.Clickhouse)
	importTable(ctx, optionalRows(ch.MonitorEvents), i.ch.InsertMonitorEvents, "monitor_events", &res.Clickhouse)
	importTable(ctx, optionalRows(ch.SessionReplayEvents), i.ch.InsertSessionReplayEvents, "session_replay_events", &res.Clickhouse)
	importTable(ctx, optionalRows(ch.SessionReplayMetadata), i.ch.InsertSessionReplayMetadata, "session_replay_metadata", &res.Clickhouse)

	return res, nil
}

// importRows upserts each row independently. Imported counts only actual
// inserts, so replaying a snapshot yields imported=0 errors=0.
func importRows[T any](ctx context.Context, rows []T, upsert func(context.Context, *T) (bool, error), name string, res *StoreResult) {
	for idx := range rows {
		inserted, err := upsert(ctx, &rows[idx])
		if err != nil {
			log.Printf("Error importing %s: %v", name, err)
			res.Errors++
			continue
		}
		if inserted {
			res.Imported++
		}
	}
}

// optionalRows unwraps an optional table dump; an omitted table imports
// nothing
func optionalRows[T any](p *[]T) []T {
	if p == nil {
		return nil
	}
	return *p
}

// importTable submits a table's full row set as one bulk insert
func importTable[T any](ctx context.Context, rows []T, insert func(context.Context, []T) error, table string, res *StoreResult) {
	if len(rows) == 0 {
		return
	}

	if err := insert(ctx, rows); err != nil {
		log.Printf("Error importing %s: %v", table, err)
		res.Errors += len(rows)
		return
	}

	res.Imported += len(rows)
}
