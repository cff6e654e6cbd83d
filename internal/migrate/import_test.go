package migrate_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/analyticsctl/internal/migrate"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// fakeWriter records the order of relational upserts and can simulate
// already-present rows and per-row failures.
type fakeWriter struct {
	order    []string
	users    []types.User
	existing map[string]bool
	failIDs  map[string]bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		existing: map[string]bool{},
		failIDs:  map[string]bool{},
	}
}

func (f *fakeWriter) upsert(kind, id string) (bool, error) {
	if f.failIDs[id] {
		return false, assert.AnError
	}
	f.order = append(f.order, kind)
	if f.existing[id] {
		return false, nil
	}
	return true, nil
}

func (f *fakeWriter) UpsertOrganization(ctx context.Context, org *types.Organization) (bool, error) {
	return f.upsert("organization", org.ID)
}

func (f *fakeWriter) UpsertUser(ctx context.Context, user *types.User) (bool, error) {
	f.users = append(f.users, *user)
	return f.upsert("user", user.ID)
}

func (f *fakeWriter) UpsertSite(ctx context.Context, site *types.Site) (bool, error) {
	return f.upsert("site", site.Domain)
}

func (f *fakeWriter) UpsertGoal(ctx context.Context, goal *types.Goal) (bool, error) {
	return f.upsert("goal", strconv.FormatInt(goal.ID, 10))
}

func (f *fakeWriter) UpsertFunnel(ctx context.Context, funnel *types.Funnel) (bool, error) {
	return f.upsert("funnel", strconv.FormatInt(funnel.ID, 10))
}

type fakeInserter struct {
	inserted   map[string]int
	failTables map[string]bool
}

func newFakeInserter() *fakeInserter {
	return &fakeInserter{
		inserted:   map[string]int{},
		failTables: map[string]bool{},
	}
}

func (f *fakeInserter) insert(table string, n int) error {
	if f.failTables[table] {
		return assert.AnError
	}
	f.inserted[table] += n
	return nil
}

func (f *fakeInserter) InsertEvents(ctx context.Context, rows []types.Event) error {
	return f.insert("events", len(rows))
}

func (f *fakeInserter) InsertMonitorEvents(ctx context.Context, rows []types.MonitorEvent) error {
	return f.insert("monitor_events", len(rows))
}

func (f *fakeInserter) InsertSessionReplayEvents(ctx context.Context, rows []types.SessionReplayEvent) error {
	return f.insert("session_replay_events", len(rows))
}

func (f *fakeInserter) InsertSessionReplayMetadata(ctx context.Context, rows []types.SessionReplayMetadata) error {
	return f.insert("session_replay_metadata", len(rows))
}

func sampleSnapshot() *migrate.Snapshot {
	return &migrate.Snapshot{
		Version: migrate.SnapshotVersion,
		Data: migrate.SnapshotData{
			Postgres: &migrate.RelationalDump{
				Organizations: []types.Organization{{ID: "org_1"}},
				Users:         []migrate.UserRow{{ID: "usr_1", PasswordHash: "$2a$12$hash"}},
				Sites:         []types.Site{{ID: 1, Domain: "example.com"}},
				Goals:         []types.Goal{{ID: 10}, {ID: 11}},
				Funnels:       []types.Funnel{{ID: 20}},
			},
			Clickhouse: &migrate.ColumnarDump{
				Events:        []types.Event{{SiteID: 1}, {SiteID: 1}, {SiteID: 1}},
				MonitorEvents: &[]types.MonitorEvent{{MonitorID: 7}},
			},
		},
	}
}

func TestImporter_ImportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a nil snapshot", func(t *testing.T) {
		importer := migrate.NewImporter(newFakeWriter(), newFakeInserter())

		_, err := importer.ImportAll(ctx, nil)
		assert.ErrorIs(t, err, migrate.ErrInvalidSnapshot)
	})

	t.Run("rejects a snapshot missing a store", func(t *testing.T) {
		importer := migrate.NewImporter(newFakeWriter(), newFakeInserter())

		snap := sampleSnapshot()
		snap.Data.Clickhouse = nil

		_, err := importer.ImportAll(ctx, snap)
		assert.ErrorIs(t, err, migrate.ErrInvalidSnapshot)
	})

	t.Run("rejects a newer format version", func(t *testing.T) {
		importer := migrate.NewImporter(newFakeWriter(), newFakeInserter())

		snap := sampleSnapshot()
		snap.Version = migrate.SnapshotVersion + 1

		_, err := importer.ImportAll(ctx, snap)
		assert.ErrorIs(t, err, migrate.ErrUnsupportedVersion)
	})

	t.Run("imports all rows and tallies per store", func(t *testing.T) {
		writer := newFakeWriter()
		inserter := newFakeInserter()
		importer := migrate.NewImporter(writer, inserter)

		res, err := importer.ImportAll(ctx, sampleSnapshot())
		require.NoError(t, err)

		assert.Equal(t, 6, res.Postgres.Imported)
		assert.Equal(t, 0, res.Postgres.Errors)
		assert.Equal(t, 4, res.Clickhouse.Imported)
		assert.Equal(t, 0, res.Clickhouse.Errors)
	})

	t.Run("user rows keep their password hash", func(t *testing.T) {
		writer := newFakeWriter()
		importer := migrate.NewImporter(writer, newFakeInserter())

		_, err := importer.ImportAll(ctx, sampleSnapshot())
		require.NoError(t, err)

		require.Len(t, writer.users, 1)
		assert.Equal(t, "$2a$12$hash", writer.users[0].PasswordHash)
	})

	t.Run("writes relational tables in dependency order", func(t *testing.T) {
		writer := newFakeWriter()
		importer := migrate.NewImporter(writer, newFakeInserter())

		_, err := importer.ImportAll(ctx, sampleSnapshot())
		require.NoError(t, err)

		expected := []string{"organization", "user", "site", "goal", "goal", "funnel"}
		assert.Equal(t, expected, writer.order)
	})

	t.Run("replaying a snapshot imports nothing and errors nothing", func(t *testing.T) {
		writer := newFakeWriter()
		for _, id := range []string{"org_1", "usr_1", "example.com"} {
			writer.existing[id] = true
		}
		importer := migrate.NewImporter(writer, newFakeInserter())

		snap := sampleSnapshot()
		snap.Data.Postgres.Goals = nil
		snap.Data.Postgres.Funnels = nil
		snap.Data.Clickhouse.Events = nil
		snap.Data.Clickhouse.MonitorEvents = nil

		res, err := importer.ImportAll(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Postgres.Imported)
		assert.Equal(t, 0, res.Postgres.Errors)
	})

	t.Run("a failed row is counted and later rows still run", func(t *testing.T) {
		writer := newFakeWriter()
		writer.failIDs["usr_1"] = true
		importer := migrate.NewImporter(writer, newFakeInserter())

		res, err := importer.ImportAll(ctx, sampleSnapshot())
		require.NoError(t, err)

		assert.Equal(t, 5, res.Postgres.Imported)
		assert.Equal(t, 1, res.Postgres.Errors)
		// goals and funnels were still written after the user failure
		assert.Contains(t, writer.order, "goal")
		assert.Contains(t, writer.order, "funnel")
	})

	t.Run("a failed event table counts all its rows, later tables run", func(t *testing.T) {
		inserter := newFakeInserter()
		inserter.failTables["events"] = true
		importer := migrate.NewImporter(newFakeWriter(), inserter)

		res, err := importer.ImportAll(ctx, sampleSnapshot())
		require.NoError(t, err)

		assert.Equal(t, 3, res.Clickhouse.Errors)
		assert.Equal(t, 1, res.Clickhouse.Imported)
		assert.Equal(t, 1, inserter.inserted["monitor_events"])
	})

	t.Run("absent optional tables are skipped", func(t *testing.T) {
		inserter := newFakeInserter()
		importer := migrate.NewImporter(newFakeWriter(), inserter)

		snap := sampleSnapshot()
		snap.Data.Clickhouse.MonitorEvents = nil

		res, err := importer.ImportAll(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Clickhouse.Imported)
		assert.NotContains(t, inserter.inserted, "monitor_events")
	})
}
