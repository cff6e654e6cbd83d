package quota_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/analyticsctl/internal/quota"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

func TestTracker_Summary(t *testing.T) {
	now := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)

	t.Run("computes oldest allowed month from lookback", func(t *testing.T) {
		plan := types.Plan{Name: "free", MonthlyEventCap: 100_000, LookbackMonths: 3}
		tracker := quota.NewStaticTracker("org_1", plan, nil, now)

		summary := tracker.Summary()
		assert.Equal(t, "202401", summary.OldestAllowedMonth)
		assert.False(t, summary.Unbounded())
		assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), summary.EarliestAllowedDate())
	})

	t.Run("lookback crossing a year boundary", func(t *testing.T) {
		plan := types.Plan{Name: "free", MonthlyEventCap: 100_000, LookbackMonths: 6}
		tracker := quota.NewStaticTracker("org_1", plan, nil, now)

		summary := tracker.Summary()
		assert.Equal(t, "202310", summary.OldestAllowedMonth)
	})

	t.Run("unlimited plan reports unbounded sentinel", func(t *testing.T) {
		plan := types.Plan{Name: "enterprise"}
		tracker := quota.NewStaticTracker("org_1", plan, map[string]int64{"202403": 500}, now)

		summary := tracker.Summary()
		assert.Equal(t, quota.OldestMonthUnbounded, summary.OldestAllowedMonth)
		assert.True(t, summary.Unbounded())
		assert.Equal(t, time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), summary.EarliestAllowedDate())
		// No cap means no budget map entries
		assert.Empty(t, summary.RemainingBudgetByMonth)
	})

	t.Run("remaining budget subtracts usage and clamps at zero", func(t *testing.T) {
		plan := types.Plan{Name: "free", MonthlyEventCap: 1000, LookbackMonths: 3}
		usage := map[string]int64{
			"202403": 400,
			"202404": 1500,
		}
		tracker := quota.NewStaticTracker("org_1", plan, usage, now)

		summary := tracker.Summary()
		assert.Equal(t, int64(600), summary.RemainingBudgetByMonth["202403"])
		assert.Equal(t, int64(0), summary.RemainingBudgetByMonth["202404"])
	})

	t.Run("usage outside the lookback window is dropped", func(t *testing.T) {
		plan := types.Plan{Name: "free", MonthlyEventCap: 1000, LookbackMonths: 3}
		usage := map[string]int64{
			"202312": 999,
			"202402": 100,
		}
		tracker := quota.NewStaticTracker("org_1", plan, usage, now)

		summary := tracker.Summary()
		assert.NotContains(t, summary.RemainingBudgetByMonth, "202312")
		assert.Equal(t, int64(900), summary.RemainingBudgetByMonth["202402"])
	})

	t.Run("summary is stable across calls", func(t *testing.T) {
		plan := types.Plan{Name: "free", MonthlyEventCap: 1000, LookbackMonths: 3}
		tracker := quota.NewStaticTracker("org_1", plan, map[string]int64{"202403": 1}, now)

		first := tracker.Summary()
		second := tracker.Summary()
		assert.Equal(t, first, second)
	})
}

func TestTracker_AllowedDateRange(t *testing.T) {
	now := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)

	t.Run("bounded plan", func(t *testing.T) {
		plan := types.Plan{Name: "free", LookbackMonths: 3}
		tracker := quota.NewStaticTracker("org_1", plan, nil, now)

		earliest, latest := tracker.AllowedDateRange()
		assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), earliest)
		assert.Equal(t, now, latest)
	})

	t.Run("unbounded plan starts at the epoch", func(t *testing.T) {
		plan := types.Plan{Name: "enterprise"}
		tracker := quota.NewStaticTracker("org_1", plan, nil, now)

		earliest, latest := tracker.AllowedDateRange()
		assert.Equal(t, time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), earliest)
		assert.Equal(t, now, latest)
	})
}

type stubOrgs struct {
	org *types.Organization
	err error
}

func (s *stubOrgs) GetByID(ctx context.Context, id string) (*types.Organization, error) {
	return s.org, s.err
}

type stubSites struct {
	ids []int64
	err error
}

func (s *stubSites) IDsByOrganization(ctx context.Context, orgID string) ([]int64, error) {
	return s.ids, s.err
}

type stubUsage struct {
	counts map[string]int64
	err    error
	got    []int64
}

func (s *stubUsage) MonthlyEventCounts(ctx context.Context, siteIDs []int64) (map[string]int64, error) {
	s.got = siteIDs
	return s.counts, s.err
}

func TestDeps_NewTracker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)

	t.Run("loads plan and usage for the organization", func(t *testing.T) {
		usage := &stubUsage{counts: map[string]int64{"202403": 42}}
		deps := quota.Deps{
			Orgs:  &stubOrgs{org: &types.Organization{ID: "org_1", PlanTier: "free"}},
			Sites: &stubSites{ids: []int64{1, 2}},
			Usage: usage,
			Plans: quota.NewRegistry(),
			Now:   func() time.Time { return now },
		}

		tracker, err := deps.NewTracker(ctx, "org_1")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, usage.got)
		assert.Equal(t, "free", tracker.Plan().Name)
		assert.Equal(t, int64(100_000-42), tracker.Summary().RemainingBudgetByMonth["202403"])
	})

	t.Run("unknown tier falls back to the default plan", func(t *testing.T) {
		deps := quota.Deps{
			Orgs:  &stubOrgs{org: &types.Organization{ID: "org_1", PlanTier: "bespoke"}},
			Sites: &stubSites{},
			Usage: &stubUsage{counts: map[string]int64{}},
			Plans: quota.NewRegistry(),
			Now:   func() time.Time { return now },
		}

		tracker, err := deps.NewTracker(ctx, "org_1")
		require.NoError(t, err)
		assert.Equal(t, quota.DefaultPlanTier, tracker.Plan().Name)
	})

	t.Run("usage source failure surfaces at construction", func(t *testing.T) {
		deps := quota.Deps{
			Orgs:  &stubOrgs{org: &types.Organization{ID: "org_1", PlanTier: "free"}},
			Sites: &stubSites{ids: []int64{1}},
			Usage: &stubUsage{err: assert.AnError},
			Plans: quota.NewRegistry(),
		}

		_, err := deps.NewTracker(ctx, "org_1")
		require.Error(t, err)
	})
}
