package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// monthLayout is the time layout for YYYYMM month keys
const monthLayout = "200601"

// OldestMonthUnbounded is the sentinel month for tiers with no lookback
// restriction: all history is allowed.
const OldestMonthUnbounded = "unbounded"

// epoch is the earliest allowed date reported for unbounded tiers
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Summary is the derived quota window for an organization
type Summary struct {
	OldestAllowedMonth     string           `json:"oldest_allowed_month"`
	RemainingBudgetByMonth map[string]int64 `json:"remaining_budget_by_month"`
}

// Unbounded reports whether all history is allowed
func (s Summary) Unbounded() bool {
	return s.OldestAllowedMonth == OldestMonthUnbounded
}

// EarliestAllowedDate returns the first calendar day (UTC) of the oldest
// allowed month, or the epoch for unbounded tiers
func (s Summary) EarliestAllowedDate() time.Time {
	if s.Unbounded() {
		return epoch
	}
	t, err := time.Parse(monthLayout, s.OldestAllowedMonth)
	if err != nil {
		return epoch
	}
	return t
}

// OrganizationSource resolves organizations
type OrganizationSource interface {
	GetByID(ctx context.Context, id string) (*types.Organization, error)
}

// SiteSource resolves the sites owned by an organization
type SiteSource interface {
	IDsByOrganization(ctx context.Context, orgID string) ([]int64, error)
}

// UsageSource aggregates per-month event counts
type UsageSource interface {
	MonthlyEventCounts(ctx context.Context, siteIDs []int64) (map[string]int64, error)
}

// Deps bundles the collaborators needed to build a Tracker
type Deps struct {
	Orgs  OrganizationSource
	Sites SiteSource
	Usage UsageSource
	Plans *Registry

	// Now overrides the clock in tests; defaults to time.Now
	Now func() time.Time
}

// Tracker computes the import quota window for one organization.
// All loading happens in NewTracker; Summary is pure over the loaded state
// and returns the same value every call.
type Tracker struct {
	orgID string
	plan  types.Plan
	usage map[string]int64
	now   time.Time
}

// NewTracker loads the organization's plan tier and aggregates its current
// usage. Every lookup error surfaces here, not in Summary.
func (d Deps) NewTracker(ctx context.Context, orgID string) (*Tracker, error) {
	org, err := d.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization %s: %w", orgID, err)
	}

	plan := d.Plans.GetOrDefault(org.PlanTier)

	siteIDs, err := d.Sites.IDsByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load sites for %s: %w", orgID, err)
	}

	usage, err := d.Usage.MonthlyEventCounts(ctx, siteIDs)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage for %s: %w", orgID, err)
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	return &Tracker{
		orgID: orgID,
		plan:  plan,
		usage: usage,
		now:   now().UTC(),
	}, nil
}

// NewStaticTracker builds a tracker from already-loaded state
func NewStaticTracker(orgID string, plan types.Plan, usage map[string]int64, now time.Time) *Tracker {
	return &Tracker{
		orgID: orgID,
		plan:  plan,
		usage: usage,
		now:   now.UTC(),
	}
}

// Plan returns the organization's resolved plan tier
func (t *Tracker) Plan() types.Plan {
	return t.plan
}

// AllowedDateRange returns the earliest and latest allowed import dates,
// both UTC. The latest allowed date is always the current date: only
// historical data may be imported.
func (t *Tracker) AllowedDateRange() (earliest, latest time.Time) {
	return t.Summary().EarliestAllowedDate(), t.now
}

// Summary derives the allowed import window and remaining monthly budget
func (t *Tracker) Summary() Summary {
	oldest := OldestMonthUnbounded
	if !t.plan.Unlimited() {
		first := time.Date(t.now.Year(), t.now.Month()-time.Month(t.plan.LookbackMonths), 1, 0, 0, 0, 0, time.UTC)
		oldest = first.Format(monthLayout)
	}

	budget := map[string]int64{}
	if t.plan.MonthlyEventCap > 0 {
		for month, used := range t.usage {
			if oldest != OldestMonthUnbounded && month < oldest {
				continue
			}
			remaining := t.plan.MonthlyEventCap - used
			if remaining < 0 {
				remaining = 0
			}
			budget[month] = remaining
		}
	}

	return Summary{
		OldestAllowedMonth:     oldest,
		RemainingBudgetByMonth: budget,
	}
}
