// Package admission gates the creation of import jobs against per-site and
// per-organization concurrency caps.
package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsanders-rh/analyticsctl/internal/store"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// DefaultSiteCap is the concurrency cap applied to every site
const DefaultSiteCap = 1

// SiteSource resolves sites to their owning organization
type SiteSource interface {
	GetByID(ctx context.Context, id int64) (*types.Site, error)
}

// OrganizationSource resolves organizations
type OrganizationSource interface {
	GetByID(ctx context.Context, id string) (*types.Organization, error)
}

// PlanSource resolves plan tiers
type PlanSource interface {
	GetOrDefault(tier string) types.Plan
}

// ImportStore counts and creates import jobs. CreateRunning must perform
// its counts and insert atomically, returning store.ErrConcurrencyLimit
// when the site cap is taken and store.ErrOrgConcurrencyLimit when the
// organization cap is.
type ImportStore interface {
	CountRunning(ctx context.Context, siteID int64) (int, error)
	CountRunningByOrganization(ctx context.Context, orgID string) (int, error)
	CreateRunning(ctx context.Context, job *types.ImportJob, siteCap, orgCap int) error
}

// Limiter decides whether a new import may start
type Limiter struct {
	sites   SiteSource
	orgs    OrganizationSource
	plans   PlanSource
	imports ImportStore
}

// NewLimiter creates a new import limiter
func NewLimiter(sites SiteSource, orgs OrganizationSource, plans PlanSource, imports ImportStore) *Limiter {
	return &Limiter{
		sites:   sites,
		orgs:    orgs,
		plans:   plans,
		imports: imports,
	}
}

// Decision is the outcome of a concurrency limit check
type Decision struct {
	Allowed        bool
	Reason         string
	OrganizationID string
}

// CreateResult is the outcome of an atomic import creation
type CreateResult struct {
	Success  bool
	ImportID string
	Reason   string
}

// CheckConcurrentImportLimit resolves the site's owning organization and
// reports whether a new import would fit under the site and plan caps.
// This check is advisory: the authoritative slot reservation happens in
// CreateImportWithConcurrencyCheck.
func (l *Limiter) CheckConcurrentImportLimit(ctx context.Context, siteID int64) (*Decision, error) {
	site, err := l.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("resolve site %d: %w", siteID, err)
	}

	org, err := l.orgs.GetByID(ctx, site.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("resolve organization %s: %w", site.OrganizationID, err)
	}

	running, err := l.imports.CountRunning(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("count running imports: %w", err)
	}
	if running >= DefaultSiteCap {
		return &Decision{
			Reason:         "an import is already in progress for this site",
			OrganizationID: org.ID,
		}, nil
	}

	plan := l.plans.GetOrDefault(org.PlanTier)
	if plan.MaxConcurrentImports > 0 {
		orgRunning, err := l.imports.CountRunningByOrganization(ctx, org.ID)
		if err != nil {
			return nil, fmt.Errorf("count running imports for organization: %w", err)
		}
		if orgRunning >= plan.MaxConcurrentImports {
			return &Decision{
				Reason: fmt.Sprintf("organization has reached its limit of %d concurrent imports",
					plan.MaxConcurrentImports),
				OrganizationID: org.ID,
			}, nil
		}
	}

	return &Decision{Allowed: true, OrganizationID: org.ID}, nil
}

// CreateImportWithConcurrencyCheck atomically reserves a concurrency slot
// and creates a RUNNING import job. The store performs both cap counts and
// the insert in a single transaction, so no matter how many admissions race
// at most DefaultSiteCap jobs can be RUNNING for a site and at most the
// plan's cap for an organization.
func (l *Limiter) CreateImportWithConcurrencyCheck(ctx context.Context, siteID int64, orgID string) (*CreateResult, error) {
	org, err := l.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve organization %s: %w", orgID, err)
	}
	plan := l.plans.GetOrDefault(org.PlanTier)

	job := &types.ImportJob{
		ID:             types.GenerateImportID(),
		SiteID:         siteID,
		OrganizationID: orgID,
		Status:         types.ImportStatusRunning,
	}

	err = l.imports.CreateRunning(ctx, job, DefaultSiteCap, plan.MaxConcurrentImports)
	if errors.Is(err, store.ErrConcurrencyLimit) {
		return &CreateResult{
			Reason: "an import is already in progress for this site",
		}, nil
	}
	if errors.Is(err, store.ErrOrgConcurrencyLimit) {
		return &CreateResult{
			Reason: fmt.Sprintf("organization has reached its limit of %d concurrent imports",
				plan.MaxConcurrentImports),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	return &CreateResult{Success: true, ImportID: job.ID}, nil
}
