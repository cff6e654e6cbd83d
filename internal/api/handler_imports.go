package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tsanders-rh/analyticsctl/internal/admission"
	"github.com/tsanders-rh/analyticsctl/internal/auth"
	"github.com/tsanders-rh/analyticsctl/internal/quota"
	"github.com/tsanders-rh/analyticsctl/internal/store"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// AccessChecker reports whether a user has admin access to a site
type AccessChecker interface {
	SiteAdmin(ctx context.Context, userID string, siteID int64) (bool, error)
}

// ImportLimiter gates the creation of new import jobs
type ImportLimiter interface {
	CheckConcurrentImportLimit(ctx context.Context, siteID int64) (*admission.Decision, error)
	CreateImportWithConcurrencyCheck(ctx context.Context, siteID int64, orgID string) (*admission.CreateResult, error)
}

// QuotaFactory builds a loaded quota tracker for an organization
type QuotaFactory interface {
	NewTracker(ctx context.Context, orgID string) (*quota.Tracker, error)
}

// ImportLister lists a site's import jobs
type ImportLister interface {
	ListBySite(ctx context.Context, siteID int64) ([]*types.ImportJob, error)
}

// ImportHandler handles import admission API endpoints
type ImportHandler struct {
	access  AccessChecker
	limiter ImportLimiter
	quotas  QuotaFactory
	imports ImportLister
}

// NewImportHandler creates a new import handler
func NewImportHandler(access AccessChecker, limiter ImportLimiter, quotas QuotaFactory, imports ImportLister) *ImportHandler {
	return &ImportHandler{
		access:  access,
		limiter: limiter,
		quotas:  quotas,
		imports: imports,
	}
}

// AllowedDateRange is the historical window an admitted import may cover
type AllowedDateRange struct {
	EarliestAllowedDate string `json:"earliestAllowedDate"`
	LatestAllowedDate   string `json:"latestAllowedDate"`
}

// CreateImportResponse is the payload returned on successful admission
type CreateImportResponse struct {
	ImportID         string           `json:"importId"`
	AllowedDateRange AllowedDateRange `json:"allowedDateRange"`
}

// Create handles POST /sites/:site/import
func (h *ImportHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	siteID, err := strconv.ParseInt(c.Param("site"), 10, 64)
	if err != nil || siteID <= 0 {
		return ErrorBadRequest(c, "Invalid site ID")
	}

	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	hasAccess, err := h.access.SiteAdmin(ctx, userID, siteID)
	if err != nil {
		return ErrorInternal(c, "Failed to check site access: "+err.Error())
	}
	if !hasAccess {
		return ErrorForbidden(c, "Forbidden")
	}

	decision, err := h.limiter.CheckConcurrentImportLimit(ctx, siteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorNotFound(c, "Site not found")
		}
		return ErrorInternal(c, "Failed to check import limit: "+err.Error())
	}
	if !decision.Allowed {
		return ErrorTooManyRequests(c, decision.Reason)
	}

	// Atomically reserve the concurrency slot. The advisory check above can
	// race with other admissions; this one cannot.
	result, err := h.limiter.CreateImportWithConcurrencyCheck(ctx, siteID, decision.OrganizationID)
	if err != nil {
		return ErrorInternal(c, "Failed to create import: "+err.Error())
	}
	if !result.Success {
		return ErrorTooManyRequests(c, result.Reason)
	}

	tracker, err := h.quotas.NewTracker(ctx, decision.OrganizationID)
	if err != nil {
		return ErrorInternal(c, "Failed to load quota: "+err.Error())
	}

	earliest, latest := tracker.AllowedDateRange()

	return SuccessData(c, &CreateImportResponse{
		ImportID: result.ImportID,
		AllowedDateRange: AllowedDateRange{
			EarliestAllowedDate: earliest.Format("2006-01-02"),
			LatestAllowedDate:   latest.Format("2006-01-02"),
		},
	})
}

// List handles GET /sites/:site/imports
func (h *ImportHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	siteID, err := strconv.ParseInt(c.Param("site"), 10, 64)
	if err != nil || siteID <= 0 {
		return ErrorBadRequest(c, "Invalid site ID")
	}

	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	hasAccess, err := h.access.SiteAdmin(ctx, userID, siteID)
	if err != nil {
		return ErrorInternal(c, "Failed to check site access: "+err.Error())
	}
	if !hasAccess {
		return ErrorForbidden(c, "Forbidden")
	}

	jobs, err := h.imports.ListBySite(ctx, siteID)
	if err != nil {
		return ErrorInternal(c, "Failed to list imports: "+err.Error())
	}

	return SuccessData(c, jobs)
}
