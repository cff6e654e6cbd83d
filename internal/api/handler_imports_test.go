package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/analyticsctl/internal/admission"
	"github.com/tsanders-rh/analyticsctl/internal/api"
	"github.com/tsanders-rh/analyticsctl/internal/auth"
	"github.com/tsanders-rh/analyticsctl/internal/quota"
	"github.com/tsanders-rh/analyticsctl/internal/store"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

type fakeAccess struct {
	admin bool
	err   error
}

func (f *fakeAccess) SiteAdmin(ctx context.Context, userID string, siteID int64) (bool, error) {
	return f.admin, f.err
}

type fakeLimiter struct {
	decision  *admission.Decision
	checkErr  error
	result    *admission.CreateResult
	createErr error
}

func (f *fakeLimiter) CheckConcurrentImportLimit(ctx context.Context, siteID int64) (*admission.Decision, error) {
	return f.decision, f.checkErr
}

func (f *fakeLimiter) CreateImportWithConcurrencyCheck(ctx context.Context, siteID int64, orgID string) (*admission.CreateResult, error) {
	return f.result, f.createErr
}

type fakeQuotas struct {
	plan types.Plan
	err  error
}

func (f *fakeQuotas) NewTracker(ctx context.Context, orgID string) (*quota.Tracker, error) {
	if f.err != nil {
		return nil, f.err
	}
	now := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	return quota.NewStaticTracker(orgID, f.plan, nil, now), nil
}

type fakeLister struct {
	jobs []*types.ImportJob
	err  error
}

func (f *fakeLister) ListBySite(ctx context.Context, siteID int64) ([]*types.ImportJob, error) {
	return f.jobs, f.err
}

func importRequest(t *testing.T, method, path, siteParam string, claims *auth.Claims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = api.NewValidator()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("site")
	c.SetParamValues(siteParam)
	if claims != nil {
		c.Set(string(auth.ClaimsContextKey), claims)
	}
	return c, rec
}

func siteAdminClaims() *auth.Claims {
	return &auth.Claims{UserID: "usr_1", Email: "a@example.com", Role: string(types.RoleMember)}
}

func TestImportHandler_Create(t *testing.T) {
	allowed := &fakeLimiter{
		decision: &admission.Decision{Allowed: true, OrganizationID: "org_1"},
		result:   &admission.CreateResult{Success: true, ImportID: "imp_123"},
	}

	t.Run("admits and returns the allowed date range", func(t *testing.T) {
		quotas := &fakeQuotas{plan: types.Plan{Name: "free", LookbackMonths: 3}}
		h := api.NewImportHandler(&fakeAccess{admin: true}, allowed, quotas, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data api.CreateImportResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "imp_123", body.Data.ImportID)
		assert.Equal(t, "2024-01-01", body.Data.AllowedDateRange.EarliestAllowedDate)
		assert.Equal(t, "2024-04-15", body.Data.AllowedDateRange.LatestAllowedDate)
	})

	t.Run("unbounded plan ranges start at the epoch", func(t *testing.T) {
		quotas := &fakeQuotas{plan: types.Plan{Name: "enterprise"}}
		h := api.NewImportHandler(&fakeAccess{admin: true}, allowed, quotas, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data api.CreateImportResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "1970-01-01", body.Data.AllowedDateRange.EarliestAllowedDate)
	})

	t.Run("rejects an invalid site ID", func(t *testing.T) {
		h := api.NewImportHandler(&fakeAccess{admin: true}, allowed, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/abc/import", "abc", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := api.NewImportHandler(&fakeAccess{admin: true}, allowed, &fakeQuotas{}, &fakeLister{})

		c, _ := importRequest(t, http.MethodPost, "/sites/1/import", "1", nil)
		err := h.Create(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("forbids non-admins of the site", func(t *testing.T) {
		h := api.NewImportHandler(&fakeAccess{admin: false}, allowed, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown site maps to 404", func(t *testing.T) {
		limiter := &fakeLimiter{checkErr: store.ErrNotFound}
		h := api.NewImportHandler(&fakeAccess{admin: true}, limiter, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("denied admission maps to 429 with the reason", func(t *testing.T) {
		limiter := &fakeLimiter{
			decision: &admission.Decision{Allowed: false, Reason: "an import is already in progress for this site"},
		}
		h := api.NewImportHandler(&fakeAccess{admin: true}, limiter, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "admission_denied", body.Error)
		assert.Equal(t, "an import is already in progress for this site", body.Message)
	})

	t.Run("losing the slot race maps to 429", func(t *testing.T) {
		limiter := &fakeLimiter{
			decision: &admission.Decision{Allowed: true, OrganizationID: "org_1"},
			result:   &admission.CreateResult{Success: false, Reason: "an import is already in progress for this site"},
		}
		h := api.NewImportHandler(&fakeAccess{admin: true}, limiter, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodPost, "/sites/1/import", "1", siteAdminClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestImportHandler_List(t *testing.T) {
	t.Run("lists the site's import jobs", func(t *testing.T) {
		jobs := []*types.ImportJob{
			{ID: "imp_1", SiteID: 1, Status: types.ImportStatusCompleted},
			{ID: "imp_2", SiteID: 1, Status: types.ImportStatusRunning},
		}
		h := api.NewImportHandler(&fakeAccess{admin: true}, &fakeLimiter{}, &fakeQuotas{}, &fakeLister{jobs: jobs})

		c, rec := importRequest(t, http.MethodGet, "/sites/1/imports", "1", siteAdminClaims())
		require.NoError(t, h.List(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []types.ImportJob `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		assert.Equal(t, "imp_1", body.Data[0].ID)
	})

	t.Run("forbids non-admins", func(t *testing.T) {
		h := api.NewImportHandler(&fakeAccess{admin: false}, &fakeLimiter{}, &fakeQuotas{}, &fakeLister{})

		c, rec := importRequest(t, http.MethodGet, "/sites/1/imports", "1", siteAdminClaims())
		require.NoError(t, h.List(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
