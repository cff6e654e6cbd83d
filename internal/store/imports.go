package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// ImportJobStore handles import job database operations
type ImportJobStore struct {
	pool *pgxpool.Pool
}

// CreateRunning atomically checks the concurrency caps and inserts a new
// RUNNING import job. The counts and insert run in one transaction with the
// organization and site rows locked, so concurrent admissions for the same
// site, or for different sites of the same organization, serialize here and
// cannot jointly exceed either cap. Rows are locked organization first, then
// site, so racing admissions cannot deadlock.
// Returns ErrConcurrencyLimit when the site is at or over cap,
// ErrOrgConcurrencyLimit when orgCap > 0 and the organization is at or over
// it, ErrNotFound when the site or organization does not exist.
func (s *ImportJobStore) CreateRunning(ctx context.Context, job *types.ImportJob, siteCap, orgCap int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import admission: %w", err)
	}
	defer tx.Rollback(ctx)

	var orgID string
	err = tx.QueryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, job.OrganizationID).Scan(&orgID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock organization row: %w", err)
	}

	var siteID int64
	err = tx.QueryRow(ctx, `SELECT id FROM sites WHERE id = $1 FOR UPDATE`, job.SiteID).Scan(&siteID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock site row: %w", err)
	}

	var running int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM import_jobs WHERE site_id = $1 AND status = $2`,
		job.SiteID, types.ImportStatusRunning,
	).Scan(&running)
	if err != nil {
		return fmt.Errorf("count running imports: %w", err)
	}

	if running >= siteCap {
		return ErrConcurrencyLimit
	}

	if orgCap > 0 {
		var orgRunning int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM import_jobs WHERE organization_id = $1 AND status = $2`,
			job.OrganizationID, types.ImportStatusRunning,
		).Scan(&orgRunning)
		if err != nil {
			return fmt.Errorf("count running imports for organization: %w", err)
		}

		if orgRunning >= orgCap {
			return ErrOrgConcurrencyLimit
		}
	}

	query := `
		INSERT INTO import_jobs (id, site_id, organization_id, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), NOW())
	`

	_, err = tx.Exec(ctx, query,
		job.ID,
		job.SiteID,
		job.OrganizationID,
		types.ImportStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("insert import job: %w", err)
	}

	return tx.Commit(ctx)
}

// CountRunning returns the number of RUNNING import jobs for a site
func (s *ImportJobStore) CountRunning(ctx context.Context, siteID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM import_jobs
		WHERE site_id = $1 AND status = $2
	`

	var count int
	err := s.pool.QueryRow(ctx, query, siteID, types.ImportStatusRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count running imports: %w", err)
	}

	return count, nil
}

// CountRunningByOrganization returns the number of RUNNING import jobs
// across every site owned by an organization
func (s *ImportJobStore) CountRunningByOrganization(ctx context.Context, orgID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM import_jobs
		WHERE organization_id = $1 AND status = $2
	`

	var count int
	err := s.pool.QueryRow(ctx, query, orgID, types.ImportStatusRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count running imports by organization: %w", err)
	}

	return count, nil
}

// GetByID retrieves an import job by ID
func (s *ImportJobStore) GetByID(ctx context.Context, id string) (*types.ImportJob, error) {
	query := `
		SELECT id, site_id, organization_id, status, error_message,
			started_at, completed_at, created_at, updated_at
		FROM import_jobs
		WHERE id = $1
	`

	var job types.ImportJob
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.SiteID,
		&job.OrganizationID,
		&job.Status,
		&job.ErrorMessage,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query import job: %w", err)
	}

	return &job, nil
}

// ListBySite retrieves all import jobs for a site, newest first
func (s *ImportJobStore) ListBySite(ctx context.Context, siteID int64) ([]*types.ImportJob, error) {
	query := `
		SELECT id, site_id, organization_id, status, error_message,
			started_at, completed_at, created_at, updated_at
		FROM import_jobs
		WHERE site_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("query import jobs by site: %w", err)
	}
	defer rows.Close()

	jobs := []*types.ImportJob{}
	for rows.Next() {
		var job types.ImportJob
		err := rows.Scan(
			&job.ID,
			&job.SiteID,
			&job.OrganizationID,
			&job.Status,
			&job.ErrorMessage,
			&job.StartedAt,
			&job.CompletedAt,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan import job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import jobs: %w", err)
	}

	return jobs, nil
}

// MarkCompleted marks an import job as completed, releasing its
// concurrency slot
func (s *ImportJobStore) MarkCompleted(ctx context.Context, id string) error {
	query := `
		UPDATE import_jobs
		SET status = $1, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`

	result, err := s.pool.Exec(ctx, query, types.ImportStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("mark import completed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkFailed marks an import job as failed with an error message
func (s *ImportJobStore) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE import_jobs
		SET status = $1, error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $3
	`

	result, err := s.pool.Exec(ctx, query, types.ImportStatusFailed, errorMessage, id)
	if err != nil {
		return fmt.Errorf("mark import failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// GetStuck returns import jobs RUNNING for longer than the threshold
func (s *ImportJobStore) GetStuck(ctx context.Context, threshold time.Duration) ([]*types.ImportJob, error) {
	query := `
		SELECT id, site_id, organization_id, status, error_message,
			started_at, completed_at, created_at, updated_at
		FROM import_jobs
		WHERE status = $1
			AND started_at < NOW() - $2::interval
		ORDER BY started_at ASC
	`

	rows, err := s.pool.Query(ctx, query, types.ImportStatusRunning, threshold)
	if err != nil {
		return nil, fmt.Errorf("query stuck imports: %w", err)
	}
	defer rows.Close()

	jobs := []*types.ImportJob{}
	for rows.Next() {
		var job types.ImportJob
		err := rows.Scan(
			&job.ID,
			&job.SiteID,
			&job.OrganizationID,
			&job.Status,
			&job.ErrorMessage,
			&job.StartedAt,
			&job.CompletedAt,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stuck import: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stuck imports: %w", err)
	}

	return jobs, nil
}
