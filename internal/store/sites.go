package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// SiteStore handles site database operations
type SiteStore struct {
	pool *pgxpool.Pool
}

// GetByID retrieves a site by ID
func (s *SiteStore) GetByID(ctx context.Context, id int64) (*types.Site, error) {
	query := `
		SELECT id, domain, name, organization_id, created_by, public, created_at, updated_at
		FROM sites
		WHERE id = $1
	`

	var site types.Site
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&site.ID,
		&site.Domain,
		&site.Name,
		&site.OrganizationID,
		&site.CreatedBy,
		&site.Public,
		&site.CreatedAt,
		&site.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query site: %w", err)
	}

	return &site, nil
}

// ListAll retrieves every site, for export
func (s *SiteStore) ListAll(ctx context.Context) ([]types.Site, error) {
	query := `
		SELECT id, domain, name, organization_id, created_by, public, created_at, updated_at
		FROM sites
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	sites := []types.Site{}
	for rows.Next() {
		var site types.Site
		err := rows.Scan(
			&site.ID,
			&site.Domain,
			&site.Name,
			&site.OrganizationID,
			&site.CreatedBy,
			&site.Public,
			&site.CreatedAt,
			&site.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}

	return sites, nil
}

// IDsByOrganization retrieves the IDs of every site owned by an organization
func (s *SiteStore) IDsByOrganization(ctx context.Context, orgID string) ([]int64, error) {
	query := `
		SELECT id
		FROM sites
		WHERE organization_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query site IDs: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan site ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site IDs: %w", err)
	}

	return ids, nil
}

// SiteAdmin reports whether the user is an owner or admin of the
// organization that owns the site
func (s *SiteStore) SiteAdmin(ctx context.Context, userID string, siteID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM sites st
			JOIN organization_members m ON m.organization_id = st.organization_id
			WHERE st.id = $1
				AND m.user_id = $2
				AND m.role IN ('owner', 'admin')
		)
	`

	var allowed bool
	err := s.pool.QueryRow(ctx, query, siteID, userID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("check site admin access: %w", err)
	}

	return allowed, nil
}

// Upsert inserts a site, skipping rows whose primary key already exists.
// Returns true when a row was actually inserted.
func (s *SiteStore) Upsert(ctx context.Context, site *types.Site) (bool, error) {
	query := `
		INSERT INTO sites (id, domain, name, organization_id, created_by, public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.pool.Exec(ctx, query,
		site.ID,
		site.Domain,
		site.Name,
		site.OrganizationID,
		site.CreatedBy,
		site.Public,
		site.CreatedAt,
		site.UpdatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("upsert site: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
