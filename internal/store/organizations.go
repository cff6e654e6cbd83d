package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// OrganizationStore handles organization database operations
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// GetByID retrieves an organization by ID
func (s *OrganizationStore) GetByID(ctx context.Context, id string) (*types.Organization, error) {
	query := `
		SELECT id, name, plan_tier, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org types.Organization
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.PlanTier,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query organization: %w", err)
	}

	return &org, nil
}

// ListAll retrieves every organization, for export
func (s *OrganizationStore) ListAll(ctx context.Context) ([]types.Organization, error) {
	query := `
		SELECT id, name, plan_tier, created_at, updated_at
		FROM organizations
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	orgs := []types.Organization{}
	for rows.Next() {
		var org types.Organization
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.PlanTier,
			&org.CreatedAt,
			&org.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}

	return orgs, nil
}

// Upsert inserts an organization, skipping rows whose primary key already
// exists. Returns true when a row was actually inserted.
func (s *OrganizationStore) Upsert(ctx context.Context, org *types.Organization) (bool, error) {
	query := `
		INSERT INTO organizations (id, name, plan_tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.PlanTier,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("upsert organization: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
