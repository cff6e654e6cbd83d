package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// FunnelStore handles funnel database operations
type FunnelStore struct {
	pool *pgxpool.Pool
}

// ListAll retrieves every funnel, for export
func (s *FunnelStore) ListAll(ctx context.Context) ([]types.Funnel, error) {
	query := `
		SELECT id, site_id, name, steps, created_at, updated_at
		FROM funnels
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query funnels: %w", err)
	}
	defer rows.Close()

	funnels := []types.Funnel{}
	for rows.Next() {
		var funnel types.Funnel
		err := rows.Scan(
			&funnel.ID,
			&funnel.SiteID,
			&funnel.Name,
			&funnel.Steps,
			&funnel.CreatedAt,
			&funnel.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan funnel: %w", err)
		}
		funnels = append(funnels, funnel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funnels: %w", err)
	}

	return funnels, nil
}

// Upsert inserts a funnel, skipping rows whose primary key already exists.
// Returns true when a row was actually inserted.
func (s *FunnelStore) Upsert(ctx context.Context, funnel *types.Funnel) (bool, error) {
	query := `
		INSERT INTO funnels (id, site_id, name, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.pool.Exec(ctx, query,
		funnel.ID,
		funnel.SiteID,
		funnel.Name,
		funnel.Steps,
		funnel.CreatedAt,
		funnel.UpdatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("upsert funnel: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
