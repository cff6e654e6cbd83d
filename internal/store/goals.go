package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// GoalStore handles goal database operations
type GoalStore struct {
	pool *pgxpool.Pool
}

// ListAll retrieves every goal, for export
func (s *GoalStore) ListAll(ctx context.Context) ([]types.Goal, error) {
	query := `
		SELECT id, site_id, name, goal_type, config, created_at
		FROM goals
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := []types.Goal{}
	for rows.Next() {
		var goal types.Goal
		err := rows.Scan(
			&goal.ID,
			&goal.SiteID,
			&goal.Name,
			&goal.GoalType,
			&goal.Config,
			&goal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	return goals, nil
}

// Upsert inserts a goal, skipping rows whose primary key already exists.
// Returns true when a row was actually inserted.
func (s *GoalStore) Upsert(ctx context.Context, goal *types.Goal) (bool, error) {
	query := `
		INSERT INTO goals (id, site_id, name, goal_type, config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.pool.Exec(ctx, query,
		goal.ID,
		goal.SiteID,
		goal.Name,
		goal.GoalType,
		goal.Config,
		goal.CreatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("upsert goal: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
