package store

import (
	"context"

	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// Flat accessors so *Store satisfies the migration pipelines' relational
// store interface without handing them the sub-store graph.

func (s *Store) ListOrganizations(ctx context.Context) ([]types.Organization, error) {
	return s.Organizations.ListAll(ctx)
}

func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.Users.ListAll(ctx)
}

func (s *Store) ListSites(ctx context.Context) ([]types.Site, error) {
	return s.Sites.ListAll(ctx)
}

func (s *Store) ListGoals(ctx context.Context) ([]types.Goal, error) {
	return s.Goals.ListAll(ctx)
}

func (s *Store) ListFunnels(ctx context.Context) ([]types.Funnel, error) {
	return s.Funnels.ListAll(ctx)
}

func (s *Store) UpsertOrganization(ctx context.Context, org *types.Organization) (bool, error) {
	return s.Organizations.Upsert(ctx, org)
}

func (s *Store) UpsertUser(ctx context.Context, user *types.User) (bool, error) {
	return s.Users.Upsert(ctx, user)
}

func (s *Store) UpsertSite(ctx context.Context, site *types.Site) (bool, error) {
	return s.Sites.Upsert(ctx, site)
}

func (s *Store) UpsertGoal(ctx context.Context, goal *types.Goal) (bool, error) {
	return s.Goals.Upsert(ctx, goal)
}

func (s *Store) UpsertFunnel(ctx context.Context, funnel *types.Funnel) (bool, error) {
	return s.Funnels.Upsert(ctx, funnel)
}
