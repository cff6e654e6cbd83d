package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// This is a sample test demonstrating the testing pattern
// Full integration tests would use testcontainers for real PostgreSQL

func TestImportJobStore_CreateRunning(t *testing.T) {
	// Skip if not running integration tests
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	// In real tests, you would:
	// 1. Start a PostgreSQL container with testcontainers
	// 2. Run migrations
	// 3. Create store instance with store.New(pool)
	//
	// The admission invariants to verify: two concurrent CreateRunning calls
	// for the same site with siteCap=1 must yield exactly one success and one
	// ErrConcurrencyLimit (site row lock serializes them), and concurrent
	// calls for different sites of one organization must not jointly exceed
	// orgCap (organization row lock serializes them).

	t.Run("builds a valid running job", func(t *testing.T) {
		job := &types.ImportJob{
			ID:             types.GenerateImportID(),
			SiteID:         1,
			OrganizationID: types.GenerateOrgID(),
			Status:         types.ImportStatusRunning,
		}

		assert.NotEmpty(t, job.ID)
		assert.Equal(t, types.ImportStatusRunning, job.Status)
	})
}
