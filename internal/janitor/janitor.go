package janitor

import (
	"context"
	"log"
	"time"

	"github.com/tsanders-rh/analyticsctl/internal/store"
)

// Config holds janitor configuration
type Config struct {
	CheckInterval        time.Duration
	StuckImportThreshold time.Duration
}

// DefaultConfig returns default janitor configuration
func DefaultConfig() *Config {
	return &Config{
		CheckInterval:        5 * time.Minute,
		StuckImportThreshold: 2 * time.Hour,
	}
}

// Janitor reaps import jobs stuck in RUNNING status. A job whose worker
// died without reporting back would otherwise hold its concurrency slot
// forever and block the site from ever importing again.
type Janitor struct {
	config *Config
	store  *store.Store
	ctx    context.Context
	cancel context.CancelFunc
}

// NewJanitor creates a new janitor instance
func NewJanitor(config *Config, st *store.Store) *Janitor {
	if config == nil {
		config = DefaultConfig()
	}

	return &Janitor{
		config: config,
		store:  st,
	}
}

// Start starts the janitor loop
func (j *Janitor) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)

	log.Printf("Janitor starting (check_interval=%s, stuck_threshold=%s)",
		j.config.CheckInterval, j.config.StuckImportThreshold)

	// Run immediately on start
	j.run()

	ticker := time.NewTicker(j.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			log.Printf("Janitor shutting down")
			return j.ctx.Err()

		case <-ticker.C:
			j.run()
		}
	}
}

// Stop stops the janitor gracefully
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}

// run performs one cleanup pass
func (j *Janitor) run() {
	ctx := context.Background()

	if err := j.reapStuckImports(ctx); err != nil {
		log.Printf("Error reaping stuck imports: %v", err)
	}
}

// reapStuckImports marks long-running imports as failed, releasing their
// concurrency slots
func (j *Janitor) reapStuckImports(ctx context.Context) error {
	stuck, err := j.store.Imports.GetStuck(ctx, j.config.StuckImportThreshold)
	if err != nil {
		return err
	}

	if len(stuck) == 0 {
		return nil
	}

	log.Printf("Found %d stuck imports", len(stuck))

	for _, job := range stuck {
		log.Printf("Detected stuck import %s (site=%d, started=%s)",
			job.ID, job.SiteID, job.StartedAt.Format(time.RFC3339))

		errorMessage := "Import exceeded maximum runtime and was terminated by janitor"
		if err := j.store.Imports.MarkFailed(ctx, job.ID, errorMessage); err != nil {
			log.Printf("Failed to mark import %s as failed: %v", job.ID, err)
			continue
		}

		log.Printf("Marked stuck import %s as failed", job.ID)
	}

	return nil
}
