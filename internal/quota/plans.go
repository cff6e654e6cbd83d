package quota

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tsanders-rh/analyticsctl/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultPlanTier is used for organizations whose tier has no definition
const DefaultPlanTier = "free"

// builtinPlans are the shipped tier definitions; a definitions directory
// can override or extend them.
func builtinPlans() []types.Plan {
	return []types.Plan{
		{
			Name:            "free",
			MonthlyEventCap: 100_000,
			LookbackMonths:  6,
		},
		{
			Name:                 "pro",
			MonthlyEventCap:      2_000_000,
			LookbackMonths:       24,
			MaxConcurrentImports: 2,
		},
		{
			Name:                 "enterprise",
			MaxConcurrentImports: 5,
		},
	}
}

// Registry holds the known plan tiers
type Registry struct {
	mu    sync.RWMutex
	plans map[string]types.Plan
}

// NewRegistry creates a registry seeded with the built-in tiers
func NewRegistry() *Registry {
	r := &Registry{
		plans: make(map[string]types.Plan),
	}
	for _, p := range builtinPlans() {
		r.plans[p.Name] = p
	}
	return r
}

// LoadDir reads plan definitions from a directory of YAML files,
// overriding built-in tiers with the same name
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read plans directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read plan file %s: %w", entry.Name(), err)
		}

		var plan types.Plan
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return fmt.Errorf("parse plan file %s: %w", entry.Name(), err)
		}

		if plan.Name == "" {
			return fmt.Errorf("plan file %s: missing name", entry.Name())
		}
		if plan.MonthlyEventCap < 0 || plan.LookbackMonths < 0 || plan.MaxConcurrentImports < 0 {
			return fmt.Errorf("plan file %s: negative limit", entry.Name())
		}

		r.mu.Lock()
		r.plans[plan.Name] = plan
		r.mu.Unlock()
	}

	return nil
}

// Get returns the plan for a tier name
func (r *Registry) Get(tier string) (types.Plan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.plans[tier]
	return plan, ok
}

// GetOrDefault returns the plan for a tier, falling back to the default tier
func (r *Registry) GetOrDefault(tier string) types.Plan {
	if plan, ok := r.Get(tier); ok {
		return plan
	}
	plan, _ := r.Get(DefaultPlanTier)
	return plan
}

// Count returns the number of registered tiers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plans)
}
