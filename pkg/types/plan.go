package types

// Plan describes a billing tier's import entitlements.
// LookbackMonths == 0 means the tier may import all history.
// MaxConcurrentImports == 0 falls back to the default per-site cap.
type Plan struct {
	Name                 string `yaml:"name" json:"name"`
	MonthlyEventCap      int64  `yaml:"monthly_event_cap" json:"monthly_event_cap"`
	LookbackMonths       int    `yaml:"lookback_months" json:"lookback_months"`
	MaxConcurrentImports int    `yaml:"max_concurrent_imports" json:"max_concurrent_imports"`
}

// Unlimited reports whether the tier has no historical lookback restriction
func (p Plan) Unlimited() bool {
	return p.LookbackMonths == 0
}
