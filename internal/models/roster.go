package models

// Roster is the rostering period being planned.
type Roster struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	PeriodStart string  `json:"period_start" yaml:"period_start"` // YYYY-MM-DD format
	PeriodEnd   string  `json:"period_end" yaml:"period_end"`     // YYYY-MM-DD format, inclusive
	Status      string  `json:"status" yaml:"status"`
	ProcessedAt *string `json:"processed_at,omitempty" yaml:"-"` // RFC3339 timestamp
	LastRunID   *string `json:"last_run_id,omitempty" yaml:"-"`
}

// Contains reports whether date falls inside the roster period.
func (r Roster) Contains(date string) bool {
	return date >= r.PeriodStart && date <= r.PeriodEnd
}

type Employee struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Team   Team   `json:"team" yaml:"team"`
	Active bool   `json:"active" yaml:"active"`
}

// RunRecord is one row of autofill run history.
type RunRecord struct {
	RunID           string  `json:"run_id"`
	RosterID        string  `json:"roster_id"`
	StartedAt       string  `json:"started_at"`  // RFC3339 timestamp
	FinishedAt      string  `json:"finished_at"` // RFC3339 timestamp
	Success         bool    `json:"success"`
	DryRun          bool    `json:"dry_run"`
	Assigned        int     `json:"assigned"`
	Open            int     `json:"open"`
	Updated         int     `json:"updated"`
	CoveragePercent float64 `json:"coverage_percent"`
	ValidationCount int     `json:"validation_count"`
	Error           string  `json:"error,omitempty"`
}
