package models

import "time"

// DefaultEnvironmentName is used when an environment is created without a name.
const DefaultEnvironmentName = "Untitled Thesis"

// Environment is a named, persisted bundle of tickers and criteria that can be run on demand
// or on a cron schedule.
type Environment struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Thesis     string            `json:"thesis"`
	Tickers    []string          `json:"tickers"`
	Criteria   CriteriaConfig    `json:"criteria"`
	Schedule   string            `json:"schedule,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	LastRunAt  *time.Time        `json:"last_run_at,omitempty"`
	LastReport map[string]string `json:"last_report,omitempty"`
}

// RunSummary aggregates one environment run.
type RunSummary struct {
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Analysis string `json:"analysis"`
}

// RunResponse is returned by an environment run.
type RunResponse struct {
	Environment *Environment      `json:"environment"`
	Summary     RunSummary        `json:"summary"`
	ReportPaths map[string]string `json:"report_paths"`
	Results     []Record          `json:"results"`
}
