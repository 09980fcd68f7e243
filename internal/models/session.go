package models

import (
	"time"

	"github.com/customeros/mailsort/internal/enum"
)

// SessionStats are the counters of a run. Only the session controller
// mutates them.
type SessionStats struct {
	Total         int `json:"total"`
	Processed     int `json:"processed"`
	CCMoved       int `json:"cc_moved"`
	RulesApplied  int `json:"rules_applied"`
	ChainsApplied int `json:"chains_applied"`
	Errors        int `json:"errors"`
}

func (s SessionStats) TotalActions() int {
	return s.CCMoved + s.RulesApplied + s.ChainsApplied
}

// SessionReport is returned for every run however it ended.
type SessionReport struct {
	RunID      string          `json:"run_id"`
	Status     enum.RunStatus  `json:"status"`
	Trigger    enum.RunTrigger `json:"trigger"`
	DryRun     bool            `json:"dry_run"`
	Folders    []string        `json:"folders"`
	Stats      SessionStats    `json:"stats"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Error      string          `json:"error,omitempty"`
}

func (r SessionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
