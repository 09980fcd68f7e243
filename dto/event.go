package dto

import (
	"time"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Severity  enum.Severity `json:"severity"`
	Message   string        `json:"message"`
	RunID     string        `json:"run_id,omitempty"`
	Folder    string        `json:"folder,omitempty"`
}

type ProgressUpdate struct {
	RunID     string              `json:"run_id"`
	Folder    string              `json:"folder"`
	Processed int                 `json:"processed"`
	Total     int                 `json:"total"`
	Stats     models.SessionStats `json:"stats"`
}

// RunStatus is what the control surface reports about the current or last run.
type RunStatus struct {
	Running    bool                  `json:"running"`
	RunID      string                `json:"run_id,omitempty"`
	Status     enum.RunStatus        `json:"status,omitempty"`
	Progress   *ProgressUpdate       `json:"progress,omitempty"`
	Events     []Event               `json:"events,omitempty"`
	LastReport *models.SessionReport `json:"last_report,omitempty"`
}
