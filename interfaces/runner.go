package interfaces

import (
	"context"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

// SessionRunner owns the single background classification task.
type SessionRunner interface {
	Start(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (string, error)
	Run(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (models.SessionReport, error)
	Cancel() error
	Status() dto.RunStatus
}

// SnapshotProvider loads the current rule configuration. It is called once
// per run so edits to the rule files apply to the next run.
type SnapshotProvider func() (models.Snapshot, error)
