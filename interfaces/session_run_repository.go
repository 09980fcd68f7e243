package interfaces

import (
	"context"

	"github.com/customeros/mailsort/internal/models"
)

type SessionRunRepository interface {
	Save(ctx context.Context, run *models.SessionRun) error
	GetByRunID(ctx context.Context, runID string) (*models.SessionRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.SessionRun, error)
}
