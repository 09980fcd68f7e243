package interfaces

import (
	"context"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/internal/models"
)

// EventSink receives the engine's log stream, progress updates and final report.
// Implementations must not block the engine for long.
type EventSink interface {
	Emit(event dto.Event)
	Progress(update dto.ProgressUpdate)
	Finish(report models.SessionReport)
}

type ReportPublisher interface {
	PublishRunCompleted(ctx context.Context, report models.SessionReport) error
	Close() error
}
