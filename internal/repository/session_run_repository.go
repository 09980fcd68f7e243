package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
)

const maxListLimit = 100

type sessionRunRepository struct {
	db *gorm.DB
}

func NewSessionRunRepository(db *gorm.DB) interfaces.SessionRunRepository {
	return &sessionRunRepository{db: db}
}

// Save stores a finished run, replacing an earlier row with the same run id.
func (r *sessionRunRepository) Save(ctx context.Context, run *models.SessionRun) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SessionRunRepository.Save")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("run.id", run.RunID)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			UpdateAll: true,
		}).
		Create(run).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to save session run")
	}
	return nil
}

func (r *sessionRunRepository) GetByRunID(ctx context.Context, runID string) (*models.SessionRun, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SessionRunRepository.GetByRunID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("run.id", runID)

	var run models.SessionRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get session run")
	}
	return &run, nil
}

// ListRecent returns the newest runs first.
func (r *sessionRunRepository) ListRecent(ctx context.Context, limit int) ([]models.SessionRun, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SessionRunRepository.ListRecent")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	span.SetTag("limit", limit)

	var runs []models.SessionRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list session runs")
	}
	return runs, nil
}
