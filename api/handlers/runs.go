package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	api_errors "github.com/customeros/mailsort/api/errors"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
)

const defaultHistoryLimit = 20

// StartRunRequest overrides run options for a single API triggered run.
type StartRunRequest struct {
	DryRun      *bool    `json:"dry_run"`
	MaxMessages *int     `json:"max_messages"`
	Folders     []string `json:"folders"`
}

func (r StartRunRequest) apply(options models.Options) models.Options {
	if r.DryRun != nil {
		options.DryRun = *r.DryRun
	}
	if r.MaxMessages != nil {
		options.MaxMessages = *r.MaxMessages
	}
	if len(r.Folders) > 0 {
		options.FoldersToScan = append([]string(nil), r.Folders...)
		options.IncludeInbox = false
	}
	return options
}

type RunsHandler struct {
	runner     interfaces.SessionRunner
	repository interfaces.SessionRunRepository
	snapshot   interfaces.SnapshotProvider
	log        logger.Logger
}

// NewRunsHandler wires the run endpoints. repository may be nil when run
// history is not persisted.
func NewRunsHandler(runner interfaces.SessionRunner, repository interfaces.SessionRunRepository, snapshot interfaces.SnapshotProvider, log logger.Logger) *RunsHandler {
	return &RunsHandler{
		runner:     runner,
		repository: repository,
		snapshot:   snapshot,
		log:        log,
	}
}

// Start launches a background run with the current rule configuration.
func (h *RunsHandler) Start() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.Start")
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request StartRunRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusBadRequest, api_errors.NewErrorResponse(err))
				return
			}
		}

		snapshot, err := h.snapshot()
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusUnprocessableEntity, api_errors.NewErrorResponse(err))
			return
		}
		snapshot = models.NewSnapshot(request.apply(snapshot.Options), snapshot.AccountAddress, snapshot.Rules, snapshot.Chains)

		runID, err := h.runner.Start(ctx, snapshot, enum.RunTriggerAPI)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(api_errors.StatusFor(err), api_errors.NewErrorResponse(err))
			return
		}

		span.SetTag("run.id", runID)
		h.log.Infof("Run %s started from API (dry run: %t)", runID, snapshot.Options.DryRun)
		c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": enum.RunStatusRunning})
	}
}

func (h *RunsHandler) Current() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.runner.Status())
	}
}

func (h *RunsHandler) Cancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.runner.Cancel(); err != nil {
			c.JSON(api_errors.StatusFor(err), api_errors.NewErrorResponse(err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
	}
}

// List returns persisted runs, newest first. Without a history store only
// the last report of this process is returned.
func (h *RunsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.List")
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, api_errors.ErrorResponse{Error: "limit must be a positive number"})
				return
			}
			limit = parsed
		}

		if h.repository == nil {
			reports := []models.SessionReport{}
			if last := h.runner.Status().LastReport; last != nil {
				reports = append(reports, *last)
			}
			c.JSON(http.StatusOK, gin.H{"runs": reports})
			return
		}

		runs, err := h.repository.ListRecent(ctx, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, api_errors.NewErrorResponse(err))
			return
		}
		reports := make([]models.SessionReport, 0, len(runs))
		for i := range runs {
			reports = append(reports, runs[i].Report())
		}
		c.JSON(http.StatusOK, gin.H{"runs": reports})
	}
}

func (h *RunsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.Get")
		defer span.Finish()
		tracing.TagComponentRest(span)

		runID := c.Param("id")
		if last := h.runner.Status().LastReport; last != nil && last.RunID == runID {
			c.JSON(http.StatusOK, last)
			return
		}
		if h.repository == nil {
			c.JSON(http.StatusNotFound, api_errors.ErrorResponse{Error: "run not found"})
			return
		}

		run, err := h.repository.GetByRunID(ctx, runID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, api_errors.NewErrorResponse(errors.Wrap(err, "load run")))
			return
		}
		if run == nil {
			c.JSON(http.StatusNotFound, api_errors.ErrorResponse{Error: "run not found"})
			return
		}
		c.JSON(http.StatusOK, run.Report())
	}
}
