package session

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
	"github.com/customeros/mailsort/internal/utils"
	"github.com/customeros/mailsort/services/events"
)

const (
	runIdPrefix    = "run"
	runIdSize      = 16
	historyEvents  = 200
	persistTimeout = 10 * time.Second
)

type activeRun struct {
	id      string
	cancel  context.CancelFunc
	history *events.HistorySink
	done    chan struct{}
}

// Runner owns the single background classification task. At most one run
// is active at a time.
type Runner struct {
	dial       interfaces.MailboxDialer
	controller *Controller
	sink       interfaces.EventSink
	repository interfaces.SessionRunRepository
	log        logger.Logger

	mu          sync.Mutex
	active      *activeRun
	lastReport  *models.SessionReport
	lastHistory *events.HistorySink
}

// NewRunner wires a runner. sink and repository are optional.
func NewRunner(dial interfaces.MailboxDialer, controller *Controller, sink interfaces.EventSink, repository interfaces.SessionRunRepository, log logger.Logger) *Runner {
	return &Runner{
		dial:       dial,
		controller: controller,
		sink:       sink,
		repository: repository,
		log:        log,
	}
}

// Start launches a run in the background and returns its id.
func (r *Runner) Start(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (string, error) {
	run, runCtx, err := r.register(context.WithoutCancel(ctx))
	if err != nil {
		return "", err
	}

	go func() {
		_, _ = r.execute(runCtx, run, snapshot, trigger)
	}()
	return run.id, nil
}

// Run executes a run synchronously. Cancelling ctx cancels the run.
func (r *Runner) Run(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (models.SessionReport, error) {
	run, runCtx, err := r.register(ctx)
	if err != nil {
		return models.SessionReport{}, err
	}
	return r.execute(runCtx, run, snapshot, trigger)
}

// Cancel signals the active run to stop after the current message.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return mailsort_errors.ErrNoActiveRun
	}
	r.active.cancel()
	return nil
}

// Wait blocks until the active run, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if active != nil {
		<-active.done
	}
}

func (r *Runner) Status() dto.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := dto.RunStatus{}
	if r.lastReport != nil {
		report := *r.lastReport
		status.LastReport = &report
	}
	if r.active != nil {
		status.Running = true
		status.RunID = r.active.id
		status.Status = enum.RunStatusRunning
		status.Progress = r.active.history.LastProgress()
		status.Events = r.active.history.Events()
		return status
	}
	if r.lastReport != nil {
		status.RunID = r.lastReport.RunID
		status.Status = r.lastReport.Status
	}
	if r.lastHistory != nil {
		status.Events = r.lastHistory.Events()
	}
	return status
}

func (r *Runner) register(ctx context.Context) (*activeRun, context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, nil, mailsort_errors.ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{
		id:      utils.GenerateNanoIdWithPrefix(runIdPrefix, runIdSize),
		cancel:  cancel,
		history: events.NewHistorySink(historyEvents),
		done:    make(chan struct{}),
	}
	r.active = run
	return run, tracing.WithRunId(runCtx, run.id), nil
}

func (r *Runner) execute(ctx context.Context, run *activeRun, snapshot models.Snapshot, trigger enum.RunTrigger) (report models.SessionReport, runErr error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.execute")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("trigger", trigger.String(), "dryRun", snapshot.Options.DryRun)

	sink := events.NewMultiSink(run.history, r.sink)
	report = models.SessionReport{
		RunID:     run.id,
		Status:    enum.RunStatusRunning,
		Trigger:   trigger,
		DryRun:    snapshot.Options.DryRun,
		Folders:   FoldersToScan(snapshot.Options),
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			stack := string(debug.Stack())
			span.SetTag("error", true)
			span.LogKV("event", "error", "error.object", rec, "stack", stack)
			r.log.Errorf("Recovered from panic in run %s: %v\nStack trace:\n%s", run.id, rec, stack)
			runErr = errors.Errorf("run panicked: %v", rec)
			report.Status = enum.RunStatusFailed
			report.Error = runErr.Error()
		}
		report.FinishedAt = time.Now().UTC()
		r.complete(ctx, run, snapshot.AccountAddress, report, sink)
	}()

	mailbox, err := r.dial(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		event := events.NewEvent(enum.SeverityError, "Connection failed: %v", err)
		event.RunID = run.id
		sink.Emit(event)
		report.Status = enum.RunStatusFailed
		report.Error = err.Error()
		return report, errors.Wrap(err, "connect")
	}
	defer func() {
		if closeErr := mailbox.Close(); closeErr != nil {
			r.log.Warnf("Failed to close mailbox session: %v", closeErr)
		}
	}()

	result, err := r.controller.Run(ctx, mailbox, &snapshot, run.id, sink)
	report.Stats = result.Stats
	report.Folders = result.Folders
	switch {
	case err != nil:
		tracing.TraceErr(span, err)
		report.Status = enum.RunStatusFailed
		report.Error = err.Error()
	case result.Cancelled:
		report.Status = enum.RunStatusCancelled
	default:
		report.Status = enum.RunStatusCompleted
	}
	return report, err
}

func (r *Runner) complete(ctx context.Context, run *activeRun, accountAddress string, report models.SessionReport, sink interfaces.EventSink) {
	if r.repository != nil {
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		if err := r.repository.Save(persistCtx, models.NewSessionRun(accountAddress, report)); err != nil {
			r.log.Errorf("Failed to save run %s: %v", run.id, err)
		}
		cancel()
	}

	sink.Finish(report)

	r.mu.Lock()
	r.lastReport = &report
	r.lastHistory = run.history
	if r.active == run {
		r.active = nil
	}
	r.mu.Unlock()

	run.cancel()
	close(run.done)
}
