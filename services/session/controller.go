package session

import (
	"context"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
	"github.com/customeros/mailsort/internal/utils"
	"github.com/customeros/mailsort/services/events"
	"github.com/customeros/mailsort/services/executor"
	"github.com/customeros/mailsort/services/folders"
	"github.com/customeros/mailsort/services/projection"
	"github.com/customeros/mailsort/services/rules"
)

const (
	progressEvery    = 10
	logSubjectLength = 50
	oneDay           = 24 * time.Hour
)

var errCancelled = errors.New("run cancelled")

// Result is what a controller pass produced, however it ended.
type Result struct {
	Stats     models.SessionStats
	Folders   []string
	Cancelled bool
}

// Controller drives one classification pass over the configured folders.
// It is stateless between runs.
type Controller struct {
	resolver interfaces.RuleResolver
	now      func() time.Time
}

func NewController(resolver interfaces.RuleResolver) *Controller {
	return &Controller{resolver: resolver, now: time.Now}
}

// folderRun carries the state of one pass. Stats are only touched here.
type folderRun struct {
	runID    string
	snapshot *models.Snapshot
	mailbox  interfaces.Mailbox
	sink     interfaces.EventSink
	catalog  *folders.Catalog
	executor interfaces.ActionExecutor
	stats    models.SessionStats
	folder   string
}

// Run scans every target folder. Cancellation of ctx is observed once per
// message and yields a partial result with a nil error; only a lost
// connection is returned as an error.
func (c *Controller) Run(ctx context.Context, mailbox interfaces.Mailbox, snapshot *models.Snapshot, runID string, sink interfaces.EventSink) (Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SessionController.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	// mailbox operations run to completion even when the run is cancelled
	opCtx := context.WithoutCancel(ctx)

	run := &folderRun{
		runID:    runID,
		snapshot: snapshot,
		mailbox:  mailbox,
		sink:     sink,
	}
	options := snapshot.Options
	targets := FoldersToScan(options)
	result := Result{Folders: targets}

	if options.DryRun {
		run.emit(enum.SeverityWarning, "Dry run: no message will be modified")
	}
	if options.PreserveUnread {
		run.emit(enum.SeverityInfo, "Unread messages will stay unread")
	}

	catalog, err := folders.Discover(opCtx, mailbox)
	if err != nil {
		if isConnectionLost(err) {
			tracing.TraceErr(span, err)
			return c.finish(run, result), err
		}
		run.emit(enum.SeverityWarning, "Could not list folders: %v", err)
		catalog = folders.NewCatalog()
	}
	run.catalog = catalog
	run.executor = executor.NewExecutor(catalog, executor.Options{BackupBeforeMove: options.BackupBeforeMove})

	if err = c.prepareFolders(opCtx, run); err != nil {
		tracing.TraceErr(span, err)
		return c.finish(run, result), err
	}

	for _, folder := range targets {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		err = c.processFolder(ctx, opCtx, run, folder)
		if errors.Is(err, errCancelled) {
			result.Cancelled = true
			break
		}
		if isConnectionLost(err) {
			tracing.TraceErr(span, err)
			run.emit(enum.SeverityError, "Connection lost while processing %s: %v", folder, err)
			return c.finish(run, result), err
		}
		if err != nil {
			run.stats.Errors++
			run.emit(enum.SeverityError, "Skipping folder %s: %v", folder, err)
		}
	}

	if result.Cancelled {
		run.emit(enum.SeverityWarning, "Run cancelled after %d messages", run.stats.Processed)
	}
	return c.finish(run, result), nil
}

func (c *Controller) finish(run *folderRun, result Result) Result {
	result.Stats = run.stats
	run.folder = ""
	c.summarize(run)
	return result
}

// prepareFolders creates every destination folder referenced by enabled
// rules, chains and CC routing before scanning. A dry run creates nothing.
func (c *Controller) prepareFolders(ctx context.Context, run *folderRun) error {
	options := run.snapshot.Options
	referenced := rules.ReferencedFolders(run.snapshot.Rules, run.snapshot.Chains)
	if options.CCEnabled && options.CCFolder != "" {
		referenced = append(referenced, options.CCFolder)
	}
	referenced = utils.DedupePreserveOrder(referenced)

	for _, logical := range referenced {
		if options.DryRun {
			run.emit(enum.SeverityDebug, "Would ensure folder %s exists as %s", logical, folders.Resolve(logical, run.catalog))
			continue
		}
		name, err := folders.EnsureFolder(ctx, run.mailbox, run.catalog, logical)
		if err != nil {
			if isConnectionLost(err) {
				return err
			}
			run.emit(enum.SeverityWarning, "Folder %s is unavailable: %v", logical, err)
			continue
		}
		run.emit(enum.SeverityDebug, "Folder %s ready as %s", logical, name)
	}
	return nil
}

func (c *Controller) processFolder(ctx, opCtx context.Context, run *folderRun, folder string) (folderErr error) {
	span, opCtx := opentracing.StartSpanFromContext(opCtx, "SessionController.processFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(opCtx, span)
	tracing.TagFolder(span, folder)

	run.folder = folder
	options := run.snapshot.Options

	if err := run.mailbox.SelectFolder(opCtx, folder); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "select %s", folder)
	}

	uids, err := run.mailbox.Search(opCtx, SearchCriteria(options, c.now()))
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "search %s", folder)
	}
	uids = CapMostRecent(uids, options.MaxMessages)
	run.stats.Total += len(uids)
	span.LogKV("messages", len(uids))
	run.emit(enum.SeverityInfo, "%d messages to analyze in %s", len(uids), folder)

	mutated := false
	defer func() {
		if mutated && !options.DryRun && !isConnectionLost(folderErr) {
			if err := run.mailbox.Expunge(opCtx); err != nil {
				run.emit(enum.SeverityWarning, "Expunge failed in %s: %v", folder, err)
			}
		}
	}()

	batchSize := options.EffectiveBatchSize()
	batches := (len(uids) + batchSize - 1) / batchSize
	for batch := 0; batch < batches; batch++ {
		start := batch * batchSize
		end := start + batchSize
		if end > len(uids) {
			end = len(uids)
		}
		run.emit(enum.SeverityDebug, "Batch %d/%d in %s", batch+1, batches, folder)

		for _, uid := range uids[start:end] {
			if ctx.Err() != nil {
				return errCancelled
			}

			run.stats.Processed++
			if run.stats.Processed%progressEvery == 0 {
				run.sink.Progress(dto.ProgressUpdate{
					RunID:     run.runID,
					Folder:    folder,
					Processed: run.stats.Processed,
					Total:     run.stats.Total,
					Stats:     run.stats,
				})
			}

			changed, err := c.processMessage(opCtx, run, uid)
			mutated = mutated || changed
			if err != nil {
				if isConnectionLost(err) {
					return err
				}
				run.stats.Errors++
				run.emit(enum.SeverityError, "Message %d: %v", uid, err)
			}
		}
	}
	return nil
}

func (c *Controller) processMessage(ctx context.Context, run *folderRun, uid uint32) (bool, error) {
	options := run.snapshot.Options

	fetched, err := run.mailbox.Fetch(ctx, uid, true)
	if err != nil {
		return false, errors.Wrap(err, "fetch")
	}
	message, err := projection.Build(uid, fetched.Flags, fetched.Raw)
	if err != nil {
		return false, err
	}

	resolution := c.resolver.Resolve(message, run.snapshot)
	run.stats.ChainsApplied += resolution.ChainMatches()
	run.stats.RulesApplied += resolution.RuleMatches()
	if resolution.CCMoved {
		run.stats.CCMoved++
	}
	for _, match := range resolution.Matches {
		if !match.Committed {
			run.emit(enum.SeverityDebug, "Rule %s matched %q without stopping", match.RuleName, subjectForLog(message))
		}
	}

	directive := resolution.Action
	if directive == nil {
		return false, nil
	}

	if options.DryRun {
		run.emit(enum.SeverityInfo, "[DRY RUN] %q: %s -> %s (%s)", subjectForLog(message), directive.Kind, directive.Target(), directive.RuleName)
		return false, nil
	}

	outcome, err := run.executor.Apply(ctx, run.mailbox, uid, directive, options.PreserveUnread)
	if err != nil {
		return outcome.Mutated, err
	}
	if outcome.Retried {
		run.emit(enum.SeverityWarning, "%s for %q succeeded on alternate folder %s", directive.Kind, subjectForLog(message), outcome.Folder)
	}
	run.emit(enum.SeveritySuccess, "%q: %s -> %s (%s)", subjectForLog(message), directive.Kind, directive.Target(), directive.RuleName)
	return outcome.Mutated, nil
}

func (c *Controller) summarize(run *folderRun) {
	stats := run.stats
	options := run.snapshot.Options
	run.emit(enum.SeverityInfo, "Processed %d/%d messages", stats.Processed, stats.Total)
	run.emit(enum.SeverityInfo, "CC moved: %d, rules applied: %d, chains applied: %d, errors: %d",
		stats.CCMoved, stats.RulesApplied, stats.ChainsApplied, stats.Errors)
	run.emit(enum.SeveritySuccess, "Total actions: %d", stats.TotalActions())
	if options.PreserveUnread {
		run.emit(enum.SeverityInfo, "Read state of every message was preserved")
	}
	if options.DryRun {
		run.emit(enum.SeverityWarning, "Dry run: nothing was modified")
	}
}

func (r *folderRun) emit(severity enum.Severity, format string, args ...interface{}) {
	event := events.NewEvent(severity, format, args...)
	event.RunID = r.runID
	event.Folder = r.folder
	r.sink.Emit(event)
}

// FoldersToScan lists the inbox (unless excluded) followed by the selected
// folders, without duplicates. An empty selection scans the inbox.
func FoldersToScan(options models.Options) []string {
	var targets []string
	if options.IncludeInbox {
		targets = append(targets, models.InboxFolder)
	}
	targets = utils.DedupePreserveOrder(append(targets, options.FoldersToScan...))
	if len(targets) == 0 {
		return []string{models.InboxFolder}
	}
	return targets
}

// SearchCriteria builds the server-side filter: unread only, since N days,
// both, or everything.
func SearchCriteria(options models.Options, now time.Time) interfaces.SearchCriteria {
	criteria := interfaces.SearchCriteria{UnseenOnly: options.FilterUnreadOnly}
	if options.FilterSinceDays > 0 {
		criteria.Since = now.Add(-time.Duration(options.FilterSinceDays) * oneDay)
	}
	return criteria
}

// CapMostRecent keeps the max highest ids. max <= 0 keeps everything.
func CapMostRecent(uids []uint32, max int) []uint32 {
	sorted := append([]uint32(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if max > 0 && len(sorted) > max {
		sorted = sorted[len(sorted)-max:]
	}
	return sorted
}

func subjectForLog(message *models.MessageProjection) string {
	return utils.Truncate(message.Subject, logSubjectLength)
}

func isConnectionLost(err error) bool {
	return err != nil && errors.Is(err, mailsort_errors.ErrConnectionLost)
}
