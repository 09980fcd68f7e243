package executor

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
	"github.com/customeros/mailsort/services/folders"
)

const (
	FlagSeen    = `\Seen`
	FlagFlagged = `\Flagged`
	FlagDeleted = `\Deleted`
)

type Options struct {
	BackupBeforeMove bool
}

// Executor applies resolved actions to the selected folder of a mailbox.
// It never sets \Seen unless the action asks for it and the run does not
// preserve unread state.
type Executor struct {
	catalog *folders.Catalog
	options Options
}

func NewExecutor(catalog *folders.Catalog, options Options) *Executor {
	if catalog == nil {
		catalog = folders.NewCatalog()
	}
	return &Executor{catalog: catalog, options: options}
}

func (e *Executor) Apply(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) (interfaces.ActionOutcome, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Executor.Apply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("uid", uid, "action", directive.Kind.String())

	outcome, err := e.apply(ctx, mailbox, uid, directive, preserveUnread)
	if err != nil {
		tracing.TraceErr(span, err)
		if errors.Is(err, mailsort_errors.ErrConnectionLost) {
			return outcome, errors.Wrapf(err, "%s %s", directive.Kind, directive.Target())
		}
		return outcome, errors.Wrapf(mailsort_errors.ErrActionFailed, "%s %s: %v", directive.Kind, directive.Target(), err)
	}
	return outcome, nil
}

func (e *Executor) apply(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) (interfaces.ActionOutcome, error) {
	switch directive.Kind {
	case enum.ActionMove:
		return e.move(ctx, mailbox, uid, directive, preserveUnread)
	case enum.ActionCopy:
		return e.copy(ctx, mailbox, uid, directive, preserveUnread)
	case enum.ActionMarkRead:
		if preserveUnread {
			return interfaces.ActionOutcome{}, nil
		}
		return e.setFlag(ctx, mailbox, uid, FlagSeen)
	case enum.ActionMarkImportant:
		return e.setFlag(ctx, mailbox, uid, FlagFlagged)
	case enum.ActionDelete:
		return e.setFlag(ctx, mailbox, uid, FlagDeleted)
	case enum.ActionLabel:
		if directive.Folder == "" {
			return interfaces.ActionOutcome{}, errors.New("label action without a label name")
		}
		return e.setFlag(ctx, mailbox, uid, directive.Folder)
	}
	return interfaces.ActionOutcome{}, errors.Errorf("unknown action %q", directive.Kind)
}

func (e *Executor) move(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) (interfaces.ActionOutcome, error) {
	if e.options.BackupBeforeMove {
		backup, err := folders.EnsureFolder(ctx, mailbox, e.catalog, models.BackupFolder)
		if err != nil {
			return interfaces.ActionOutcome{}, errors.Wrap(err, "backup folder")
		}
		if err = mailbox.Copy(ctx, uid, backup); err != nil {
			return interfaces.ActionOutcome{}, errors.Wrapf(err, "backup copy to %s", backup)
		}
	}

	outcome, err := e.copyWithRetry(ctx, mailbox, uid, directive.Folder)
	if err != nil {
		return outcome, err
	}
	if err = mailbox.SetFlag(ctx, uid, FlagDeleted); err != nil {
		// the destination already holds a copy
		if span := opentracing.SpanFromContext(ctx); span != nil {
			span.LogKV("orphaned.copy", outcome.Folder, "orphaned.uid", uid)
		}
		return outcome, errors.Wrapf(err, "flag source deleted, duplicate left in %s", outcome.Folder)
	}
	outcome.Mutated = true
	return outcome, e.markReadAfter(ctx, mailbox, uid, directive, preserveUnread)
}

func (e *Executor) copy(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) (interfaces.ActionOutcome, error) {
	outcome, err := e.copyWithRetry(ctx, mailbox, uid, directive.Folder)
	if err != nil {
		return outcome, err
	}
	outcome.Mutated = true
	return outcome, e.markReadAfter(ctx, mailbox, uid, directive, preserveUnread)
}

// copyWithRetry copies to the resolved destination and, when that fails,
// once more to the alternate inbox qualification of the same name.
func (e *Executor) copyWithRetry(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, logicalFolder string) (interfaces.ActionOutcome, error) {
	if logicalFolder == "" {
		return interfaces.ActionOutcome{}, errors.New("no destination folder")
	}

	destination := folders.Resolve(logicalFolder, e.catalog)
	err := mailbox.Copy(ctx, uid, destination)
	if err == nil {
		return interfaces.ActionOutcome{Folder: destination}, nil
	}

	alternate := folders.AlternateName(destination, e.catalog)
	if alternate == "" || alternate == destination {
		return interfaces.ActionOutcome{}, errors.Wrapf(err, "copy to %s", destination)
	}
	if retryErr := mailbox.Copy(ctx, uid, alternate); retryErr != nil {
		return interfaces.ActionOutcome{Retried: true}, errors.Wrapf(retryErr, "copy to %s after %s failed", alternate, destination)
	}
	return interfaces.ActionOutcome{Folder: alternate, Retried: true}, nil
}

func (e *Executor) markReadAfter(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) error {
	if preserveUnread || !directive.MarkReadAfter {
		return nil
	}
	if err := mailbox.SetFlag(ctx, uid, FlagSeen); err != nil {
		return errors.Wrap(err, "mark read")
	}
	return nil
}

func (e *Executor) setFlag(ctx context.Context, mailbox interfaces.Mailbox, uid uint32, flag string) (interfaces.ActionOutcome, error) {
	if err := mailbox.SetFlag(ctx, uid, flag); err != nil {
		return interfaces.ActionOutcome{}, errors.Wrapf(err, "set %s", flag)
	}
	return interfaces.ActionOutcome{Mutated: true}, nil
}
