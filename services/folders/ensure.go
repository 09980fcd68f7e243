package folders

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/interfaces"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/tracing"
)

// EnsureFolder makes sure the folder for a logical name exists and returns
// the name actions should target. A folder mentioned anywhere in the
// catalog counts as present. Creation falls back once to the unqualified
// name when the inbox-qualified one is refused.
func EnsureFolder(ctx context.Context, mailbox interfaces.Mailbox, catalog *Catalog, logicalName string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folders.EnsureFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFolder(span, logicalName)

	if logicalName == "" {
		return "", nil
	}
	if catalog.Contains(logicalName) {
		return logicalName, nil
	}

	resolved := Resolve(logicalName, catalog)
	if catalog.Mentions(logicalName) || catalog.Mentions(resolved) {
		return resolved, nil
	}

	err := createAndSubscribe(ctx, mailbox, catalog, resolved)
	if err == nil {
		return resolved, nil
	}

	if unqualified, ok := stripInboxPrefix(resolved); ok {
		if retryErr := createAndSubscribe(ctx, mailbox, catalog, unqualified); retryErr == nil {
			span.LogKV("created", unqualified)
			return unqualified, nil
		}
	}

	tracing.TraceErr(span, err)
	if errors.Is(err, mailsort_errors.ErrConnectionLost) {
		return resolved, errors.Wrapf(err, "create %s", resolved)
	}
	return resolved, errors.Wrapf(mailsort_errors.ErrFolderCreation, "%s: %v", resolved, err)
}

func createAndSubscribe(ctx context.Context, mailbox interfaces.Mailbox, catalog *Catalog, name string) error {
	if err := mailbox.CreateFolder(ctx, name); err != nil {
		return err
	}
	// a refused subscription does not undo the creation
	if err := mailbox.Subscribe(ctx, name); err != nil {
		if span := opentracing.SpanFromContext(ctx); span != nil {
			span.LogKV("subscribe.folder", name, "subscribe.error", err.Error())
		}
	}
	catalog.Add(name)
	return nil
}
