package interfaces

import (
	"context"

	"github.com/customeros/mailsort/internal/models"
)

// ActionOutcome describes what an applied action did.
type ActionOutcome struct {
	Folder  string
	Retried bool
	Mutated bool
}

type ActionExecutor interface {
	Apply(ctx context.Context, mailbox Mailbox, uid uint32, directive *models.ActionDirective, preserveUnread bool) (ActionOutcome, error)
}
