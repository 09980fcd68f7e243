package interfaces

import (
	"context"
	"time"
)

// FolderInfo is one entry of the server's folder listing.
type FolderInfo struct {
	Name       string
	Delimiter  string
	Attributes []string
}

// SearchCriteria selects the messages of the selected folder. The zero
// value matches all messages.
type SearchCriteria struct {
	UnseenOnly bool
	Since      time.Time
}

func (c SearchCriteria) IsAll() bool {
	return !c.UnseenOnly && c.Since.IsZero()
}

type FetchedMessage struct {
	UID   uint32
	Flags []string
	Raw   []byte
}

// Mailbox is the server capability the engine drives. Message ids are UIDs
// of the currently selected folder. Calls are synchronous.
type Mailbox interface {
	ListFolders(ctx context.Context) ([]FolderInfo, error)
	CreateFolder(ctx context.Context, name string) error
	Subscribe(ctx context.Context, name string) error
	SelectFolder(ctx context.Context, name string) error
	Search(ctx context.Context, criteria SearchCriteria) ([]uint32, error)
	// Fetch retrieves flags and the raw message. With preserveUnread the
	// retrieval must not set \Seen.
	Fetch(ctx context.Context, uid uint32, preserveUnread bool) (*FetchedMessage, error)
	Copy(ctx context.Context, uid uint32, destFolder string) error
	SetFlag(ctx context.Context, uid uint32, flag string) error
	Expunge(ctx context.Context) error
	Close() error
}

// MailboxDialer opens an authenticated mailbox session.
type MailboxDialer func(ctx context.Context) (Mailbox, error)
