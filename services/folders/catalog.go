package folders

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/tracing"
)

const (
	dotPrefix   = models.InboxFolder + "."
	slashPrefix = models.InboxFolder + "/"
)

// Convention is the hierarchy style the server uses below the inbox.
type Convention int

const (
	ConventionUnknown Convention = iota
	ConventionInboxDot
	ConventionInboxSlash
)

func (c Convention) Prefix() string {
	switch c {
	case ConventionInboxSlash:
		return slashPrefix
	case ConventionInboxDot:
		return dotPrefix
	}
	return ""
}

func (c Convention) String() string {
	switch c {
	case ConventionInboxDot:
		return "INBOX."
	case ConventionInboxSlash:
		return "INBOX/"
	}
	return "unknown"
}

// Catalog is the set of folders known to exist on the server for one
// session. It changes only through discovery or a successful creation.
type Catalog struct {
	folders []interfaces.FolderInfo
}

func NewCatalog(names ...string) *Catalog {
	c := &Catalog{}
	for _, name := range names {
		c.Add(name)
	}
	return c
}

func newCatalogFromInfo(infos []interfaces.FolderInfo) *Catalog {
	c := &Catalog{}
	for _, info := range infos {
		if info.Name == "" || c.Contains(info.Name) {
			continue
		}
		c.folders = append(c.folders, info)
	}
	return c
}

// Discover lists the server folders and builds the session catalog.
func Discover(ctx context.Context, mailbox interfaces.Mailbox) (*Catalog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folders.Discover")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	infos, err := mailbox.ListFolders(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "list folders")
	}

	catalog := newCatalogFromInfo(infos)
	span.LogKV("folders", catalog.Len(), "convention", catalog.Convention().String())
	return catalog, nil
}

func (c *Catalog) Len() int {
	return len(c.folders)
}

func (c *Catalog) IsEmpty() bool {
	return len(c.folders) == 0
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.folders))
	for _, f := range c.folders {
		names = append(names, f.Name)
	}
	return names
}

func (c *Catalog) Folders() []interfaces.FolderInfo {
	return append([]interfaces.FolderInfo(nil), c.folders...)
}

// Contains reports whether name is a verbatim catalog entry.
func (c *Catalog) Contains(name string) bool {
	for _, f := range c.folders {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Mentions reports whether any catalog entry contains name as a
// case-insensitive substring.
func (c *Catalog) Mentions(name string) bool {
	needle := strings.ToLower(name)
	for _, f := range c.folders {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			return true
		}
	}
	return false
}

func (c *Catalog) Add(name string) {
	if name == "" || c.Contains(name) {
		return
	}
	c.folders = append(c.folders, interfaces.FolderInfo{Name: name})
}

// Convention is decided by the first entry that shows a qualified child
// of the inbox.
func (c *Catalog) Convention() Convention {
	for _, f := range c.folders {
		if strings.Contains(f.Name, dotPrefix) {
			return ConventionInboxDot
		}
		if strings.Contains(f.Name, slashPrefix) {
			return ConventionInboxSlash
		}
	}
	return ConventionUnknown
}
