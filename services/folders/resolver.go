package folders

import (
	"strings"

	"github.com/customeros/mailsort/internal/models"
)

// Resolve maps a logical folder name onto the name the server is expected
// to use for it.
func Resolve(logicalName string, catalog *Catalog) string {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if catalog.Contains(logicalName) {
		return logicalName
	}
	if IsQualified(logicalName) {
		return logicalName
	}
	if catalog.IsEmpty() {
		return dotPrefix + logicalName
	}
	if prefix := catalog.Convention().Prefix(); prefix != "" {
		return prefix + logicalName
	}
	return logicalName
}

// IsQualified reports whether name already carries the inbox token or
// starts with a path separator.
func IsQualified(name string) bool {
	return strings.Contains(name, models.InboxFolder) ||
		strings.HasPrefix(name, "/") ||
		strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, `\`)
}

// AlternateName flips the inbox qualification of a resolved name: the
// prefix is stripped when present and added otherwise. The inbox itself
// has no alternate and yields "".
func AlternateName(resolved string, catalog *Catalog) string {
	if strings.EqualFold(resolved, models.InboxFolder) {
		return ""
	}
	if unqualified, ok := stripInboxPrefix(resolved); ok {
		return unqualified
	}
	prefix := dotPrefix
	if catalog != nil && catalog.Convention() == ConventionInboxSlash {
		prefix = slashPrefix
	}
	return prefix + resolved
}

func stripInboxPrefix(name string) (string, bool) {
	for _, prefix := range []string{dotPrefix, slashPrefix} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return name[len(prefix):], true
		}
	}
	return name, false
}
