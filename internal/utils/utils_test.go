package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupePreserveOrder(t *testing.T) {
	got := DedupePreserveOrder([]string{"INBOX", " Archive ", "", "INBOX", "Work", "Archive"})
	assert.Equal(t, []string{"INBOX", "Archive", "Work"}, got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("anything", 0))
}

func TestGenerateNanoIdWithPrefix(t *testing.T) {
	id := GenerateNanoIdWithPrefix("run", 12)
	assert.True(t, strings.HasPrefix(id, "run_"))
	assert.Len(t, id, len("run_")+12)
}

func TestSliceToStringRoundTrip(t *testing.T) {
	assert.Equal(t, "INBOX,Archive", SliceToString([]string{"INBOX", "Archive"}))
	assert.Equal(t, []string{"INBOX", "Archive"}, StringToSlice("INBOX,Archive"))
	assert.Equal(t, []string{}, StringToSlice(""))
}
