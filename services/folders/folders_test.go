package folders

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailsort/interfaces"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/mocks"
)

func TestResolve_QualifiesAgainstEmptyCatalog(t *testing.T) {
	catalog := NewCatalog()
	assert.Equal(t, "INBOX.Projects/Alpha", Resolve("Projects/Alpha", catalog))

	catalog.Add("Projects/Alpha")
	assert.Equal(t, "Projects/Alpha", Resolve("Projects/Alpha", catalog))
}

func TestResolve_Rules(t *testing.T) {
	tests := []struct {
		name     string
		catalog  *Catalog
		logical  string
		expected string
	}{
		{"verbatim", NewCatalog("INBOX", "Archive"), "Archive", "Archive"},
		{"already qualified", NewCatalog(), "INBOX.Finance", "INBOX.Finance"},
		{"contains inbox token", NewCatalog("INBOX"), "Old INBOX", "Old INBOX"},
		{"leading slash", NewCatalog(), "/Finance", "/Finance"},
		{"leading dot", NewCatalog(), ".Finance", ".Finance"},
		{"leading backslash", NewCatalog(), `\Finance`, `\Finance`},
		{"empty catalog", NewCatalog(), "Finance", "INBOX.Finance"},
		{"dot convention", NewCatalog("INBOX", "INBOX.Sent"), "Finance", "INBOX.Finance"},
		{"slash convention", NewCatalog("INBOX", "INBOX/Sent", "INBOX.Odd"), "Finance", "INBOX/Finance"},
		{"flat server", NewCatalog("INBOX", "Sent", "Trash"), "Finance", "Finance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.logical, tt.catalog))
		})
	}
}

func TestAlternateName(t *testing.T) {
	assert.Equal(t, "Finance", AlternateName("INBOX.Finance", nil))
	assert.Equal(t, "Finance", AlternateName("INBOX/Finance", nil))
	assert.Equal(t, "INBOX.Finance", AlternateName("Finance", NewCatalog()))
	assert.Equal(t, "INBOX/Finance", AlternateName("Finance", NewCatalog("INBOX/Sent")))
	assert.Equal(t, "", AlternateName("INBOX", nil))
}

func TestCatalog_Mentions(t *testing.T) {
	catalog := NewCatalog("INBOX.Finance.2024")
	assert.True(t, catalog.Mentions("finance"))
	assert.True(t, catalog.Mentions("INBOX.FINANCE"))
	assert.False(t, catalog.Mentions("Billing"))
	assert.False(t, catalog.Contains("finance"))
}

func TestDiscover(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("ListFolders", mock.Anything).Return([]interfaces.FolderInfo{
		{Name: "INBOX", Delimiter: "/"},
		{Name: "INBOX/Work", Delimiter: "/"},
		{Name: "INBOX", Delimiter: "/"},
	}, nil)

	catalog, err := Discover(context.Background(), mailbox)
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX", "INBOX/Work"}, catalog.Names())
	assert.Equal(t, ConventionInboxSlash, catalog.Convention())
	mailbox.AssertExpectations(t)
}

func TestDiscover_Error(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("ListFolders", mock.Anything).Return(nil, errors.New("boom"))

	_, err := Discover(context.Background(), mailbox)
	assert.Error(t, err)
}

func TestEnsureFolder_ExistingIsNotCreated(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	catalog := NewCatalog("INBOX", "INBOX.Finance")

	name, err := EnsureFolder(context.Background(), mailbox, catalog, "finance")
	require.NoError(t, err)
	assert.Equal(t, "INBOX.finance", name)

	name, err = EnsureFolder(context.Background(), mailbox, catalog, "INBOX.Finance")
	require.NoError(t, err)
	assert.Equal(t, "INBOX.Finance", name)
	mailbox.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything)
}

func TestEnsureFolder_CreatesAndSubscribes(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("CreateFolder", mock.Anything, "INBOX.Finance").Return(nil).Once()
	mailbox.On("Subscribe", mock.Anything, "INBOX.Finance").Return(nil).Once()
	catalog := NewCatalog("INBOX", "INBOX.Sent")

	name, err := EnsureFolder(context.Background(), mailbox, catalog, "Finance")
	require.NoError(t, err)
	assert.Equal(t, "INBOX.Finance", name)
	assert.True(t, catalog.Contains("INBOX.Finance"))
	mailbox.AssertExpectations(t)
}

func TestEnsureFolder_RefusedSubscriptionIsTraced(t *testing.T) {
	tracer := mocktracer.New()
	previous := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	t.Cleanup(func() { opentracing.SetGlobalTracer(previous) })

	mailbox := mocks.NewFakeMailbox("INBOX", "INBOX.Sent")
	mailbox.SubscribeErrors["INBOX.Finance"] = errors.New("NO subscribe refused")
	catalog := NewCatalog("INBOX", "INBOX.Sent")

	name, err := EnsureFolder(context.Background(), mailbox, catalog, "Finance")
	require.NoError(t, err)
	assert.Equal(t, "INBOX.Finance", name)
	assert.True(t, catalog.Contains("INBOX.Finance"))
	assert.True(t, mailbox.HasFolder("INBOX.Finance"))

	var logged []string
	for _, span := range tracer.FinishedSpans() {
		if span.OperationName != "folders.EnsureFolder" {
			continue
		}
		for _, record := range span.Logs() {
			for _, field := range record.Fields {
				if field.Key == "subscribe.error" {
					logged = append(logged, field.ValueString)
				}
			}
		}
	}
	assert.Equal(t, []string{"NO subscribe refused"}, logged)
}

func TestEnsureFolder_RetriesUnqualified(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("CreateFolder", mock.Anything, "INBOX.Finance").Return(errors.New("NO namespace")).Once()
	mailbox.On("CreateFolder", mock.Anything, "Finance").Return(nil).Once()
	mailbox.On("Subscribe", mock.Anything, "Finance").Return(nil).Once()
	catalog := NewCatalog()

	name, err := EnsureFolder(context.Background(), mailbox, catalog, "Finance")
	require.NoError(t, err)
	assert.Equal(t, "Finance", name)
	assert.True(t, catalog.Contains("Finance"))
	assert.False(t, catalog.Contains("INBOX.Finance"))
	mailbox.AssertExpectations(t)
}

func TestEnsureFolder_FailsAfterRetry(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("CreateFolder", mock.Anything, mock.Anything).Return(errors.New("NO")).Twice()
	catalog := NewCatalog()

	_, err := EnsureFolder(context.Background(), mailbox, catalog, "Finance")
	assert.ErrorIs(t, err, mailsort_errors.ErrFolderCreation)
	assert.True(t, catalog.IsEmpty())
	mailbox.AssertNumberOfCalls(t, "CreateFolder", 2)
}

func TestEnsureFolder_NoRetryWithoutPrefix(t *testing.T) {
	mailbox := &mocks.MockMailbox{}
	mailbox.On("CreateFolder", mock.Anything, "Finance").Return(errors.New("NO")).Once()
	catalog := NewCatalog("INBOX", "Sent")

	_, err := EnsureFolder(context.Background(), mailbox, catalog, "Finance")
	assert.ErrorIs(t, err, mailsort_errors.ErrFolderCreation)
	mailbox.AssertNumberOfCalls(t, "CreateFolder", 1)
}
