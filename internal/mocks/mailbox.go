package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/customeros/mailsort/interfaces"
)

// MockMailbox is a testify mock of interfaces.Mailbox.
type MockMailbox struct {
	mock.Mock
}

var _ interfaces.Mailbox = (*MockMailbox)(nil)

func (m *MockMailbox) ListFolders(ctx context.Context) ([]interfaces.FolderInfo, error) {
	args := m.Called(ctx)
	folders, _ := args.Get(0).([]interfaces.FolderInfo)
	return folders, args.Error(1)
}

func (m *MockMailbox) CreateFolder(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockMailbox) Subscribe(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockMailbox) SelectFolder(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockMailbox) Search(ctx context.Context, criteria interfaces.SearchCriteria) ([]uint32, error) {
	args := m.Called(ctx, criteria)
	uids, _ := args.Get(0).([]uint32)
	return uids, args.Error(1)
}

func (m *MockMailbox) Fetch(ctx context.Context, uid uint32, preserveUnread bool) (*interfaces.FetchedMessage, error) {
	args := m.Called(ctx, uid, preserveUnread)
	msg, _ := args.Get(0).(*interfaces.FetchedMessage)
	return msg, args.Error(1)
}

func (m *MockMailbox) Copy(ctx context.Context, uid uint32, destFolder string) error {
	return m.Called(ctx, uid, destFolder).Error(0)
}

func (m *MockMailbox) SetFlag(ctx context.Context, uid uint32, flag string) error {
	return m.Called(ctx, uid, flag).Error(0)
}

func (m *MockMailbox) Expunge(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMailbox) Close() error {
	return m.Called().Error(0)
}
