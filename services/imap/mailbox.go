package imap

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/interfaces"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
)

// Mailbox drives one authenticated IMAP session. It is not safe for
// concurrent use.
type Mailbox struct {
	client   *client.Client
	log      logger.Logger
	selected string
}

func newMailbox(c *client.Client, log logger.Logger) *Mailbox {
	return &Mailbox{client: c, log: log}
}

func (m *Mailbox) ListFolders(ctx context.Context) ([]interfaces.FolderInfo, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.ListFolders")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)

	infos := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- m.client.List("", "*", infos)
	}()

	var folders []interfaces.FolderInfo
	for info := range infos {
		folders = append(folders, interfaces.FolderInfo{
			Name:       info.Name,
			Delimiter:  info.Delimiter,
			Attributes: info.Attributes,
		})
	}
	if err := <-done; err != nil {
		err = m.wrap(err, "list folders")
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("folders.count", len(folders))
	return folders, nil
}

func (m *Mailbox) CreateFolder(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.CreateFolder")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, name)

	if err := m.client.Create(name); err != nil {
		err = m.wrap(err, "create folder "+name)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (m *Mailbox) Subscribe(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.Subscribe")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, name)

	if err := m.client.Subscribe(name); err != nil {
		err = m.wrap(err, "subscribe "+name)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (m *Mailbox) SelectFolder(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.SelectFolder")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, name)

	m.client.Timeout = selectTimeout
	status, err := m.client.Select(name, false)
	m.client.Timeout = 0
	if err != nil {
		err = m.wrap(err, "select folder "+name)
		tracing.TraceErr(span, err)
		return err
	}

	m.selected = name
	span.SetTag("messages.total", status.Messages)
	span.SetTag("messages.unseen", status.Unseen)
	m.log.Debugf("Selected folder %s - Messages: %d, Recent: %d, Unseen: %d", name, status.Messages, status.Recent, status.Unseen)
	return nil
}

func (m *Mailbox) Search(ctx context.Context, criteria interfaces.SearchCriteria) ([]uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.Search")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, m.selected)
	span.LogKV("unseenOnly", criteria.UnseenOnly, "since", criteria.Since)

	uids, err := m.client.UidSearch(buildSearchCriteria(criteria))
	if err != nil {
		err = m.wrap(err, "search "+m.selected)
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("messages.found", len(uids))
	return uids, nil
}

func (m *Mailbox) Fetch(ctx context.Context, uid uint32, preserveUnread bool) (*interfaces.FetchedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.Fetch")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, m.selected)
	span.SetTag("uid", uid)

	section := &imap.BodySectionName{Peek: preserveUnread}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(uidSet(uid), items, messages)
	}()

	var fetched *interfaces.FetchedMessage
	var readErr error
	for msg := range messages {
		if msg.Uid != uid || fetched != nil {
			continue
		}
		fetched = &interfaces.FetchedMessage{UID: msg.Uid, Flags: msg.Flags}
		if body := msg.GetBody(section); body != nil {
			fetched.Raw, readErr = io.ReadAll(body)
		}
	}
	if err := <-done; err != nil {
		err = m.wrap(err, "fetch message")
		tracing.TraceErr(span, err)
		return nil, err
	}
	if readErr != nil {
		err := errors.Wrapf(readErr, "read message %d", uid)
		tracing.TraceErr(span, err)
		return nil, err
	}
	if fetched == nil {
		err := errors.Errorf("message with UID %d not found in %s", uid, m.selected)
		tracing.TraceErr(span, err)
		return nil, err
	}
	return fetched, nil
}

func (m *Mailbox) Copy(ctx context.Context, uid uint32, destFolder string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.Copy")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, m.selected)
	span.SetTag("uid", uid)
	span.SetTag("destination", destFolder)

	if err := m.client.UidCopy(uidSet(uid), destFolder); err != nil {
		err = m.wrap(err, "copy to "+destFolder)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (m *Mailbox) SetFlag(ctx context.Context, uid uint32, flag string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.SetFlag")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, m.selected)
	span.SetTag("uid", uid)
	span.SetTag("flag", flag)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := m.client.UidStore(uidSet(uid), item, []interface{}{flag}, nil); err != nil {
		err = m.wrap(err, "store "+flag)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (m *Mailbox) Expunge(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Mailbox.Expunge")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	tracing.TagFolder(span, m.selected)

	if err := m.client.Expunge(nil); err != nil {
		err = m.wrap(err, "expunge "+m.selected)
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// Close logs out, giving up after a short timeout.
func (m *Mailbox) Close() error {
	if m.client.State() == imap.LogoutState {
		return nil
	}

	m.client.Timeout = logoutTimeout
	done := make(chan error, 1)
	go func() {
		done <- m.client.Logout()
	}()

	select {
	case err := <-done:
		if err != nil && m.client.State() != imap.LogoutState {
			return errors.Wrap(err, "logout")
		}
		return nil
	case <-time.After(logoutTimeout):
		_ = m.client.Terminate()
		return errors.New("logout timed out")
	}
}

func (m *Mailbox) wrap(err error, operation string) error {
	return classifyError(err, operation, m.client.State() == imap.LogoutState)
}

func uidSet(uid uint32) *imap.SeqSet {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	return seqSet
}

func buildSearchCriteria(c interfaces.SearchCriteria) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if c.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	if !c.Since.IsZero() {
		criteria.Since = c.Since
	}
	return criteria
}

// classifyError marks transport failures as a lost connection so the
// engine stops the run instead of skipping the folder.
func classifyError(err error, operation string, loggedOut bool) error {
	if loggedOut || isConnectionError(err) {
		return errors.Wrapf(mailsort_errors.ErrConnectionLost, "%s: %v", operation, err)
	}
	return errors.Wrap(err, operation)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, client.ErrNotLoggedIn) || errors.Is(err, io.EOF) {
		return true
	}

	errorMsg := err.Error()
	return strings.Contains(errorMsg, "connection closed") ||
		strings.Contains(errorMsg, "i/o timeout") ||
		strings.Contains(errorMsg, "EOF") ||
		strings.Contains(errorMsg, "connection reset") ||
		strings.Contains(errorMsg, "broken pipe")
}
