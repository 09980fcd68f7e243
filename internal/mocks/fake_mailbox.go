package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/customeros/mailsort/interfaces"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
)

const (
	flagSeen    = `\Seen`
	flagDeleted = `\Deleted`
)

type fakeMessage struct {
	uid   uint32
	flags map[string]struct{}
	date  time.Time
	raw   []byte
}

type fakeFolder struct {
	messages []*fakeMessage
	nextUID  uint32
}

// FakeMailbox is an in-memory mailbox server with failure injection.
type FakeMailbox struct {
	mu       sync.Mutex
	folders  map[string]*fakeFolder
	order    []string
	selected string
	lost     bool

	// CreateErrors makes CreateFolder fail for the given names.
	CreateErrors map[string]error
	// SubscribeErrors makes Subscribe fail for the given names.
	SubscribeErrors map[string]error
	// CopyFailures makes the next n copies to a folder fail.
	CopyFailures map[string]int
	SelectErrors map[string]error
	SearchErrors map[string]error
	FetchErrors  map[uint32]error
	// LoseConnectionOnFetch drops the connection when that uid is fetched.
	LoseConnectionOnFetch uint32
	// OnFetch runs after every successful fetch.
	OnFetch func(uid uint32)

	Calls        []string
	SeenSetCount int
}

func NewFakeMailbox(folders ...string) *FakeMailbox {
	f := &FakeMailbox{
		folders:         map[string]*fakeFolder{},
		CreateErrors:    map[string]error{},
		SubscribeErrors: map[string]error{},
		CopyFailures:    map[string]int{},
		SelectErrors:    map[string]error{},
		SearchErrors:    map[string]error{},
		FetchErrors:     map[uint32]error{},
	}
	for _, name := range folders {
		f.addFolder(name)
	}
	return f
}

func (f *FakeMailbox) addFolder(name string) {
	if _, ok := f.folders[name]; ok {
		return
	}
	f.folders[name] = &fakeFolder{nextUID: 1}
	f.order = append(f.order, name)
}

// AddMessage stores a message and returns its uid.
func (f *FakeMailbox) AddMessage(folder string, raw string, date time.Time, flags ...string) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addFolder(folder)
	return f.appendMessage(folder, []byte(raw), date, flags)
}

func (f *FakeMailbox) appendMessage(folder string, raw []byte, date time.Time, flags []string) uint32 {
	target := f.folders[folder]
	msg := &fakeMessage{uid: target.nextUID, flags: map[string]struct{}{}, date: date, raw: raw}
	for _, flag := range flags {
		msg.flags[flag] = struct{}{}
	}
	target.nextUID++
	target.messages = append(target.messages, msg)
	return msg.uid
}

func (f *FakeMailbox) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeMailbox) check() error {
	if f.lost {
		return mailsort_errors.ErrConnectionLost
	}
	return nil
}

func (f *FakeMailbox) ListFolders(_ context.Context) ([]interfaces.FolderInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	f.record("LIST")
	infos := make([]interfaces.FolderInfo, 0, len(f.order))
	for _, name := range f.order {
		infos = append(infos, interfaces.FolderInfo{Name: name, Delimiter: "."})
	}
	return infos, nil
}

func (f *FakeMailbox) CreateFolder(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("CREATE %s", name)
	if err, ok := f.CreateErrors[name]; ok {
		return err
	}
	if _, ok := f.folders[name]; ok {
		return errors.Errorf("folder %s already exists", name)
	}
	f.addFolder(name)
	return nil
}

func (f *FakeMailbox) Subscribe(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("SUBSCRIBE %s", name)
	if err, ok := f.SubscribeErrors[name]; ok {
		return err
	}
	return nil
}

func (f *FakeMailbox) SelectFolder(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("SELECT %s", name)
	if err, ok := f.SelectErrors[name]; ok {
		return err
	}
	if _, ok := f.folders[name]; !ok {
		return errors.Errorf("no such folder %s", name)
	}
	f.selected = name
	return nil
}

func (f *FakeMailbox) Search(_ context.Context, criteria interfaces.SearchCriteria) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	f.record("SEARCH %s", f.selected)
	if err, ok := f.SearchErrors[f.selected]; ok {
		return nil, err
	}
	folder, ok := f.folders[f.selected]
	if !ok {
		return nil, errors.New("no folder selected")
	}
	var uids []uint32
	for _, msg := range folder.messages {
		if _, seen := msg.flags[flagSeen]; seen && criteria.UnseenOnly {
			continue
		}
		if !criteria.Since.IsZero() && msg.date.Before(criteria.Since) {
			continue
		}
		uids = append(uids, msg.uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

// Fetch marks the message seen unless preserveUnread is set, like a
// plain BODY[] fetch would.
func (f *FakeMailbox) Fetch(_ context.Context, uid uint32, preserveUnread bool) (*interfaces.FetchedMessage, error) {
	f.mu.Lock()
	if err := f.check(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.record("FETCH %d", uid)
	if f.LoseConnectionOnFetch != 0 && f.LoseConnectionOnFetch == uid {
		f.lost = true
		f.mu.Unlock()
		return nil, mailsort_errors.ErrConnectionLost
	}
	if err, ok := f.FetchErrors[uid]; ok {
		f.mu.Unlock()
		return nil, err
	}
	msg := f.find(uid)
	if msg == nil {
		f.mu.Unlock()
		return nil, errors.Errorf("no message %d", uid)
	}
	if !preserveUnread {
		if _, seen := msg.flags[flagSeen]; !seen {
			msg.flags[flagSeen] = struct{}{}
			f.SeenSetCount++
		}
	}
	fetched := &interfaces.FetchedMessage{UID: uid, Flags: flagList(msg.flags), Raw: msg.raw}
	onFetch := f.OnFetch
	f.mu.Unlock()

	if onFetch != nil {
		onFetch(uid)
	}
	return fetched, nil
}

func (f *FakeMailbox) Copy(_ context.Context, uid uint32, destFolder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("COPY %d %s", uid, destFolder)
	if n := f.CopyFailures[destFolder]; n > 0 {
		f.CopyFailures[destFolder] = n - 1
		return errors.Errorf("copy to %s refused", destFolder)
	}
	if _, ok := f.folders[destFolder]; !ok {
		return errors.Errorf("no such folder %s", destFolder)
	}
	msg := f.find(uid)
	if msg == nil {
		return errors.Errorf("no message %d", uid)
	}
	f.appendMessage(destFolder, msg.raw, msg.date, flagList(msg.flags))
	return nil
}

func (f *FakeMailbox) SetFlag(_ context.Context, uid uint32, flag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("STORE %d %s", uid, flag)
	msg := f.find(uid)
	if msg == nil {
		return errors.Errorf("no message %d", uid)
	}
	if flag == flagSeen {
		if _, seen := msg.flags[flagSeen]; !seen {
			f.SeenSetCount++
		}
	}
	msg.flags[flag] = struct{}{}
	return nil
}

func (f *FakeMailbox) Expunge(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.record("EXPUNGE %s", f.selected)
	folder, ok := f.folders[f.selected]
	if !ok {
		return nil
	}
	kept := folder.messages[:0]
	for _, msg := range folder.messages {
		if _, deleted := msg.flags[flagDeleted]; !deleted {
			kept = append(kept, msg)
		}
	}
	folder.messages = kept
	return nil
}

func (f *FakeMailbox) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LOGOUT")
	return nil
}

func (f *FakeMailbox) find(uid uint32) *fakeMessage {
	folder, ok := f.folders[f.selected]
	if !ok {
		return nil
	}
	for _, msg := range folder.messages {
		if msg.uid == uid {
			return msg
		}
	}
	return nil
}

// Count returns the number of messages in a folder.
func (f *FakeMailbox) Count(folder string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if target, ok := f.folders[folder]; ok {
		return len(target.messages)
	}
	return 0
}

func (f *FakeMailbox) HasFolder(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.folders[name]
	return ok
}

// Flags returns the flags of a message in a folder.
func (f *FakeMailbox) Flags(folder string, uid uint32) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if target, ok := f.folders[folder]; ok {
		for _, msg := range target.messages {
			if msg.uid == uid {
				return flagList(msg.flags)
			}
		}
	}
	return nil
}

// Mutations returns the recorded calls that change server state.
func (f *FakeMailbox) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mutations []string
	for _, call := range f.Calls {
		for _, prefix := range []string{"CREATE", "SUBSCRIBE", "COPY", "STORE", "EXPUNGE"} {
			if strings.HasPrefix(call, prefix) {
				mutations = append(mutations, call)
			}
		}
	}
	return mutations
}

func flagList(flags map[string]struct{}) []string {
	list := make([]string, 0, len(flags))
	for flag := range flags {
		list = append(list, flag)
	}
	sort.Strings(list)
	return list
}
