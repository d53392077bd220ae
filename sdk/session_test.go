package sdk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	mu       sync.Mutex
	canceled int
}

func (f *fakeSub) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled++
}

func (f *fakeSub) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

type fakeStore struct {
	mu         sync.Mutex
	subs       []*fakeSub
	onSnapshot func([]*MessageInfo)
	recent     []*MessageInfo
	fetched    []string
	sent       []*SendRequest
	markedRead []string
	subErr     error
}

func (f *fakeStore) FetchRecent(ctx context.Context, roomId string) ([]*MessageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, roomId)
	return f.recent, nil
}

func (f *fakeStore) Subscribe(roomId string, onSnapshot func([]*MessageInfo), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	sub := &fakeSub{}
	f.subs = append(f.subs, sub)
	f.onSnapshot = onSnapshot
	return sub, nil
}

func (f *fakeStore) Send(ctx context.Context, req *SendRequest) (*MessageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return &MessageInfo{Id: 1, SenderId: "alice", RecipientId: req.RecipientId, Text: req.Text}, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, roomId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, roomId)
	return nil
}

func (f *fakeStore) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeStore) markReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.markedRead)
}

func (f *fakeStore) snapshot(msgs []*MessageInfo) {
	f.mu.Lock()
	cb := f.onSnapshot
	f.mu.Unlock()
	cb(msgs)
}

type typingWrite struct {
	roomId   string
	isTyping bool
}

type fakeTyping struct {
	mu       sync.Mutex
	subs     []*fakeSub
	onTyping func(authorId string, isTyping bool)
	set      []typingWrite
}

func (f *fakeTyping) Subscribe(roomId string, onTyping func(string, bool), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{}
	f.subs = append(f.subs, sub)
	f.onTyping = onTyping
	return sub, nil
}

func (f *fakeTyping) Set(roomId string, isTyping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = append(f.set, typingWrite{roomId: roomId, isTyping: isTyping})
	return nil
}

func (f *fakeTyping) setFlags() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, 0, len(f.set))
	for _, w := range f.set {
		out = append(out, w.isTyping)
	}
	return out
}

func (f *fakeTyping) writes() []typingWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]typingWrite, len(f.set))
	copy(out, f.set)
	return out
}

func (f *fakeTyping) signal(authorId string, isTyping bool) {
	f.mu.Lock()
	cb := f.onTyping
	f.mu.Unlock()
	cb(authorId, isTyping)
}

type fakeTracker struct {
	mu      sync.Mutex
	reset   []string
	subs    []*fakeSub
	onRooms func([]*RoomInfo)
}

func (f *fakeTracker) Subscribe(onRooms func([]*RoomInfo), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{}
	f.subs = append(f.subs, sub)
	f.onRooms = onRooms
	return sub, nil
}

func (f *fakeTracker) rooms(rooms []*RoomInfo) {
	f.mu.Lock()
	cb := f.onRooms
	f.mu.Unlock()
	cb(rooms)
}

func (f *fakeTracker) ResetUnread(ctx context.Context, roomId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset = append(f.reset, roomId)
	return nil
}

func (f *fakeTracker) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reset)
}

type fakeUploads struct {
	mu       sync.Mutex
	uploaded int
	err      error
}

func (f *fakeUploads) Upload(ctx context.Context, name, mime string, data []byte) (*Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded++
	return &Attachment{Name: name, Mime: mime, Size: int64(len(data)), Ref: "ref-1"}, nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	rendered [][]*MessageInfo
	typing   []bool
	rooms    [][]*RoomInfo
	loading  []bool
	errs     []error
}

func (f *fakeRenderer) RenderMessages(msgs []*MessageInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, msgs)
}

func (f *fakeRenderer) RenderTyping(isTyping bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, isTyping)
}

func (f *fakeRenderer) RenderRooms(rooms []*RoomInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, rooms)
}

func (f *fakeRenderer) RenderLoading(loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = append(f.loading, loading)
}

func (f *fakeRenderer) RenderError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *fakeRenderer) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rendered)
}

func (f *fakeRenderer) typingFlags() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.typing))
	copy(out, f.typing)
	return out
}

func (f *fakeRenderer) loadingFlags() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.loading))
	copy(out, f.loading)
	return out
}

type sessionFixture struct {
	session  *Session
	store    *fakeStore
	typing   *fakeTyping
	tracker  *fakeTracker
	uploads  *fakeUploads
	renderer *fakeRenderer
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		store:    &fakeStore{},
		typing:   &fakeTyping{},
		tracker:  &fakeTracker{},
		uploads:  &fakeUploads{},
		renderer: &fakeRenderer{},
	}
	f.session = NewSession("alice", f.store, f.typing, f.tracker, f.uploads, f.renderer)
	return f
}

func TestOpenSubscribesAndConsumesUnread(t *testing.T) {
	f := newSessionFixture()

	require.NoError(t, f.session.Open(context.Background(), "bob"))
	assert.Equal(t, StateOpen, f.session.State())
	assert.Equal(t, "dm_alice:bob", f.session.RoomId())

	assert.Len(t, f.store.subs, 1)
	assert.Len(t, f.typing.subs, 1)

	// Read state maintenance runs in the background after Open returns.
	assert.Eventually(t, func() bool {
		return f.store.markReadCount() == 1 && f.tracker.resetCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOpenSignalsLoading(t *testing.T) {
	f := newSessionFixture()

	require.NoError(t, f.session.Open(context.Background(), "bob"))
	assert.Equal(t, []bool{true, false}, f.renderer.loadingFlags())

	// A failed open still turns the loading state off.
	f2 := newSessionFixture()
	f2.store.subErr = ErrConnClosed
	assert.Error(t, f2.session.Open(context.Background(), "bob"))
	assert.Equal(t, []bool{true, false}, f2.renderer.loadingFlags())
}

func TestOpenRendersRecentPage(t *testing.T) {
	f := newSessionFixture()
	f.store.recent = []*MessageInfo{
		{Id: 1, SentAt: 100, Text: "hi"},
		{Id: 2, SentAt: 200, Text: "there"},
	}

	require.NoError(t, f.session.Open(context.Background(), "bob"))

	require.Equal(t, []string{"dm_alice:bob"}, f.store.fetched)
	require.Equal(t, 1, f.renderer.renderCount())
	assert.Equal(t, f.store.recent, f.renderer.rendered[0])

	// The initial live snapshot repeats the page, the dedup holds.
	f.store.snapshot([]*MessageInfo{
		{Id: 1, SentAt: 100, Text: "hi"},
		{Id: 2, SentAt: 200, Text: "there"},
	})
	assert.Equal(t, 1, f.renderer.renderCount())
}

func TestWatchRooms(t *testing.T) {
	f := newSessionFixture()

	require.NoError(t, f.session.WatchRooms())
	require.Len(t, f.tracker.subs, 1)

	rooms := []*RoomInfo{{RoomId: "dm_alice:bob"}}
	f.tracker.rooms(rooms)

	f.renderer.mu.Lock()
	got := len(f.renderer.rooms)
	f.renderer.mu.Unlock()
	assert.Equal(t, 1, got)

	// Re-watching replaces the feed, cancel before replace.
	require.NoError(t, f.session.WatchRooms())
	assert.Equal(t, 1, f.tracker.subs[0].cancelCount())
	require.Len(t, f.tracker.subs, 2)

	// The feed survives conversation switches but not Close.
	require.NoError(t, f.session.Open(context.Background(), "bob"))
	assert.Equal(t, 0, f.tracker.subs[1].cancelCount())
	f.session.Close()
	assert.Equal(t, 1, f.tracker.subs[1].cancelCount())
}

func TestOpenRejectsBadPeer(t *testing.T) {
	f := newSessionFixture()

	assert.Error(t, f.session.Open(context.Background(), ""))
	assert.Error(t, f.session.Open(context.Background(), "alice"))
	assert.Equal(t, StateIdle, f.session.State())
}

func TestSnapshotDedup(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	msgs := []*MessageInfo{
		{Id: 1, SentAt: 100, Read: true},
		{Id: 2, SentAt: 200, Read: false},
	}
	f.store.snapshot(msgs)
	assert.Equal(t, 1, f.renderer.renderCount())

	// Same tuples, no re-render.
	same := []*MessageInfo{
		{Id: 1, SentAt: 100, Read: true},
		{Id: 2, SentAt: 200, Read: false},
	}
	f.store.snapshot(same)
	assert.Equal(t, 1, f.renderer.renderCount())

	// A flipped read flag is a visible change.
	flipped := []*MessageInfo{
		{Id: 1, SentAt: 100, Read: true},
		{Id: 2, SentAt: 200, Read: true},
	}
	f.store.snapshot(flipped)
	assert.Equal(t, 2, f.renderer.renderCount())

	// So is a new message.
	grown := append(flipped, &MessageInfo{Id: 3, SentAt: 300})
	f.store.snapshot(grown)
	assert.Equal(t, 3, f.renderer.renderCount())
}

func TestSwitchPeerCancelsOldSubscriptions(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	oldMsgSub := f.store.subs[0]
	oldTypingSub := f.typing.subs[0]
	oldSnapshot := f.store.onSnapshot

	require.NoError(t, f.session.Open(context.Background(), "carol"))
	assert.Equal(t, "dm_alice:carol", f.session.RoomId())
	assert.Equal(t, 1, oldMsgSub.cancelCount())
	assert.Equal(t, 1, oldTypingSub.cancelCount())

	// A late snapshot from the old room is discarded.
	oldSnapshot([]*MessageInfo{{Id: 9, SentAt: 1}})
	assert.Equal(t, 0, f.renderer.renderCount())

	f.store.snapshot([]*MessageInfo{{Id: 10, SentAt: 2}})
	assert.Equal(t, 1, f.renderer.renderCount())
}

func TestTypingFiltersNonPeer(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	f.typing.signal("bob", true)
	f.typing.signal("mallory", true)
	f.typing.signal("bob", false)

	assert.Equal(t, []bool{true, false}, f.renderer.typingFlags())
}

func TestSendTextValidation(t *testing.T) {
	f := newSessionFixture()

	// No open conversation yet.
	_, err := f.session.SendText(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, f.session.Open(context.Background(), "bob"))

	_, err = f.session.SendText(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, f.store.sentCount())

	msg, err := f.session.SendText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)

	require.Len(t, f.store.sent, 1)
	sent := f.store.sent[0]
	assert.Equal(t, "bob", sent.RecipientId)
	assert.NotEmpty(t, sent.ClientMsgId)
	assert.Nil(t, sent.Attachment)
}

func TestSendAttachment(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	msg, err := f.session.SendAttachment(context.Background(), "", "photo.png", "image/png", []byte("bytes"))
	require.NoError(t, err)
	assert.NotNil(t, msg)

	require.Len(t, f.store.sent, 1)
	att := f.store.sent[0].Attachment
	require.NotNil(t, att)
	assert.Equal(t, "photo.png", att.Name)
	assert.Equal(t, "ref-1", att.Ref)
}

func TestSendAttachmentUploadFailureSkipsSend(t *testing.T) {
	f := newSessionFixture()
	f.uploads.err = ErrAttachmentTooLarge
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	_, err := f.session.SendAttachment(context.Background(), "", "big.bin", "application/octet-stream", []byte("x"))
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)
	assert.Equal(t, 0, f.store.sentCount())
}

func TestInputActivityRaisesTypingOnce(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	f.session.InputActivity()
	f.session.InputActivity()
	f.session.InputActivity()

	assert.Eventually(t, func() bool {
		return len(f.typing.setFlags()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []bool{true}, f.typing.setFlags())

	// Sending clears the author's flag.
	_, err := f.session.SendText(context.Background(), "done typing")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		flags := f.typing.setFlags()
		return len(flags) == 2 && !flags[1]
	}, time.Second, 10*time.Millisecond)
}

func TestSwitchingRoomsClearsTypingInOldRoom(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	f.session.InputActivity()
	assert.Eventually(t, func() bool {
		return len(f.typing.writes()) == 1
	}, time.Second, 10*time.Millisecond)

	// Switching before the debounce expires must drop the flag in the
	// room where it was raised, not in the new one.
	require.NoError(t, f.session.Open(context.Background(), "carol"))

	assert.Eventually(t, func() bool {
		return len(f.typing.writes()) == 2
	}, time.Second, 10*time.Millisecond)

	writes := f.typing.writes()
	assert.Equal(t, typingWrite{roomId: "dm_alice:bob", isTyping: true}, writes[0])
	assert.Equal(t, typingWrite{roomId: "dm_alice:bob", isTyping: false}, writes[1])
}

func TestCloseClearsTypingInOpenRoom(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	f.session.InputActivity()
	assert.Eventually(t, func() bool {
		return len(f.typing.writes()) == 1
	}, time.Second, 10*time.Millisecond)

	f.session.Close()

	assert.Eventually(t, func() bool {
		writes := f.typing.writes()
		return len(writes) == 2 && writes[1] == typingWrite{roomId: "dm_alice:bob", isTyping: false}
	}, time.Second, 10*time.Millisecond)
}

func TestInputActivityIgnoredWhenIdle(t *testing.T) {
	f := newSessionFixture()

	f.session.InputActivity()
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.typing.setFlags())
}

func TestCloseTearsDown(t *testing.T) {
	f := newSessionFixture()
	require.NoError(t, f.session.Open(context.Background(), "bob"))

	msgSub := f.store.subs[0]
	typingSub := f.typing.subs[0]

	f.session.Close()
	assert.Equal(t, StateIdle, f.session.State())
	assert.Empty(t, f.session.RoomId())
	assert.Equal(t, 1, msgSub.cancelCount())
	assert.Equal(t, 1, typingSub.cancelCount())

	// Callbacks from the closed conversation are dropped.
	f.store.snapshot([]*MessageInfo{{Id: 9, SentAt: 1}})
	assert.Equal(t, 0, f.renderer.renderCount())
}

func TestSubscribeFailureAbortsOpen(t *testing.T) {
	f := newSessionFixture()
	f.store.subErr = ErrConnClosed

	err := f.session.Open(context.Background(), "bob")
	assert.ErrorIs(t, err, ErrConnClosed)
	assert.Equal(t, StateIdle, f.session.State())
	assert.Empty(t, f.session.RoomId())
}

// A first-contact conversation from end to end: open an empty room,
// watch the peer type, receive their message, answer it.
func TestFirstContactFlow(t *testing.T) {
	f := newSessionFixture()

	require.NoError(t, f.session.WatchRooms())
	require.NoError(t, f.session.Open(context.Background(), "bob"))
	assert.Equal(t, []bool{true, false}, f.renderer.loadingFlags())

	// Read state is consumed on entry even when the room is empty.
	assert.Eventually(t, func() bool {
		return f.store.markReadCount() == 1 && f.tracker.resetCount() == 1
	}, time.Second, 10*time.Millisecond)

	// The peer starts typing, then their message lands.
	f.typing.signal("bob", true)
	f.typing.signal("bob", false)
	hello := []*MessageInfo{{Id: 1, SenderId: "bob", RecipientId: "alice", Text: "hello", SentAt: 100}}
	f.store.snapshot(hello)

	assert.Equal(t, []bool{true, false}, f.renderer.typingFlags())
	require.Equal(t, 1, f.renderer.renderCount())
	assert.Equal(t, "hello", f.renderer.rendered[0][0].Text)

	// The sidebar reflects the new room.
	f.tracker.rooms([]*RoomInfo{{RoomId: "dm_alice:bob", LastMessage: "hello"}})
	f.renderer.mu.Lock()
	sidebars := len(f.renderer.rooms)
	f.renderer.mu.Unlock()
	assert.Equal(t, 1, sidebars)

	// Answer and verify the reply targets the peer.
	msg, err := f.session.SendText(context.Background(), "hi bob")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", msg.Text)
	require.Len(t, f.store.sent, 1)
	assert.Equal(t, "bob", f.store.sent[0].RecipientId)
}
