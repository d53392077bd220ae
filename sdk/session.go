package sdk

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session states
const (
	StateIdle    = "idle"
	StateOpening = "opening"
	StateOpen    = "open"
)

// typingDebounce is the input-inactivity interval after which the
// session clears its own typing flag.
const typingDebounce = 3 * time.Second

// MessageStore is the message backend the session talks to
type MessageStore interface {
	Subscribe(roomId string, onSnapshot func([]*MessageInfo), onError func(error)) (Subscription, error)
	FetchRecent(ctx context.Context, roomId string) ([]*MessageInfo, error)
	Send(ctx context.Context, req *SendRequest) (*MessageInfo, error)
	MarkRead(ctx context.Context, roomId string) error
}

// TypingSignal carries typing flags both ways
type TypingSignal interface {
	Subscribe(roomId string, onTyping func(authorId string, isTyping bool), onError func(error)) (Subscription, error)
	Set(roomId string, isTyping bool) error
}

// RoomTracker maintains per-room counters and streams the caller's
// rooms sidebar
type RoomTracker interface {
	Subscribe(onRooms func([]*RoomInfo), onError func(error)) (Subscription, error)
	ResetUnread(ctx context.Context, roomId string) error
}

// AttachmentStore uploads attachment payloads
type AttachmentStore interface {
	Upload(ctx context.Context, name, mime string, data []byte) (*Attachment, error)
}

// Renderer receives session output. Implementations draw the UI.
type Renderer interface {
	RenderMessages(msgs []*MessageInfo)
	RenderTyping(isTyping bool)
	RenderRooms(rooms []*RoomInfo)
	RenderLoading(loading bool)
	RenderError(err error)
}

// Session drives one open conversation at a time. Switching peers
// cancels the previous room's subscriptions before the new ones are
// opened, so a stale snapshot can never land in the new conversation.
type Session struct {
	userId   string
	store    MessageStore
	typing   TypingSignal
	tracker  RoomTracker
	uploads  AttachmentStore
	renderer Renderer

	mu         sync.Mutex
	state      string
	roomId     string
	peerId     string
	generation int64
	msgSub     Subscription
	typingSub  Subscription
	roomsSub   Subscription
	lastMsgs   []*MessageInfo

	typingMu    sync.Mutex
	typingSet   bool
	typingRoom  string
	typingTimer *time.Timer
}

// NewSession creates a Session for the signed-in user
func NewSession(userId string, store MessageStore, typing TypingSignal, tracker RoomTracker, uploads AttachmentStore, renderer Renderer) *Session {
	return &Session{
		userId:   userId,
		store:    store,
		typing:   typing,
		tracker:  tracker,
		uploads:  uploads,
		renderer: renderer,
		state:    StateIdle,
	}
}

// State returns the current session state
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomId returns the open room's id, empty when idle
func (s *Session) RoomId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomId
}

// Open switches the session to a conversation with peerId. Any previous
// conversation is torn down first. Read state maintenance runs in the
// background, the conversation is usable as soon as Open returns.
func (s *Session) Open(ctx context.Context, peerId string) error {
	if peerId == "" || peerId == s.userId {
		return ErrInvalidParam
	}

	// Leaving a room drops the typing flag raised in it
	s.clearTyping()

	s.mu.Lock()

	// Cancel before replace
	s.teardownLocked()

	roomId := RoomIdFor(s.userId, peerId)
	s.state = StateOpening
	s.roomId = roomId
	s.peerId = peerId
	s.generation++
	gen := s.generation
	s.lastMsgs = nil
	s.mu.Unlock()

	s.renderer.RenderLoading(true)

	// First paint comes from the recent page. A failed fetch is not
	// fatal, the subscription's initial snapshot repaints shortly.
	if msgs, err := s.store.FetchRecent(ctx, roomId); err == nil {
		s.onSnapshot(gen, msgs)
	}

	msgSub, err := s.store.Subscribe(roomId,
		func(msgs []*MessageInfo) { s.onSnapshot(gen, msgs) },
		func(err error) { s.onSubError(gen, err) },
	)
	if err != nil {
		s.abortOpen(gen)
		s.renderer.RenderLoading(false)
		return err
	}

	typingSub, err := s.typing.Subscribe(roomId,
		func(authorId string, isTyping bool) { s.onTyping(gen, authorId, isTyping) },
		func(err error) { s.onSubError(gen, err) },
	)
	if err != nil {
		msgSub.Cancel()
		s.abortOpen(gen)
		s.renderer.RenderLoading(false)
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		// A newer Open won the race, give these subscriptions up
		s.mu.Unlock()
		msgSub.Cancel()
		typingSub.Cancel()
		return ErrSubSuperseded
	}
	s.msgSub = msgSub
	s.typingSub = typingSub
	s.state = StateOpen
	s.mu.Unlock()

	s.renderer.RenderLoading(false)

	// Entering the room consumes its unread state. Fire and forget,
	// failures here must not block the conversation.
	go func() {
		background := context.WithoutCancel(ctx)
		if err := s.store.MarkRead(background, roomId); err != nil {
			s.renderer.RenderError(err)
		}
		if err := s.tracker.ResetUnread(background, roomId); err != nil {
			s.renderer.RenderError(err)
		}
	}()

	return nil
}

// WatchRooms opens the rooms sidebar feed. The feed is per user, it
// survives conversation switches and stays up until Close. Calling it
// again cancels the previous feed first.
func (s *Session) WatchRooms() error {
	s.mu.Lock()
	if s.roomsSub != nil {
		s.roomsSub.Cancel()
		s.roomsSub = nil
	}
	s.mu.Unlock()

	sub, err := s.tracker.Subscribe(
		func(rooms []*RoomInfo) { s.renderer.RenderRooms(rooms) },
		func(err error) { s.renderer.RenderError(err) },
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.roomsSub = sub
	s.mu.Unlock()
	return nil
}

// abortOpen returns to idle after a failed Open, unless a newer Open
// has already taken over.
func (s *Session) abortOpen(gen int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.state = StateIdle
	s.roomId = ""
	s.peerId = ""
}

// onSnapshot re-renders when the visible content actually changed.
// Two snapshots are the same when they agree on every message's
// identity, timestamp and read flag.
func (s *Session) onSnapshot(gen int64, msgs []*MessageInfo) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	if messagesEqual(s.lastMsgs, msgs) {
		s.mu.Unlock()
		return
	}
	s.lastMsgs = msgs
	s.mu.Unlock()

	s.renderer.RenderMessages(msgs)
}

func (s *Session) onTyping(gen int64, authorId string, isTyping bool) {
	s.mu.Lock()
	if s.generation != gen || authorId != s.peerId {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.renderer.RenderTyping(isTyping)
}

// onSubError surfaces a dead subscription. The session does not
// resubscribe, the owner reopens the conversation when it wants to.
func (s *Session) onSubError(gen int64, err error) {
	s.mu.Lock()
	stale := s.generation != gen
	s.mu.Unlock()
	if stale {
		return
	}

	s.renderer.RenderError(err)
}

// messagesEqual compares snapshots by (id, sent_at, read) per message
func messagesEqual(a, b []*MessageInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Id != b[i].Id || a[i].SentAt != b[i].SentAt || a[i].Read != b[i].Read {
			return false
		}
	}
	return true
}

// SendText sends a text message to the open conversation
func (s *Session) SendText(ctx context.Context, text string) (*MessageInfo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return s.send(ctx, text, nil)
}

// SendAttachment uploads a payload and sends a message carrying it.
// Oversized payloads fail before any upload starts.
func (s *Session) SendAttachment(ctx context.Context, text, name, mime string, data []byte) (*MessageInfo, error) {
	att, err := s.uploads.Upload(ctx, name, mime, data)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, text, att)
}

func (s *Session) send(ctx context.Context, text string, att *Attachment) (*MessageInfo, error) {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	peerId := s.peerId
	s.mu.Unlock()

	// Sending implies the author stopped typing
	s.clearTyping()

	return s.store.Send(ctx, &SendRequest{
		RecipientId: peerId,
		Text:        text,
		ClientMsgId: uuid.New().String(),
		Attachment:  att,
	})
}

// InputActivity reports a keystroke in the open conversation. The first
// call raises the typing flag, later calls push the clear deadline out.
// After typingDebounce without activity the flag drops by itself.
func (s *Session) InputActivity() {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return
	}
	roomId := s.roomId
	s.mu.Unlock()

	s.typingMu.Lock()
	defer s.typingMu.Unlock()

	if !s.typingSet {
		s.typingSet = true
		s.typingRoom = roomId
		go func() {
			if err := s.typing.Set(roomId, true); err != nil {
				s.renderer.RenderError(err)
			}
		}()
	}

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(typingDebounce, s.clearTyping)
}

// clearTyping drops the author's own typing flag. The clear targets the
// room where the flag was raised, which may no longer be the open room.
func (s *Session) clearTyping() {
	s.typingMu.Lock()
	wasSet := s.typingSet
	roomId := s.typingRoom
	s.typingSet = false
	s.typingRoom = ""
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingMu.Unlock()

	if !wasSet || roomId == "" {
		return
	}

	go func() {
		if err := s.typing.Set(roomId, false); err != nil {
			s.renderer.RenderError(err)
		}
	}()
}

// teardownLocked cancels the current subscriptions. Caller holds s.mu.
func (s *Session) teardownLocked() {
	if s.msgSub != nil {
		s.msgSub.Cancel()
		s.msgSub = nil
	}
	if s.typingSub != nil {
		s.typingSub.Cancel()
		s.typingSub = nil
	}
	s.state = StateIdle
	s.roomId = ""
	s.peerId = ""
	s.lastMsgs = nil
}

// Close leaves the open conversation, drops the rooms feed and returns
// the session to idle
func (s *Session) Close() {
	s.clearTyping()

	s.mu.Lock()
	s.generation++
	s.teardownLocked()
	if s.roomsSub != nil {
		s.roomsSub.Cancel()
		s.roomsSub = nil
	}
	s.mu.Unlock()
}
