package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/internal/repository"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// SnapshotNotifier is implemented by the gateway. Services call it after
// every mutation so live subscribers get a fresh snapshot pushed.
type SnapshotNotifier interface {
	MessagesChanged(roomId string)
	RoomsChanged(userIds ...string)
	TypingChanged(roomId, authorId string, state *entity.TypingState)
	DirectoryChanged()
}

// ChatService handles two-party messaging
type ChatService struct {
	repos    *repository.Repositories
	cfg      *config.Config
	notifier SnapshotNotifier
}

// NewChatService creates a new ChatService
func NewChatService(repos *repository.Repositories, cfg *config.Config) *ChatService {
	return &ChatService{repos: repos, cfg: cfg}
}

// SetNotifier wires the live-push notifier. Called once at startup.
func (s *ChatService) SetNotifier(n SnapshotNotifier) {
	s.notifier = n
}

// SendRequest carries one outgoing message
type SendRequest struct {
	RecipientId string             `json:"recipient_id"`
	Text        string             `json:"text"`
	ClientMsgId string             `json:"client_msg_id,omitempty"`
	Attachment  *entity.Attachment `json:"attachment,omitempty"`
}

// Send validates, appends and fans out one message. Room metadata upkeep
// is best effort: a failed room update is logged, the message itself has
// already landed and is the source of truth.
func (s *ChatService) Send(ctx context.Context, senderId string, req *SendRequest) (*entity.MessageInfo, error) {
	if req.RecipientId == "" || req.RecipientId == senderId {
		return nil, errcode.ErrInvalidParam
	}
	if strings.TrimSpace(req.Text) == "" && req.Attachment == nil {
		return nil, errcode.ErrEmptyMessage
	}

	recipient, err := s.repos.User.GetById(ctx, req.RecipientId)
	if err != nil {
		log.CtxError(ctx, "get recipient failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if recipient == nil {
		return nil, errcode.ErrUserNotFound
	}

	roomId := entity.GenRoomId(senderId, req.RecipientId)

	// Retried sends with the same client id return the stored row
	if req.ClientMsgId != "" {
		existing, err := s.repos.Message.GetByClientMsgId(ctx, roomId, req.ClientMsgId)
		if err != nil {
			log.CtxError(ctx, "idempotency lookup failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		if existing != nil {
			return existing.ToMessageInfo(), nil
		}
	}

	msg := &entity.Message{
		RoomId:      roomId,
		ClientMsgId: req.ClientMsgId,
		SenderId:    senderId,
		RecipientId: req.RecipientId,
		Text:        req.Text,
		SentAt:      entity.NowUnixMilli(),
	}
	if req.Attachment != nil {
		msg.AttachName = req.Attachment.Name
		msg.AttachSize = req.Attachment.Size
		msg.AttachMime = req.Attachment.Mime
		msg.AttachRef = req.Attachment.Ref
	}

	if err := s.repos.Message.Append(ctx, msg); err != nil {
		log.CtxError(ctx, "append message failed: %v", err)
		return nil, errcode.ErrSendFailed
	}

	preview := s.preview(msg)
	if err := s.repos.Room.UpsertOnSend(ctx, roomId, senderId, preview, msg.SentAt); err != nil {
		log.CtxError(ctx, "room upsert failed: room_id=%s, error=%v", roomId, err)
		// Message already stored, don't fail the send
	}

	if s.notifier != nil {
		s.notifier.MessagesChanged(roomId)
		s.notifier.RoomsChanged(senderId, req.RecipientId)
	}

	log.CtxInfo(ctx, "message sent: room_id=%s, msg_id=%d", roomId, msg.Id)
	return msg.ToMessageInfo(), nil
}

// preview renders the room's last-message line. Attachment-only messages
// fall back to the attachment name.
func (s *ChatService) preview(msg *entity.Message) string {
	text := msg.Text
	if strings.TrimSpace(text) == "" && msg.HasAttachment() {
		text = fmt.Sprintf("[Attachment: %s]", msg.AttachName)
	}
	max := s.cfg.Chat.PreviewMaxLen
	if len(text) > max {
		runes := []rune(text)
		if len(runes) > max {
			text = string(runes[:max])
		}
	}
	return text
}

// FetchRecent returns the newest page of a room in oldest-first order
func (s *ChatService) FetchRecent(ctx context.Context, userId, roomId string) ([]*entity.MessageInfo, error) {
	if !entity.IsParticipant(roomId, userId) {
		return nil, errcode.ErrNotParticipant
	}

	msgs, err := s.repos.Message.FetchRecent(ctx, roomId, s.cfg.Chat.FetchLimit)
	if err != nil {
		log.CtxError(ctx, "fetch recent failed: room_id=%s, error=%v", roomId, err)
		return nil, errcode.ErrFetchFailed
	}

	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		infos = append(infos, m.ToMessageInfo())
	}
	return infos, nil
}

// MessagesSnapshot returns the full message history of a room for a
// live subscription push.
func (s *ChatService) MessagesSnapshot(ctx context.Context, userId, roomId string) ([]*entity.MessageInfo, error) {
	if !entity.IsParticipant(roomId, userId) {
		return nil, errcode.ErrNotParticipant
	}

	msgs, err := s.repos.Message.ListAll(ctx, roomId)
	if err != nil {
		log.CtxError(ctx, "messages snapshot failed: room_id=%s, error=%v", roomId, err)
		return nil, errcode.ErrFetchFailed
	}

	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		infos = append(infos, m.ToMessageInfo())
	}
	return infos, nil
}

// MarkRead flags everything addressed to the reader in the room
func (s *ChatService) MarkRead(ctx context.Context, userId, roomId string) error {
	if !entity.IsParticipant(roomId, userId) {
		return errcode.ErrNotParticipant
	}

	n, err := s.repos.Message.MarkRead(ctx, roomId, userId)
	if err != nil {
		log.CtxError(ctx, "mark read failed: room_id=%s, error=%v", roomId, err)
		return errcode.ErrMarkReadFailed
	}

	if n > 0 && s.notifier != nil {
		s.notifier.MessagesChanged(roomId)
	}
	return nil
}

// ResetUnread zeroes the reader's unread counter on the room
func (s *ChatService) ResetUnread(ctx context.Context, userId, roomId string) error {
	if !entity.IsParticipant(roomId, userId) {
		return errcode.ErrNotParticipant
	}

	room, err := s.repos.Room.GetByRoomId(ctx, roomId)
	if err != nil {
		log.CtxError(ctx, "get room failed: room_id=%s, error=%v", roomId, err)
		return errcode.ErrInternalServer
	}
	if room == nil {
		// No messages yet, nothing to reset
		return nil
	}

	if err := s.repos.Room.ResetUnread(ctx, roomId, userId); err != nil {
		log.CtxError(ctx, "reset unread failed: room_id=%s, error=%v", roomId, err)
		return errcode.ErrInternalServer
	}

	if s.notifier != nil {
		s.notifier.RoomsChanged(room.UserLow, room.UserHigh)
	}
	return nil
}

// RoomsSnapshot returns all rooms a user takes part in
func (s *ChatService) RoomsSnapshot(ctx context.Context, userId string) ([]*entity.RoomInfo, error) {
	rooms, err := s.repos.Room.ListByParticipant(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list rooms failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.ToRoomInfo())
	}
	return infos, nil
}

// SetTyping writes the author's typing flag and fans it out to the peer
func (s *ChatService) SetTyping(ctx context.Context, userId, roomId string, isTyping bool) error {
	if !entity.IsParticipant(roomId, userId) {
		return errcode.ErrNotParticipant
	}

	if err := s.repos.Typing.Set(ctx, roomId, userId, isTyping); err != nil {
		log.CtxError(ctx, "set typing failed: room_id=%s, error=%v", roomId, err)
		return errcode.ErrInternalServer
	}

	if s.notifier != nil {
		s.notifier.TypingChanged(roomId, userId, &entity.TypingState{
			IsTyping: isTyping,
			At:       entity.NowUnixMilli(),
		})
	}
	return nil
}

// TypingSnapshot reads the peer's current typing flag, already filtered
// for staleness.
func (s *ChatService) TypingSnapshot(ctx context.Context, userId, roomId string) (*entity.TypingState, error) {
	if !entity.IsParticipant(roomId, userId) {
		return nil, errcode.ErrNotParticipant
	}

	peer := entity.PeerOf(roomId, userId)
	state, err := s.repos.Typing.Get(ctx, roomId, peer)
	if err != nil {
		log.CtxError(ctx, "get typing failed: room_id=%s, error=%v", roomId, err)
		return nil, errcode.ErrInternalServer
	}

	if !state.Fresh(entity.NowUnixMilli(), s.cfg.Chat.TypingStaleWindow) {
		return &entity.TypingState{IsTyping: false}, nil
	}
	return state, nil
}
