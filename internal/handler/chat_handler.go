package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kereva-dev/duet/internal/middleware"
	"github.com/kereva-dev/duet/internal/service"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/response"
)

// ChatHandler handles chat requests over HTTP. The live snapshot streams
// run over the WebSocket gateway, these endpoints cover one-shot calls.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send appends one message
func (h *ChatHandler) Send(ctx context.Context, c *app.RequestContext) {
	var req service.SendRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.chatService.Send(ctx, middleware.GetUserId(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, msg)
}

// FetchRecent returns the newest page of a room, oldest first
func (h *ChatHandler) FetchRecent(ctx context.Context, c *app.RequestContext) {
	roomId := string(c.Query("room_id"))
	if roomId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msgs, err := h.chatService.FetchRecent(ctx, middleware.GetUserId(c), roomId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, msgs)
}

// MarkRead flags everything addressed to the caller in a room
func (h *ChatHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	var req struct {
		RoomId string `json:"room_id"`
	}
	if err := c.BindAndValidate(&req); err != nil || req.RoomId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.chatService.MarkRead(ctx, middleware.GetUserId(c), req.RoomId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// ResetUnread zeroes the caller's unread counter on a room
func (h *ChatHandler) ResetUnread(ctx context.Context, c *app.RequestContext) {
	var req struct {
		RoomId string `json:"room_id"`
	}
	if err := c.BindAndValidate(&req); err != nil || req.RoomId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.chatService.ResetUnread(ctx, middleware.GetUserId(c), req.RoomId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// ListRooms returns all rooms the caller takes part in
func (h *ChatHandler) ListRooms(ctx context.Context, c *app.RequestContext) {
	rooms, err := h.chatService.RoomsSnapshot(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, rooms)
}
