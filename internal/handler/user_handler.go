package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/internal/middleware"
	"github.com/kereva-dev/duet/internal/service"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/response"
)

// UserHandler handles profile and directory requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's own profile
func (h *UserHandler) GetProfile(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)

	info, err := h.userService.GetProfile(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	if info == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUserNotFound)
		return
	}

	response.Success(ctx, c, info)
}

// GetUser returns another user's profile, privacy applied
func (h *UserHandler) GetUser(ctx context.Context, c *app.RequestContext) {
	targetId := c.Param("id")
	if targetId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.userService.GetUser(ctx, middleware.GetUserId(c), targetId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// UpdateProfile applies a partial profile edit
func (h *UserHandler) UpdateProfile(ctx context.Context, c *app.RequestContext) {
	var req service.UpdateProfileRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.userService.UpdateProfile(ctx, middleware.GetUserId(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// GetPreferences returns the caller's preferences
func (h *UserHandler) GetPreferences(ctx context.Context, c *app.RequestContext) {
	prefs, err := h.userService.GetPreferences(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, prefs)
}

// UpdatePreferences replaces the caller's preferences
func (h *UserHandler) UpdatePreferences(ctx context.Context, c *app.RequestContext) {
	var req entity.Preferences
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.userService.UpdatePreferences(ctx, middleware.GetUserId(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// GetPrivacy returns the caller's privacy switches
func (h *UserHandler) GetPrivacy(ctx context.Context, c *app.RequestContext) {
	privacy, err := h.userService.GetPrivacy(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, privacy)
}

// UpdatePrivacy replaces the caller's privacy switches
func (h *UserHandler) UpdatePrivacy(ctx context.Context, c *app.RequestContext) {
	var req entity.Privacy
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.userService.UpdatePrivacy(ctx, middleware.GetUserId(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// ListUsers returns the chat directory
func (h *UserHandler) ListUsers(ctx context.Context, c *app.RequestContext) {
	users, err := h.userService.ListUsers(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, users)
}

// Activity returns the caller's recent audit entries
func (h *UserHandler) Activity(ctx context.Context, c *app.RequestContext) {
	acts, err := h.userService.Activity(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, acts)
}

// UploadAvatar stores the raw request body as the caller's avatar
func (h *UserHandler) UploadAvatar(ctx context.Context, c *app.RequestContext) {
	data := c.Request.Body()
	if len(data) == 0 {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	ref, err := h.userService.SetAvatar(ctx, middleware.GetUserId(c), data)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]string{"ref": ref})
}

// RemoveAvatar clears the caller's avatar
func (h *UserHandler) RemoveAvatar(ctx context.Context, c *app.RequestContext) {
	if err := h.userService.RemoveAvatar(ctx, middleware.GetUserId(c)); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
