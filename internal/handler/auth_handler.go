package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kereva-dev/duet/internal/middleware"
	"github.com/kereva-dev/duet/internal/service"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/response"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req service.RegisterRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	userInfo, err := h.authService.Register(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, userInfo)
}

// Login handles user login
func (h *AuthHandler) Login(ctx context.Context, c *app.RequestContext) {
	var req service.LoginRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// ExternalLogin handles sign-in with an external provider token
func (h *AuthHandler) ExternalLogin(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BindAndValidate(&req); err != nil || req.Token == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.authService.ExternalLogin(ctx, req.Token)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// RequestPasswordReset handles a reset link request
func (h *AuthHandler) RequestPasswordReset(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.authService.RequestPasswordReset(ctx, req.Email); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// ResetPassword redeems a reset token
func (h *AuthHandler) ResetPassword(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BindAndValidate(&req); err != nil || req.Token == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.authService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// Logout handles user logout
func (h *AuthHandler) Logout(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	platformId := middleware.GetPlatformId(c)
	token := middleware.GetToken(c)

	if err := h.authService.Logout(ctx, userId, platformId, token); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// DeleteAccount removes the caller's account after password re-auth
func (h *AuthHandler) DeleteAccount(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	userId := middleware.GetUserId(c)
	if err := h.authService.DeleteAccount(ctx, userId, req.Password); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
