package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/gateway"
	"github.com/kereva-dev/duet/internal/handler"
	"github.com/kereva-dev/duet/internal/middleware"
)

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, wsServer *gateway.WsServer) {
	cfg := config.GlobalConfig

	// CORS middleware
	h.Use(middleware.CORS())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes (no auth required)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
		authGroup.POST("/external", handlers.Auth.ExternalLogin)
		authGroup.POST("/password/forgot", handlers.Auth.RequestPasswordReset)
		authGroup.POST("/password/reset", handlers.Auth.ResetPassword)
	}

	// Auth routes (auth required)
	authedAuthGroup := h.Group("/auth", middleware.JWTAuth())
	{
		authedAuthGroup.POST("/logout", handlers.Auth.Logout)
		authedAuthGroup.POST("/delete", handlers.Auth.DeleteAccount)
	}

	// User routes (auth required)
	userGroup := h.Group("/user", middleware.JWTAuth())
	{
		userGroup.GET("/profile", handlers.User.GetProfile)
		userGroup.PUT("/profile", handlers.User.UpdateProfile)
		userGroup.GET("/profile/:id", handlers.User.GetUser)
		userGroup.GET("/preferences", handlers.User.GetPreferences)
		userGroup.PUT("/preferences", handlers.User.UpdatePreferences)
		userGroup.GET("/privacy", handlers.User.GetPrivacy)
		userGroup.PUT("/privacy", handlers.User.UpdatePrivacy)
		userGroup.GET("/list", handlers.User.ListUsers)
		userGroup.GET("/activity", handlers.User.Activity)
		userGroup.POST("/avatar", handlers.User.UploadAvatar)
		userGroup.DELETE("/avatar", handlers.User.RemoveAvatar)
	}

	// Chat routes (auth required)
	chatGroup := h.Group("/chat", middleware.JWTAuth())
	{
		chatGroup.POST("/send", handlers.Chat.Send)
		chatGroup.GET("/messages", handlers.Chat.FetchRecent)
		chatGroup.POST("/mark_read", handlers.Chat.MarkRead)
		chatGroup.POST("/reset_unread", handlers.Chat.ResetUnread)
		chatGroup.GET("/rooms", handlers.Chat.ListRooms)
	}

	// Blob routes (auth required)
	blobGroup := h.Group("/blob", middleware.JWTAuth())
	{
		blobGroup.POST("/upload", handlers.Blob.Upload)
		blobGroup.GET("/:ref", handlers.Blob.Get)
	}

	// WebSocket route using hertz-contrib/websocket with proper origin validation
	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}

	h.GET("/ws", func(ctx context.Context, c *app.RequestContext) {
		wsServer.HandleHertzConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// If no origin header, allow (same-origin request or non-browser client)
	if origin == "" {
		return true
	}

	// If no allowed origins configured, reject all cross-origin requests in production
	if len(allowedOrigins) == 0 {
		return false
	}

	// Check against allowed origins
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			// Wildcard - allow all (only use in development!)
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
	Chat *handler.ChatHandler
	Blob *handler.BlobHandler
}
