package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/kereva-dev/duet/internal/blob"
	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/email"
	"github.com/kereva-dev/duet/internal/gateway"
	"github.com/kereva-dev/duet/internal/handler"
	"github.com/kereva-dev/duet/internal/repository"
	"github.com/kereva-dev/duet/internal/router"
	"github.com/kereva-dev/duet/internal/service"
	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/mbeoliero/kit/log"
)

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	// Check database connection
	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Initialize blob store
	blobStore, err := blob.NewStore(cfg.Blob.Dir, cfg.Blob.MaxAttachmentSize)
	if err != nil {
		log.CtxError(ctx, "failed to initialize blob store: %v", err)
		panic(err)
	}

	// Initialize mail sender
	mailer := email.NewSender(cfg.SMTP)

	// Initialize services
	authService := service.NewAuthService(repos, cfg, mailer)
	userService := service.NewUserService(repos, blobStore)
	chatService := service.NewChatService(repos, cfg)

	// Initialize WebSocket server and wire it as the snapshot notifier
	wsServer := gateway.NewWsServer(cfg, chatService, userService, authService)
	authService.SetNotifier(wsServer)
	userService.SetNotifier(wsServer)
	chatService.SetNotifier(wsServer)

	// Start WebSocket server
	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket server started")

	// Initialize handlers
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
		Chat: handler.NewChatHandler(chatService),
		Blob: handler.NewBlobHandler(blobStore),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers, wsServer)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
