package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/internal/service"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// snapshotTask asks a worker to re-query state and push it to the
// subscriptions it affects.
type snapshotTask struct {
	Kind     string
	Key      string
	AuthorId string              // typing only
	Typing   *entity.TypingState // typing only, pushed without a query
}

// WsServer is the WebSocket server. It implements service.SnapshotNotifier:
// every mutation enqueues a snapshot task and workers push fresh state to
// the affected subscriptions.
type WsServer struct {
	cfg            *config.Config
	hub            *Hub
	registerChan   chan *Client
	unregisterChan chan *Client
	snapshotChan   chan *snapshotTask
	chatService    *service.ChatService
	userService    *service.UserService
	authService    *service.AuthService
	onlineUserNum  atomic.Int64
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, chatService *service.ChatService, userService *service.UserService, authService *service.AuthService) *WsServer {
	return &WsServer{
		cfg:            cfg,
		hub:            NewHub(),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		snapshotChan:   make(chan *snapshotTask, cfg.WebSocket.PushChannelSize),
		chatService:    chatService,
		userService:    userService,
		authService:    authService,
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
}

// Run starts the WebSocket server
func (s *WsServer) Run(ctx context.Context) {
	// Start event loop
	go s.eventLoop(ctx)
	// Start snapshot workers
	workerNum := s.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go s.snapshotLoop(ctx)
	}
	log.Info("started %d snapshot workers", workerNum)
}

// eventLoop handles client registration and unregistration
func (s *WsServer) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		}
	}
}

// snapshotLoop handles async snapshot pushing
func (s *WsServer) snapshotLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.snapshotChan:
			s.processSnapshotTask(ctx, task)
		}
	}
}

// processSnapshotTask re-queries the state named by the task and pushes a
// full snapshot to each affected subscription.
func (s *WsServer) processSnapshotTask(ctx context.Context, task *snapshotTask) {
	switch task.Kind {
	case KindMessages:
		for _, sub := range s.hub.Subs(KindMessages, task.Key) {
			msgs, err := s.chatService.MessagesSnapshot(ctx, sub.Client.UserId, task.Key)
			if err != nil {
				log.CtxWarn(ctx, "messages snapshot failed: room_id=%s, error=%v", task.Key, err)
				continue
			}
			s.pushSub(ctx, sub, WSPushMessages, &MessagesPush{
				SubId:    sub.SubId,
				RoomId:   task.Key,
				Messages: msgs,
			})
		}

	case KindTyping:
		// Typing state travels with the task, no query needed. The author's
		// own subscriptions are skipped, a writer never observes itself.
		for _, sub := range s.hub.Subs(KindTyping, task.Key) {
			if sub.Client.UserId == task.AuthorId {
				continue
			}
			s.pushSub(ctx, sub, WSPushTyping, &TypingPush{
				SubId:    sub.SubId,
				RoomId:   task.Key,
				AuthorId: task.AuthorId,
				IsTyping: task.Typing.IsTyping,
				At:       task.Typing.At,
			})
		}

	case KindRooms:
		for _, sub := range s.hub.Subs(KindRooms, task.Key) {
			rooms, err := s.chatService.RoomsSnapshot(ctx, sub.Client.UserId)
			if err != nil {
				log.CtxWarn(ctx, "rooms snapshot failed: user_id=%s, error=%v", task.Key, err)
				continue
			}
			s.pushSub(ctx, sub, WSPushRooms, &RoomsPush{
				SubId: sub.SubId,
				Rooms: rooms,
			})
		}

	case KindDirectory:
		for _, sub := range s.hub.Subs(KindDirectory, "") {
			users, err := s.userService.ListUsers(ctx, sub.Client.UserId)
			if err != nil {
				log.CtxWarn(ctx, "directory snapshot failed: error=%v", err)
				continue
			}
			s.pushSub(ctx, sub, WSPushDirectory, &DirectoryPush{
				SubId: sub.SubId,
				Users: users,
			})
		}
	}
}

func (s *WsServer) pushSub(ctx context.Context, sub *Subscription, pushIdentifier int32, payload interface{}) {
	if err := sub.Client.Push(pushIdentifier, payload); err != nil {
		log.CtxDebug(ctx, "push failed: user_id=%s, sub_id=%s, error=%v", sub.Client.UserId, sub.SubId, err)
	}
}

// enqueue queues a snapshot task, dropping it when the queue is full
func (s *WsServer) enqueue(task *snapshotTask) {
	select {
	case s.snapshotChan <- task:
	default:
		log.Warn("snapshot channel full, task dropped: kind=%s, key=%s", task.Kind, task.Key)
	}
}

// MessagesChanged implements service.SnapshotNotifier
func (s *WsServer) MessagesChanged(roomId string) {
	s.enqueue(&snapshotTask{Kind: KindMessages, Key: roomId})
}

// RoomsChanged implements service.SnapshotNotifier
func (s *WsServer) RoomsChanged(userIds ...string) {
	for _, userId := range userIds {
		s.enqueue(&snapshotTask{Kind: KindRooms, Key: userId})
	}
}

// TypingChanged implements service.SnapshotNotifier
func (s *WsServer) TypingChanged(roomId, authorId string, state *entity.TypingState) {
	s.enqueue(&snapshotTask{Kind: KindTyping, Key: roomId, AuthorId: authorId, Typing: state})
}

// DirectoryChanged implements service.SnapshotNotifier
func (s *WsServer) DirectoryChanged() {
	s.enqueue(&snapshotTask{Kind: KindDirectory})
}

// registerClient registers a client
func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	// Single device per platform policy: kick older same-platform conns
	for _, existing := range s.hub.UserClients(client.UserId) {
		if existing.PlatformId == client.PlatformId && existing.ConnId != client.ConnId {
			log.CtxInfo(ctx, "kicking older connection: user_id=%s, conn_id=%s", client.UserId, existing.ConnId)
			existing.KickOnline()
		}
	}

	firstConn := s.hub.RegisterClient(client)
	if firstConn {
		s.onlineUserNum.Add(1)
	}
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: user_id=%s, platform_id=%d, conn_id=%s, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// unregisterClient unregisters a client
func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	isUserOffline := s.hub.UnregisterClient(client)
	s.onlineConnNum.Add(-1)

	if isUserOffline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, platform_id=%d, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, isUserOffline, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// HandleHertzConnection handles a WebSocket upgrade from Hertz
func (s *WsServer) HandleHertzConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	// Check connection limit
	if s.onlineConnNum.Load() >= s.maxConnNum {
		c.String(503, "connection limit exceeded")
		return
	}

	// Parse query parameters
	token := string(c.Query(QueryToken))
	sendId := string(c.Query(QuerySendId))
	platformIdStr := string(c.Query(QueryPlatformId))

	if token == "" || sendId == "" {
		c.String(400, "missing required parameters")
		return
	}

	platformId := 0
	if platformIdStr != "" {
		platformId, _ = strconv.Atoi(platformIdStr)
	}

	// Validate token against the store so kicked tokens cannot connect
	claims, err := s.authService.ValidateToken(ctx, token)
	if err != nil || claims.UserId != sendId {
		log.CtxDebug(ctx, "token validation failed: send_id=%s, error=%v", sendId, err)
		c.String(401, "unauthorized")
		return
	}
	_ = platformId

	err = upgrader.Upgrade(c, func(conn *websocket.Conn) {
		connId := uuid.New().String()
		wsConn := NewHertzClientConn(conn, s.cfg.WebSocket.MaxMessageSize, s.cfg.WebSocket.WriteChannelSize, PongWait, PingPeriod)
		client := NewClient(wsConn, claims.UserId, claims.PlatformId, token, connId, s)

		s.registerChan <- client

		// Blocking message loop, returns when the connection dies
		client.readLoop()
	})

	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}
}

// GetOnlineUserCount returns online user count
func (s *WsServer) GetOnlineUserCount() int64 {
	return s.onlineUserNum.Load()
}

// GetOnlineConnCount returns online connection count
func (s *WsServer) GetOnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}

// ========== Subscription Handlers ==========

// HandleSubscribeMessages opens a message snapshot stream for a room
func (s *WsServer) HandleSubscribeMessages(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var subReq SubscribeMessagesReq
	if err := json.Unmarshal(req.Data, &subReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}
	if !entity.IsParticipant(subReq.RoomId, client.UserId) {
		return nil, errcode.ErrNotParticipant
	}

	sub := client.newSub(KindMessages, subReq.RoomId)
	s.hub.AddSub(sub)

	// Initial snapshot arrives as the first push
	s.enqueue(&snapshotTask{Kind: KindMessages, Key: subReq.RoomId})

	return json.Marshal(SubscribeResp{SubId: sub.SubId})
}

// HandleSubscribeTyping opens a typing stream for a room
func (s *WsServer) HandleSubscribeTyping(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var subReq SubscribeTypingReq
	if err := json.Unmarshal(req.Data, &subReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}
	if !entity.IsParticipant(subReq.RoomId, client.UserId) {
		return nil, errcode.ErrNotParticipant
	}

	sub := client.newSub(KindTyping, subReq.RoomId)
	s.hub.AddSub(sub)

	// Push the peer's current flag so a fresh subscriber starts in sync
	if state, err := s.chatService.TypingSnapshot(ctx, client.UserId, subReq.RoomId); err == nil {
		s.pushSub(ctx, sub, WSPushTyping, &TypingPush{
			SubId:    sub.SubId,
			RoomId:   subReq.RoomId,
			AuthorId: entity.PeerOf(subReq.RoomId, client.UserId),
			IsTyping: state.IsTyping,
			At:       state.At,
		})
	}

	return json.Marshal(SubscribeResp{SubId: sub.SubId})
}

// HandleSubscribeRooms opens a room list stream for the caller
func (s *WsServer) HandleSubscribeRooms(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	sub := client.newSub(KindRooms, client.UserId)
	s.hub.AddSub(sub)

	s.enqueue(&snapshotTask{Kind: KindRooms, Key: client.UserId})

	return json.Marshal(SubscribeResp{SubId: sub.SubId})
}

// HandleSubscribeDirectory opens a user directory stream
func (s *WsServer) HandleSubscribeDirectory(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	sub := client.newSub(KindDirectory, "")
	s.hub.AddSub(sub)

	s.enqueue(&snapshotTask{Kind: KindDirectory})

	return json.Marshal(SubscribeResp{SubId: sub.SubId})
}

// HandleUnsubscribe cancels one of the caller's subscriptions
func (s *WsServer) HandleUnsubscribe(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var unsubReq UnsubscribeReq
	if err := json.Unmarshal(req.Data, &unsubReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	sub, ok := client.getSub(unsubReq.SubId)
	if !ok {
		return nil, ErrUnknownSub
	}
	s.hub.RemoveSub(sub)

	return json.Marshal(struct{}{})
}

// HandleSetTyping writes the caller's typing flag
func (s *WsServer) HandleSetTyping(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var typingReq SetTypingReq
	if err := json.Unmarshal(req.Data, &typingReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.chatService.SetTyping(ctx, client.UserId, typingReq.RoomId, typingReq.IsTyping); err != nil {
		return nil, err
	}

	return json.Marshal(struct{}{})
}
