package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mbeoliero/kit/log"
)

// Client represents a connected WebSocket client
type Client struct {
	mu         sync.Mutex
	conn       ClientConn
	UserId     string
	PlatformId int
	Token      string
	ConnId     string
	server     *WsServer
	closed     atomic.Bool
	closedErr  error
	ctx        context.Context
	cancel     context.CancelFunc

	subMu sync.Mutex
	subs  map[string]*Subscription
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId string, platformId int, token, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:       conn,
		UserId:     userId,
		PlatformId: platformId,
		Token:      token,
		ConnId:     connId,
		server:     server,
		ctx:        ctx,
		cancel:     cancel,
		subs:       make(map[string]*Subscription),
	}
}

// readLoop continuously reads messages from the connection
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}

		if err := c.handleMessage(message); err != nil {
			log.CtxWarn(c.ctx, "handle message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}
	}
}

// handleMessage handles a single incoming message
func (c *Client) handleMessage(message []byte) error {
	var req WSRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return c.replyError(&req, ErrInvalidProtocol)
	}

	// Validate sender Id matches authenticated user
	if req.SendId != "" && req.SendId != c.UserId {
		return c.replyError(&req, ErrUserIdMismatch)
	}

	log.CtxDebug(c.ctx, "received message: req_identifier=%d, user_id=%s", req.ReqIdentifier, c.UserId)

	var resp []byte
	var err error

	switch req.ReqIdentifier {
	case WSSubscribeMessages:
		resp, err = c.server.HandleSubscribeMessages(c.ctx, c, &req)
	case WSSubscribeTyping:
		resp, err = c.server.HandleSubscribeTyping(c.ctx, c, &req)
	case WSSubscribeRooms:
		resp, err = c.server.HandleSubscribeRooms(c.ctx, c, &req)
	case WSSubscribeDirectory:
		resp, err = c.server.HandleSubscribeDirectory(c.ctx, c, &req)
	case WSUnsubscribe:
		resp, err = c.server.HandleUnsubscribe(c.ctx, c, &req)
	case WSSetTyping:
		resp, err = c.server.HandleSetTyping(c.ctx, c, &req)
	default:
		return c.replyError(&req, ErrInvalidProtocol)
	}

	return c.reply(&req, err, resp)
}

// reply sends a response to the client
func (c *Client) reply(req *WSRequest, err error, data []byte) error {
	resp := WSResponse{
		ReqIdentifier: req.ReqIdentifier,
		MsgIncr:       req.MsgIncr,
		Data:          data,
	}

	if err != nil {
		resp.ErrCode = 1
		resp.ErrMsg = err.Error()
	}

	return c.writeResponse(resp)
}

// replyError sends an error response
func (c *Client) replyError(req *WSRequest, err error) error {
	resp := WSResponse{
		ReqIdentifier: req.ReqIdentifier,
		MsgIncr:       req.MsgIncr,
		ErrCode:       1,
		ErrMsg:        err.Error(),
	}
	return c.writeResponse(resp)
}

// writeResponse writes a response to the connection
func (c *Client) writeResponse(resp WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(data)
}

// Push sends an unsolicited snapshot to the client
func (c *Client) Push(pushIdentifier int32, payload interface{}) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return c.writeResponse(WSResponse{
		ReqIdentifier: pushIdentifier,
		Data:          data,
	})
}

// newSub creates and tracks a subscription owned by this client
func (c *Client) newSub(kind, key string) *Subscription {
	return &Subscription{
		SubId:  uuid.New().String(),
		Kind:   kind,
		Key:    key,
		Client: c,
	}
}

func (c *Client) trackSub(sub *Subscription) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subs[sub.SubId] = sub
}

func (c *Client) untrackSub(subId string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	delete(c.subs, subId)
}

// getSub looks a subscription up by id
func (c *Client) getSub(subId string) (*Subscription, bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	sub, ok := c.subs[subId]
	return sub, ok
}

// takeSubs empties and returns the client's subscription set
func (c *Client) takeSubs() []*Subscription {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	out := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		out = append(out, sub)
	}
	c.subs = make(map[string]*Subscription)
	return out
}

// KickOnline sends kick message and closes connection
func (c *Client) KickOnline() error {
	c.writeResponse(WSResponse{ReqIdentifier: WSKickOnline})
	return c.Close()
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	c.closed.Store(true)
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.server.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
