package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Live protocol identifiers, mirrored from the gateway
const (
	wsSubscribeMessages  = 1001
	wsUnsubscribe        = 1002
	wsSubscribeTyping    = 1003
	wsSubscribeRooms     = 1004
	wsSubscribeDirectory = 1005
	wsSetTyping          = 1006

	wsPushMessages  = 2001
	wsPushTyping    = 2002
	wsPushRooms     = 2003
	wsPushDirectory = 2004
	wsKickOnline    = 2005
)

// typingStaleWindow is the maximum age of a typing signal before it is
// treated as not-typing regardless of the flag.
const typingStaleWindow = 10 * time.Second

const liveCallTimeout = 10 * time.Second

// earlyPushLimit bounds the number of pushes held for subscriptions
// whose handshake has not completed yet.
const earlyPushLimit = 64

// Live connection errors
var (
	ErrConnClosed    = errors.New("live connection closed")
	ErrKicked        = errors.New("kicked by newer login")
	ErrCallTimeout   = errors.New("live call timed out")
	ErrNotConnected  = errors.New("live connection not established")
	ErrSubSuperseded = errors.New("subscription cancelled")
)

type wsRequest struct {
	ReqIdentifier int32           `json:"req_identifier"`
	MsgIncr       string          `json:"msg_incr"`
	SendId        string          `json:"send_id"`
	Data          json.RawMessage `json:"data,omitempty"`
}

type wsResponse struct {
	ReqIdentifier int32           `json:"req_identifier"`
	MsgIncr       string          `json:"msg_incr"`
	ErrCode       int             `json:"err_code"`
	ErrMsg        string          `json:"err_msg,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

type messagesPush struct {
	SubId    string         `json:"sub_id"`
	RoomId   string         `json:"room_id"`
	Messages []*MessageInfo `json:"messages"`
}

type typingPush struct {
	SubId    string `json:"sub_id"`
	RoomId   string `json:"room_id"`
	AuthorId string `json:"author_id"`
	IsTyping bool   `json:"is_typing"`
	At       int64  `json:"at"`
}

type roomsPush struct {
	SubId string      `json:"sub_id"`
	Rooms []*RoomInfo `json:"rooms"`
}

type directoryPush struct {
	SubId string      `json:"sub_id"`
	Users []*UserInfo `json:"users"`
}

// LiveConn is a WebSocket connection carrying snapshot subscriptions.
// Pushes always hold full snapshots, a subscriber never patches state.
type LiveConn struct {
	conn    *websocket.Conn
	userId  string
	msgIncr atomic.Int64

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *wsResponse

	subMu sync.Mutex
	subs  map[string]*liveSub
	early map[string]*wsResponse

	closeOnce sync.Once
	closedErr error
	done      chan struct{}
}

// Connect dials the live endpoint using the client's session token
func (c *Client) Connect() (*LiveConn, error) {
	if c.token == "" || c.userId == "" {
		return nil, ErrUnauthorized
	}

	wsURL, err := c.liveURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial live endpoint: %w", err)
	}

	lc := &LiveConn{
		conn:    conn,
		userId:  c.userId,
		pending: make(map[string]chan *wsResponse),
		subs:    make(map[string]*liveSub),
		early:   make(map[string]*wsResponse),
		done:    make(chan struct{}),
	}

	go lc.readLoop()

	return lc, nil
}

func (c *Client) liveURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", c.token)
	q.Set("send_id", c.userId)
	q.Set("platform_id", strconv.Itoa(c.platformId))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readLoop dispatches replies to waiting calls and pushes to subscriptions
func (lc *LiveConn) readLoop() {
	defer func() {
		err := lc.closedErr
		if err == nil {
			err = ErrConnClosed
		}
		lc.shutdown(err)
	}()

	for {
		_, data, err := lc.conn.ReadMessage()
		if err != nil {
			if lc.closedErr == nil {
				lc.closedErr = err
			}
			return
		}

		var resp wsResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}

		if resp.MsgIncr != "" {
			lc.deliverReply(&resp)
			continue
		}

		switch resp.ReqIdentifier {
		case wsPushMessages, wsPushTyping, wsPushRooms, wsPushDirectory:
			lc.dispatchPush(&resp)
		case wsKickOnline:
			lc.closedErr = ErrKicked
			return
		}
	}
}

func (lc *LiveConn) deliverReply(resp *wsResponse) {
	lc.pendingMu.Lock()
	ch, ok := lc.pending[resp.MsgIncr]
	if ok {
		delete(lc.pending, resp.MsgIncr)
	}
	lc.pendingMu.Unlock()

	if ok {
		ch <- resp
	}
}

// dispatchPush routes a push to the subscription named in its payload
func (lc *LiveConn) dispatchPush(resp *wsResponse) {
	var head struct {
		SubId string `json:"sub_id"`
	}
	if err := json.Unmarshal(resp.Data, &head); err != nil {
		return
	}

	lc.subMu.Lock()
	sub, ok := lc.subs[head.SubId]
	if !ok {
		// The subscribe ack may still be in flight on the caller's
		// goroutine. Pushes carry full snapshots, so holding only the
		// latest per sub id loses nothing; subscribe flushes it once
		// the handshake completes.
		if _, held := lc.early[head.SubId]; held || len(lc.early) < earlyPushLimit {
			lc.early[head.SubId] = resp
		}
		lc.subMu.Unlock()
		return
	}
	lc.subMu.Unlock()

	sub.deliver(resp)
}

// call sends a request and waits for its correlated reply
func (lc *LiveConn) call(reqIdentifier int32, payload interface{}) (*wsResponse, error) {
	select {
	case <-lc.done:
		return nil, lc.closedErr
	default:
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msgIncr := strconv.FormatInt(lc.msgIncr.Add(1), 10)
	req := wsRequest{
		ReqIdentifier: reqIdentifier,
		MsgIncr:       msgIncr,
		SendId:        lc.userId,
		Data:          data,
	}

	ch := make(chan *wsResponse, 1)
	lc.pendingMu.Lock()
	lc.pending[msgIncr] = ch
	lc.pendingMu.Unlock()

	if err := lc.write(&req); err != nil {
		lc.pendingMu.Lock()
		delete(lc.pending, msgIncr)
		lc.pendingMu.Unlock()
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp == nil {
			// Channel closed during connection shutdown
			return nil, lc.closedErr
		}
		if resp.ErrCode != 0 {
			return nil, NewError(resp.ErrCode, resp.ErrMsg)
		}
		return resp, nil
	case <-time.After(liveCallTimeout):
		lc.pendingMu.Lock()
		delete(lc.pending, msgIncr)
		lc.pendingMu.Unlock()
		return nil, ErrCallTimeout
	case <-lc.done:
		return nil, lc.closedErr
	}
}

func (lc *LiveConn) write(req *wsRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	lc.writeMu.Lock()
	defer lc.writeMu.Unlock()
	return lc.conn.WriteMessage(websocket.TextMessage, data)
}

// subscribe performs the subscribe handshake and registers the sub
func (lc *LiveConn) subscribe(reqIdentifier int32, payload interface{}, onSnap func(*wsResponse), onErr func(error)) (*liveSub, error) {
	resp, err := lc.call(reqIdentifier, payload)
	if err != nil {
		return nil, err
	}

	var ack struct {
		SubId string `json:"sub_id"`
	}
	if err := json.Unmarshal(resp.Data, &ack); err != nil || ack.SubId == "" {
		return nil, fmt.Errorf("malformed subscribe ack")
	}

	sub := &liveSub{
		subId:  ack.SubId,
		conn:   lc,
		onSnap: onSnap,
		onErr:  onErr,
	}

	lc.subMu.Lock()
	lc.subs[ack.SubId] = sub
	held, raced := lc.early[ack.SubId]
	if raced {
		delete(lc.early, ack.SubId)
	}
	lc.subMu.Unlock()

	// A push that beat the registration is the initial snapshot,
	// deliver it now instead of dropping it.
	if raced {
		sub.deliver(held)
	}

	return sub, nil
}

// SubscribeMessages streams full message snapshots for one room. The
// first snapshot arrives shortly after the subscribe returns.
func (lc *LiveConn) SubscribeMessages(roomId string, onSnapshot func([]*MessageInfo), onError func(error)) (Subscription, error) {
	return lc.subscribe(wsSubscribeMessages,
		map[string]string{"room_id": roomId},
		func(resp *wsResponse) {
			var push messagesPush
			if err := json.Unmarshal(resp.Data, &push); err != nil {
				return
			}
			onSnapshot(push.Messages)
		},
		onError,
	)
}

// SubscribeTyping streams the peer's typing flag for one room. Stale
// flags are reported as not-typing.
func (lc *LiveConn) SubscribeTyping(roomId string, onTyping func(authorId string, isTyping bool), onError func(error)) (Subscription, error) {
	return lc.subscribe(wsSubscribeTyping,
		map[string]string{"room_id": roomId},
		func(resp *wsResponse) {
			var push typingPush
			if err := json.Unmarshal(resp.Data, &push); err != nil {
				return
			}
			onTyping(push.AuthorId, typingFresh(push.IsTyping, push.At))
		},
		onError,
	)
}

// SubscribeRooms streams full room list snapshots for the caller
func (lc *LiveConn) SubscribeRooms(onRooms func([]*RoomInfo), onError func(error)) (Subscription, error) {
	return lc.subscribe(wsSubscribeRooms,
		struct{}{},
		func(resp *wsResponse) {
			var push roomsPush
			if err := json.Unmarshal(resp.Data, &push); err != nil {
				return
			}
			onRooms(push.Rooms)
		},
		onError,
	)
}

// SubscribeDirectory streams full user directory snapshots
func (lc *LiveConn) SubscribeDirectory(onUsers func([]*UserInfo), onError func(error)) (Subscription, error) {
	return lc.subscribe(wsSubscribeDirectory,
		struct{}{},
		func(resp *wsResponse) {
			var push directoryPush
			if err := json.Unmarshal(resp.Data, &push); err != nil {
				return
			}
			onUsers(push.Users)
		},
		onError,
	)
}

// SetTyping writes the caller's typing flag over the live connection
func (lc *LiveConn) SetTyping(roomId string, isTyping bool) error {
	_, err := lc.call(wsSetTyping, map[string]interface{}{
		"room_id":   roomId,
		"is_typing": isTyping,
	})
	return err
}

// typingFresh applies the staleness window to a typing flag
func typingFresh(isTyping bool, atMilli int64) bool {
	if !isTyping {
		return false
	}
	return time.Now().UnixMilli()-atMilli <= typingStaleWindow.Milliseconds()
}

func (lc *LiveConn) dropSub(subId string) {
	lc.subMu.Lock()
	delete(lc.subs, subId)
	delete(lc.early, subId)
	lc.subMu.Unlock()
}

func (lc *LiveConn) unsubscribe(subId string) {
	lc.call(wsUnsubscribe, map[string]string{"sub_id": subId})
}

// shutdown fails every subscription and pending call exactly once.
// Subscriptions are not reopened, the owner decides what to do next.
func (lc *LiveConn) shutdown(err error) {
	lc.closeOnce.Do(func() {
		lc.closedErr = err
		close(lc.done)

		lc.subMu.Lock()
		subs := make([]*liveSub, 0, len(lc.subs))
		for _, sub := range lc.subs {
			subs = append(subs, sub)
		}
		lc.subs = make(map[string]*liveSub)
		lc.early = make(map[string]*wsResponse)
		lc.subMu.Unlock()

		for _, sub := range subs {
			sub.fail(err)
		}

		lc.pendingMu.Lock()
		for incr, ch := range lc.pending {
			delete(lc.pending, incr)
			close(ch)
		}
		lc.pendingMu.Unlock()

		lc.conn.Close()
	})
}

// Close tears the connection down. Every live subscription receives
// ErrConnClosed through its error callback.
func (lc *LiveConn) Close() error {
	lc.shutdown(ErrConnClosed)
	return nil
}
