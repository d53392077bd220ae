package sdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScriptedLive dials a LiveConn against a test server whose side of
// the conversation is played by script.
func newScriptedLive(t *testing.T, script func(conn *websocket.Conn)) *LiveConn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	lc := &LiveConn{
		conn:    conn,
		userId:  "alice",
		pending: make(map[string]chan *wsResponse),
		subs:    make(map[string]*liveSub),
		early:   make(map[string]*wsResponse),
		done:    make(chan struct{}),
	}
	go lc.readLoop()
	t.Cleanup(func() { lc.Close() })
	return lc
}

// The gateway enqueues the initial snapshot at subscribe time, so the
// push can land on the wire right behind the ack. It must reach the
// callback even when it outruns the subscription registration.
func TestSubscribeDeliversSnapshotBehindAck(t *testing.T) {
	lc := newScriptedLive(t, func(conn *websocket.Conn) {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		ack := wsResponse{
			ReqIdentifier: req.ReqIdentifier,
			MsgIncr:       req.MsgIncr,
			Data:          json.RawMessage(`{"sub_id":"sub-1"}`),
		}
		if err := conn.WriteJSON(&ack); err != nil {
			return
		}

		push := wsResponse{ReqIdentifier: wsPushMessages}
		push.Data, _ = json.Marshal(&messagesPush{
			SubId:  "sub-1",
			RoomId: "dm_alice:bob",
			Messages: []*MessageInfo{
				{Id: 1, SenderId: "bob", RecipientId: "alice", Text: "hello", SentAt: 100},
			},
		})
		if err := conn.WriteJSON(&push); err != nil {
			return
		}

		// Hold the connection until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	received := make(chan []*MessageInfo, 1)
	sub, err := lc.SubscribeMessages("dm_alice:bob",
		func(msgs []*MessageInfo) {
			select {
			case received <- msgs:
			default:
			}
		},
		func(err error) {},
	)
	require.NoError(t, err)
	defer sub.Cancel()

	select {
	case msgs := <-received:
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello", msgs[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("initial snapshot not delivered")
	}
}

// A late push for a subscription cancelled in flight stays dropped.
func TestCancelledSubReceivesNoPush(t *testing.T) {
	pushed := make(chan struct{})
	lc := newScriptedLive(t, func(conn *websocket.Conn) {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		ack := wsResponse{
			ReqIdentifier: req.ReqIdentifier,
			MsgIncr:       req.MsgIncr,
			Data:          json.RawMessage(`{"sub_id":"sub-1"}`),
		}
		if err := conn.WriteJSON(&ack); err != nil {
			return
		}

		// Wait for the unsubscribe before pushing
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		unsubAck := wsResponse{
			ReqIdentifier: req.ReqIdentifier,
			MsgIncr:       req.MsgIncr,
			Data:          json.RawMessage(`{}`),
		}
		if err := conn.WriteJSON(&unsubAck); err != nil {
			return
		}

		push := wsResponse{ReqIdentifier: wsPushMessages}
		push.Data, _ = json.Marshal(&messagesPush{SubId: "sub-1", RoomId: "dm_alice:bob"})
		if err := conn.WriteJSON(&push); err != nil {
			return
		}
		close(pushed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	delivered := make(chan struct{}, 1)
	sub, err := lc.SubscribeMessages("dm_alice:bob",
		func(msgs []*MessageInfo) { delivered <- struct{}{} },
		func(err error) {},
	)
	require.NoError(t, err)

	sub.Cancel()

	select {
	case <-pushed:
	case <-time.After(2 * time.Second):
		t.Fatal("server script did not push")
	}

	select {
	case <-delivered:
		t.Fatal("push delivered to a cancelled subscription")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTypingFresh(t *testing.T) {
	now := time.Now().UnixMilli()

	assert.True(t, typingFresh(true, now))
	assert.True(t, typingFresh(true, now-9*1000))

	// Past the staleness window the flag reads as not-typing.
	assert.False(t, typingFresh(true, now-11*1000))
	assert.False(t, typingFresh(true, now-time.Hour.Milliseconds()))

	// A cleared flag is never fresh, whatever its age.
	assert.False(t, typingFresh(false, now))
}
