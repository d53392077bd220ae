package sdk

import "context"

// liveStore backs MessageStore with the HTTP API for mutations and the
// live connection for snapshots.
type liveStore struct {
	client *Client
	live   *LiveConn
}

func (s *liveStore) Subscribe(roomId string, onSnapshot func([]*MessageInfo), onError func(error)) (Subscription, error) {
	return s.live.SubscribeMessages(roomId, onSnapshot, onError)
}

func (s *liveStore) FetchRecent(ctx context.Context, roomId string) ([]*MessageInfo, error) {
	return s.client.FetchRecent(ctx, roomId)
}

func (s *liveStore) Send(ctx context.Context, req *SendRequest) (*MessageInfo, error) {
	return s.client.Send(ctx, req)
}

func (s *liveStore) MarkRead(ctx context.Context, roomId string) error {
	return s.client.MarkRead(ctx, roomId)
}

// liveTyping backs TypingSignal entirely with the live connection
type liveTyping struct {
	live *LiveConn
}

func (t *liveTyping) Subscribe(roomId string, onTyping func(authorId string, isTyping bool), onError func(error)) (Subscription, error) {
	return t.live.SubscribeTyping(roomId, onTyping, onError)
}

func (t *liveTyping) Set(roomId string, isTyping bool) error {
	return t.live.SetTyping(roomId, isTyping)
}

// liveTracker backs RoomTracker with the live connection for the
// sidebar feed and the HTTP API for counter resets
type liveTracker struct {
	client *Client
	live   *LiveConn
}

func (t *liveTracker) Subscribe(onRooms func([]*RoomInfo), onError func(error)) (Subscription, error) {
	return t.live.SubscribeRooms(onRooms, onError)
}

func (t *liveTracker) ResetUnread(ctx context.Context, roomId string) error {
	return t.client.ResetUnread(ctx, roomId)
}

// NewLiveSession assembles a Session on top of an authenticated client
// and its live connection.
func NewLiveSession(client *Client, live *LiveConn, renderer Renderer) *Session {
	return NewSession(
		client.UserId(),
		&liveStore{client: client, live: live},
		&liveTyping{live: live},
		&liveTracker{client: client, live: live},
		NewUploader(client),
		renderer,
	)
}
