package gateway

import (
	"sync"
)

// Subscription is one live snapshot stream owned by a client
type Subscription struct {
	SubId  string
	Kind   string // KindMessages, KindTyping, KindRooms, KindDirectory
	Key    string // room id for messages/typing, user id for rooms, empty for directory
	Client *Client
}

// Hub indexes connected clients and their subscriptions so mutations can
// be fanned out to exactly the streams they affect.
type Hub struct {
	mu sync.RWMutex

	// clients by user id, then connection id
	clients map[string]map[string]*Client

	// subscriptions by kind, then key, then sub id
	subs map[string]map[string]map[string]*Subscription
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[string]*Client),
		subs:    make(map[string]map[string]map[string]*Subscription),
	}
}

// RegisterClient adds a client. Returns true when this is the user's
// first live connection.
func (h *Hub) RegisterClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserId]
	if !ok {
		conns = make(map[string]*Client)
		h.clients[c.UserId] = conns
	}
	conns[c.ConnId] = c
	return !ok
}

// UnregisterClient drops a client and every subscription it owns.
// Returns true when the user has no live connections left.
func (h *Hub) UnregisterClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[c.UserId]; ok {
		delete(conns, c.ConnId)
		if len(conns) == 0 {
			delete(h.clients, c.UserId)
		}
	}

	for _, sub := range c.takeSubs() {
		h.removeSubLocked(sub)
	}

	_, stillOnline := h.clients[c.UserId]
	return !stillOnline
}

// AddSub registers one subscription under its kind and key
func (h *Hub) AddSub(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byKey, ok := h.subs[sub.Kind]
	if !ok {
		byKey = make(map[string]map[string]*Subscription)
		h.subs[sub.Kind] = byKey
	}
	bySubId, ok := byKey[sub.Key]
	if !ok {
		bySubId = make(map[string]*Subscription)
		byKey[sub.Key] = bySubId
	}
	bySubId[sub.SubId] = sub

	sub.Client.trackSub(sub)
}

// RemoveSub drops one subscription
func (h *Hub) RemoveSub(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeSubLocked(sub)
	sub.Client.untrackSub(sub.SubId)
}

func (h *Hub) removeSubLocked(sub *Subscription) {
	byKey, ok := h.subs[sub.Kind]
	if !ok {
		return
	}
	bySubId, ok := byKey[sub.Key]
	if !ok {
		return
	}
	delete(bySubId, sub.SubId)
	if len(bySubId) == 0 {
		delete(byKey, sub.Key)
	}
}

// Subs returns a copy of the subscriptions under one kind and key
func (h *Hub) Subs(kind, key string) []*Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bySubId, ok := h.subs[kind][key]
	if !ok {
		return nil
	}
	out := make([]*Subscription, 0, len(bySubId))
	for _, sub := range bySubId {
		out = append(out, sub)
	}
	return out
}

// UserClients returns a copy of a user's live connections
func (h *Hub) UserClients(userId string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.clients[userId]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}
