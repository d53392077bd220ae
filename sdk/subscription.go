package sdk

import "sync"

// Subscription is a handle on one live snapshot stream. Cancel is
// idempotent and safe to call from any goroutine.
type Subscription interface {
	Cancel()
}

// liveSub is a subscription bound to a live connection
type liveSub struct {
	subId  string
	conn   *LiveConn
	once   sync.Once
	onSnap func(push *wsResponse)
	onErr  func(error)

	mu   sync.Mutex
	dead bool
}

// Cancel detaches the subscription and tells the server to stop pushing
func (s *liveSub) Cancel() {
	s.once.Do(func() {
		s.conn.dropSub(s.subId)
		// Best effort, the server also cleans up on disconnect
		go s.conn.unsubscribe(s.subId)
	})
}

// fail marks the subscription dead and surfaces the error once. A dead
// subscription stays dead, callers decide whether to open a new one.
func (s *liveSub) fail(err error) {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return
	}
	s.dead = true
	s.mu.Unlock()

	if s.onErr != nil {
		s.onErr(err)
	}
}

func (s *liveSub) deliver(push *wsResponse) {
	s.mu.Lock()
	dead := s.dead
	s.mu.Unlock()
	if dead {
		return
	}
	if s.onSnap != nil {
		s.onSnap(push)
	}
}
