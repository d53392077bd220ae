package gateway

import (
	"testing"

	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userId, connId string) *Client {
	return NewClient(nil, userId, constant.PlatformIdWeb, "token", connId, nil)
}

func TestRegisterClientFirstConnection(t *testing.T) {
	hub := NewHub()

	alice1 := newTestClient("alice", "conn-1")
	assert.True(t, hub.RegisterClient(alice1), "first connection")

	alice2 := newTestClient("alice", "conn-2")
	assert.False(t, hub.RegisterClient(alice2), "second connection of same user")

	bob := newTestClient("bob", "conn-3")
	assert.True(t, hub.RegisterClient(bob))

	assert.Len(t, hub.UserClients("alice"), 2)
	assert.Len(t, hub.UserClients("bob"), 1)
	assert.Nil(t, hub.UserClients("carol"))
}

func TestAddAndRemoveSub(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice", "conn-1")
	hub.RegisterClient(alice)

	sub := &Subscription{SubId: "sub-1", Kind: KindMessages, Key: "dm_alice:bob", Client: alice}
	hub.AddSub(sub)

	subs := hub.Subs(KindMessages, "dm_alice:bob")
	require.Len(t, subs, 1)
	assert.Equal(t, "sub-1", subs[0].SubId)

	// Tracked on the client too, so unsubscribe can find it.
	got, ok := alice.getSub("sub-1")
	require.True(t, ok)
	assert.Equal(t, sub, got)

	hub.RemoveSub(sub)
	assert.Empty(t, hub.Subs(KindMessages, "dm_alice:bob"))
	_, ok = alice.getSub("sub-1")
	assert.False(t, ok)
}

func TestSubsAreKeyed(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("alice", "conn-1")
	hub.RegisterClient(alice)

	hub.AddSub(&Subscription{SubId: "s1", Kind: KindMessages, Key: "dm_alice:bob", Client: alice})
	hub.AddSub(&Subscription{SubId: "s2", Kind: KindTyping, Key: "dm_alice:bob", Client: alice})
	hub.AddSub(&Subscription{SubId: "s3", Kind: KindRooms, Key: "alice", Client: alice})
	hub.AddSub(&Subscription{SubId: "s4", Kind: KindDirectory, Key: "", Client: alice})

	assert.Len(t, hub.Subs(KindMessages, "dm_alice:bob"), 1)
	assert.Len(t, hub.Subs(KindTyping, "dm_alice:bob"), 1)
	assert.Len(t, hub.Subs(KindRooms, "alice"), 1)
	assert.Len(t, hub.Subs(KindDirectory, ""), 1)
	assert.Empty(t, hub.Subs(KindMessages, "dm_alice:carol"))
}

func TestUnregisterClientDropsSubs(t *testing.T) {
	hub := NewHub()
	alice1 := newTestClient("alice", "conn-1")
	alice2 := newTestClient("alice", "conn-2")
	hub.RegisterClient(alice1)
	hub.RegisterClient(alice2)

	hub.AddSub(&Subscription{SubId: "s1", Kind: KindMessages, Key: "dm_alice:bob", Client: alice1})
	hub.AddSub(&Subscription{SubId: "s2", Kind: KindMessages, Key: "dm_alice:bob", Client: alice2})

	offline := hub.UnregisterClient(alice1)
	assert.False(t, offline, "second connection still live")

	// Only the dropped connection's subscription goes away.
	subs := hub.Subs(KindMessages, "dm_alice:bob")
	require.Len(t, subs, 1)
	assert.Equal(t, "s2", subs[0].SubId)

	offline = hub.UnregisterClient(alice2)
	assert.True(t, offline)
	assert.Empty(t, hub.Subs(KindMessages, "dm_alice:bob"))
	assert.Nil(t, hub.UserClients("alice"))
}
