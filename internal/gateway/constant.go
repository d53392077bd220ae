package gateway

import "time"

// WebSocket protocol constants
const (
	// Request identifiers
	WSSubscribeMessages  = 1001 // Subscribe to a room's message snapshots
	WSUnsubscribe        = 1002 // Cancel a subscription
	WSSubscribeTyping    = 1003 // Subscribe to the peer's typing flag in a room
	WSSubscribeRooms     = 1004 // Subscribe to the caller's room list
	WSSubscribeDirectory = 1005 // Subscribe to the user directory
	WSSetTyping          = 1006 // Write the caller's typing flag

	// Push identifiers
	WSPushMessages  = 2001 // Full message snapshot for a room
	WSPushTyping    = 2002 // Peer's typing flag for a room
	WSPushRooms     = 2003 // Full room list snapshot
	WSPushDirectory = 2004 // Full directory snapshot
	WSKickOnline    = 2005 // Kick user offline
)

// Subscription kinds, used as hub index keys
const (
	KindMessages  = "messages"
	KindTyping    = "typing"
	KindRooms     = "rooms"
	KindDirectory = "directory"
)

// Timeout constants
const (
	// WriteWait is time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is time allowed to read the next pong message from the peer
	PongWait = 30 * time.Second

	// PingPeriod is period between pings. Must be less than PongWait
	PingPeriod = (PongWait * 9) / 10
)

// Query parameter keys
const (
	QueryToken      = "token"
	QuerySendId     = "send_id"
	QueryPlatformId = "platform_id"
)
