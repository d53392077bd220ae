package sdk

import (
	"context"
	"fmt"
	"strings"
)

// RoomIdFor derives the canonical room id for a two-party conversation.
// Both sides compute the same id regardless of who initiates.
func RoomIdFor(userA, userB string) string {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("dm_%s:%s", low, high)
}

// PeerOf returns the other participant of a room id, empty when userId
// is not a participant.
func PeerOf(roomId, userId string) string {
	rest, ok := strings.CutPrefix(roomId, "dm_")
	if !ok {
		return ""
	}
	low, high, ok := strings.Cut(rest, ":")
	if !ok {
		return ""
	}
	switch userId {
	case low:
		return high
	case high:
		return low
	}
	return ""
}

// Send appends one message
func (c *Client) Send(ctx context.Context, req *SendRequest) (*MessageInfo, error) {
	var result MessageInfo
	if err := c.post(ctx, "/chat/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchRecent returns the newest page of a room in oldest-first order
func (c *Client) FetchRecent(ctx context.Context, roomId string) ([]*MessageInfo, error) {
	var result []*MessageInfo
	if err := c.get(ctx, "/chat/messages", map[string]string{"room_id": roomId}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead flags everything addressed to the caller in a room
func (c *Client) MarkRead(ctx context.Context, roomId string) error {
	return c.post(ctx, "/chat/mark_read", map[string]string{"room_id": roomId}, nil)
}

// ResetUnread zeroes the caller's unread counter on a room
func (c *Client) ResetUnread(ctx context.Context, roomId string) error {
	return c.post(ctx, "/chat/reset_unread", map[string]string{"room_id": roomId}, nil)
}

// Rooms returns all rooms the caller takes part in
func (c *Client) Rooms(ctx context.Context) ([]*RoomInfo, error) {
	var result []*RoomInfo
	if err := c.get(ctx, "/chat/rooms", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
