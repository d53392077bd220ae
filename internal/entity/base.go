package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/kereva-dev/duet/pkg/constant"
)

// NowUnixMilli returns the current time in unix milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// GenRoomId derives the canonical room id for a two-party conversation.
// The participant ids are ordered lexicographically so both sides compute
// the same id regardless of who initiates.
func GenRoomId(userA, userB string) string {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("%s%s:%s", constant.RoomIdPrefix, low, high)
}

// ParseRoomId splits a room id back into its ordered participant pair.
// Returns false when the id is not a valid two-party room id.
func ParseRoomId(roomId string) (low, high string, ok bool) {
	rest, found := strings.CutPrefix(roomId, constant.RoomIdPrefix)
	if !found {
		return "", "", false
	}
	low, high, ok = strings.Cut(rest, ":")
	if !ok || low == "" || high == "" || low > high {
		return "", "", false
	}
	return low, high, true
}

// IsParticipant reports whether userId belongs to the room
func IsParticipant(roomId, userId string) bool {
	low, high, ok := ParseRoomId(roomId)
	if !ok {
		return false
	}
	return userId == low || userId == high
}

// PeerOf returns the other participant of a two-party room.
// Returns empty string when userId is not a participant.
func PeerOf(roomId, userId string) string {
	low, high, ok := ParseRoomId(roomId)
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

// TypingState is the stored typing signal for one author in one room
type TypingState struct {
	IsTyping bool  `json:"is_typing"`
	At       int64 `json:"at"` // unix milliseconds when the flag was last written
}

// Fresh reports whether the signal is still within the staleness window
// as of the supplied instant.
func (s *TypingState) Fresh(nowMilli int64, window time.Duration) bool {
	if s == nil || !s.IsTyping {
		return false
	}
	return nowMilli-s.At <= window.Milliseconds()
}
