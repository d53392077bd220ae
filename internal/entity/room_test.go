package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoom_UnreadFor(t *testing.T) {
	room := &Room{
		RoomId:     GenRoomId("alice", "bob"),
		UserLow:    "alice",
		UserHigh:   "bob",
		UnreadLow:  2,
		UnreadHigh: 5,
	}

	assert.Equal(t, int64(2), room.UnreadFor("alice"))
	assert.Equal(t, int64(5), room.UnreadFor("bob"))
	assert.Equal(t, int64(0), room.UnreadFor("carol"))
}

func TestRoom_ToRoomInfo(t *testing.T) {
	room := &Room{
		RoomId:        GenRoomId("alice", "bob"),
		UserLow:       "alice",
		UserHigh:      "bob",
		LastMessage:   "hello",
		LastMessageAt: 1700000000000,
		LastSenderId:  "alice",
		UnreadLow:     0,
		UnreadHigh:    3,
	}

	info := room.ToRoomInfo()
	assert.Equal(t, room.RoomId, info.RoomId)
	assert.Equal(t, []string{"alice", "bob"}, info.Participants)
	assert.Equal(t, "hello", info.LastMessage)
	assert.Equal(t, int64(0), info.Unread["alice"])
	assert.Equal(t, int64(3), info.Unread["bob"])
}

func TestMessage_ToMessageInfo(t *testing.T) {
	msg := &Message{
		Id:          7,
		RoomId:      GenRoomId("alice", "bob"),
		SenderId:    "alice",
		RecipientId: "bob",
		Text:        "see attachment",
		AttachName:  "report.pdf",
		AttachSize:  1024,
		AttachMime:  "application/pdf",
		AttachRef:   "abc123",
		SentAt:      1700000000000,
	}

	info := msg.ToMessageInfo()
	assert.Equal(t, int64(7), info.Id)
	assert.NotNil(t, info.Attachment)
	assert.Equal(t, "report.pdf", info.Attachment.Name)
	assert.Equal(t, "abc123", info.Attachment.Ref)

	plain := &Message{Id: 8, Text: "no attachment"}
	assert.Nil(t, plain.ToMessageInfo().Attachment)
}
