package tests

import (
	"fmt"
	"testing"
	"time"
)

// MessageInfo represents one chat message
type MessageInfo struct {
	Id          int64       `json:"id"`
	RoomId      string      `json:"room_id"`
	ClientMsgId string      `json:"client_msg_id"`
	SenderId    string      `json:"sender_id"`
	RecipientId string      `json:"recipient_id"`
	Text        string      `json:"text"`
	Attachment  *Attachment `json:"attachment"`
	Read        bool        `json:"read"`
	SentAt      int64       `json:"sent_at"`
}

// Attachment represents attachment metadata on a message
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	Ref  string `json:"ref"`
}

// RoomInfo represents one conversation's metadata
type RoomInfo struct {
	RoomId        string           `json:"room_id"`
	Participants  []string         `json:"participants"`
	LastMessage   string           `json:"last_message"`
	LastMessageAt int64            `json:"last_message_at"`
	LastSenderId  string           `json:"last_sender_id"`
	Unread        map[string]int64 `json:"unread"`
}

// SendRequest represents a send message request
type SendRequest struct {
	RecipientId string      `json:"recipient_id"`
	Text        string      `json:"text"`
	ClientMsgId string      `json:"client_msg_id,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

func roomIdFor(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm_%s:%s", a, b)
}

func generateClientMsgId() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}

func TestChat_SendAndFetch(t *testing.T) {
	alice, aliceId := registerAndLogin(t, "chat_alice")
	bob, bobId := registerAndLogin(t, "chat_bob")
	roomId := roomIdFor(aliceId, bobId)

	t.Run("send message", func(t *testing.T) {
		resp, err := alice.POST("/chat/send", SendRequest{
			RecipientId: bobId,
			Text:        "hello bob",
			ClientMsgId: generateClientMsgId(),
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		AssertSuccess(t, resp, "send should succeed")

		var msg MessageInfo
		if err := resp.ParseData(&msg); err != nil {
			t.Fatalf("parse message failed: %v", err)
		}
		if msg.RoomId != roomId {
			t.Errorf("expected room_id=%s, got %s", roomId, msg.RoomId)
		}
		if msg.SenderId != aliceId || msg.RecipientId != bobId {
			t.Errorf("unexpected participants: sender=%s recipient=%s", msg.SenderId, msg.RecipientId)
		}
		if msg.SentAt == 0 {
			t.Error("expected a server-assigned timestamp")
		}
		if msg.Read {
			t.Error("new message should start unread")
		}
	})

	t.Run("send duplicate client_msg_id is idempotent", func(t *testing.T) {
		clientMsgId := generateClientMsgId()

		first, err := alice.POST("/chat/send", SendRequest{
			RecipientId: bobId,
			Text:        "only once",
			ClientMsgId: clientMsgId,
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		AssertSuccess(t, first)

		second, err := alice.POST("/chat/send", SendRequest{
			RecipientId: bobId,
			Text:        "only once",
			ClientMsgId: clientMsgId,
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		AssertSuccess(t, second, "replay should succeed, not duplicate")

		var m1, m2 MessageInfo
		if err := first.ParseData(&m1); err != nil {
			t.Fatal(err)
		}
		if err := second.ParseData(&m2); err != nil {
			t.Fatal(err)
		}
		if m1.Id != m2.Id {
			t.Errorf("replay created a new message: %d vs %d", m1.Id, m2.Id)
		}
	})

	t.Run("send empty message rejected", func(t *testing.T) {
		resp, err := alice.POST("/chat/send", SendRequest{
			RecipientId: bobId,
			Text:        "   ",
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		AssertError(t, resp, 1106, "should reject message with no content")
	})

	t.Run("send to self rejected", func(t *testing.T) {
		resp, err := alice.POST("/chat/send", SendRequest{
			RecipientId: aliceId,
			Text:        "talking to myself",
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		if resp.IsSuccess() {
			t.Error("expected self-send to fail")
		}
	})

	t.Run("fetch from both sides", func(t *testing.T) {
		for name, client := range map[string]*APIClient{"alice": alice, "bob": bob} {
			resp, err := client.GET("/chat/messages?room_id=" + roomId)
			if err != nil {
				t.Fatalf("fetch request failed: %v", err)
			}
			AssertSuccess(t, resp, "fetch should succeed for "+name)

			var msgs []MessageInfo
			if err := resp.ParseData(&msgs); err != nil {
				t.Fatalf("parse messages failed: %v", err)
			}
			if len(msgs) < 2 {
				t.Fatalf("expected at least 2 messages, got %d", len(msgs))
			}
			for i := 1; i < len(msgs); i++ {
				if msgs[i].SentAt < msgs[i-1].SentAt {
					t.Error("messages should be oldest first")
				}
			}
		}
	})

	t.Run("outsider cannot fetch", func(t *testing.T) {
		mallory, _ := registerAndLogin(t, "chat_mallory")
		resp, err := mallory.GET("/chat/messages?room_id=" + roomId)
		if err != nil {
			t.Fatalf("fetch request failed: %v", err)
		}
		AssertError(t, resp, 3002, "non-participant should be rejected")
	})
}

func TestChat_UnreadFlow(t *testing.T) {
	alice, aliceId := registerAndLogin(t, "unread_alice")
	bob, bobId := registerAndLogin(t, "unread_bob")
	roomId := roomIdFor(aliceId, bobId)

	for i := 0; i < 3; i++ {
		resp, err := alice.POST("/chat/send", SendRequest{
			RecipientId: bobId,
			Text:        fmt.Sprintf("message %d", i),
			ClientMsgId: generateClientMsgId(),
		})
		if err != nil {
			t.Fatalf("send request failed: %v", err)
		}
		AssertSuccess(t, resp)
	}

	t.Run("recipient sees unread count", func(t *testing.T) {
		resp, err := bob.GET("/chat/rooms")
		if err != nil {
			t.Fatalf("rooms request failed: %v", err)
		}
		AssertSuccess(t, resp)

		var rooms []RoomInfo
		if err := resp.ParseData(&rooms); err != nil {
			t.Fatalf("parse rooms failed: %v", err)
		}

		room := findRoom(t, rooms, roomId)
		if got := room.Unread[bobId]; got != 3 {
			t.Errorf("expected unread=3 for bob, got %d", got)
		}
		if got := room.Unread[aliceId]; got != 0 {
			t.Errorf("expected unread=0 for alice, got %d", got)
		}
		if room.LastMessage == "" {
			t.Error("expected a last message preview")
		}
		if room.LastSenderId != aliceId {
			t.Errorf("expected last_sender_id=%s, got %s", aliceId, room.LastSenderId)
		}
	})

	t.Run("mark read flips message flags", func(t *testing.T) {
		resp, err := bob.POST("/chat/mark_read", map[string]string{"room_id": roomId})
		if err != nil {
			t.Fatalf("mark_read request failed: %v", err)
		}
		AssertSuccess(t, resp)

		resp, err = bob.GET("/chat/messages?room_id=" + roomId)
		if err != nil {
			t.Fatalf("fetch request failed: %v", err)
		}
		AssertSuccess(t, resp)

		var msgs []MessageInfo
		if err := resp.ParseData(&msgs); err != nil {
			t.Fatal(err)
		}
		for _, m := range msgs {
			if m.RecipientId == bobId && !m.Read {
				t.Errorf("message %d still unread after mark_read", m.Id)
			}
		}
	})

	t.Run("reset unread zeroes the counter", func(t *testing.T) {
		resp, err := bob.POST("/chat/reset_unread", map[string]string{"room_id": roomId})
		if err != nil {
			t.Fatalf("reset_unread request failed: %v", err)
		}
		AssertSuccess(t, resp)

		resp, err = bob.GET("/chat/rooms")
		if err != nil {
			t.Fatalf("rooms request failed: %v", err)
		}
		AssertSuccess(t, resp)

		var rooms []RoomInfo
		if err := resp.ParseData(&rooms); err != nil {
			t.Fatal(err)
		}
		room := findRoom(t, rooms, roomId)
		if got := room.Unread[bobId]; got != 0 {
			t.Errorf("expected unread=0 after reset, got %d", got)
		}
	})
}

func TestChat_AttachmentRoundTrip(t *testing.T) {
	alice, aliceId := registerAndLogin(t, "blob_alice")
	bob, bobId := registerAndLogin(t, "blob_bob")
	roomId := roomIdFor(aliceId, bobId)

	payload := []byte("attachment payload bytes")

	// Raw upload bypasses the JSON helper.
	upload, err := alice.PostRaw("/blob/upload", "application/octet-stream", payload)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	AssertSuccess(t, upload, "upload should succeed")

	var uploaded struct {
		Ref  string `json:"ref"`
		Size int64  `json:"size"`
	}
	if err := upload.ParseData(&uploaded); err != nil {
		t.Fatalf("parse upload response failed: %v", err)
	}
	if len(uploaded.Ref) != 64 {
		t.Errorf("expected 64-char content ref, got %q", uploaded.Ref)
	}
	if uploaded.Size != int64(len(payload)) {
		t.Errorf("expected size=%d, got %d", len(payload), uploaded.Size)
	}

	sendResp, err := alice.POST("/chat/send", SendRequest{
		RecipientId: bobId,
		ClientMsgId: generateClientMsgId(),
		Attachment: &Attachment{
			Name: "notes.txt",
			Size: uploaded.Size,
			Mime: "text/plain",
			Ref:  uploaded.Ref,
		},
	})
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}
	AssertSuccess(t, sendResp, "attachment-only send should succeed")

	fetch, err := bob.GET("/chat/messages?room_id=" + roomId)
	if err != nil {
		t.Fatalf("fetch request failed: %v", err)
	}
	AssertSuccess(t, fetch)

	var msgs []MessageInfo
	if err := fetch.ParseData(&msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	att := msgs[0].Attachment
	if att == nil {
		t.Fatal("expected attachment metadata on message")
	}
	if att.Ref != uploaded.Ref {
		t.Errorf("attachment ref changed in transit: %s vs %s", att.Ref, uploaded.Ref)
	}

	// The blob itself downloads byte for byte.
	data, err := bob.GetRaw("/blob/" + uploaded.Ref)
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("downloaded bytes differ from upload")
	}
}

func findRoom(t *testing.T, rooms []RoomInfo, roomId string) *RoomInfo {
	t.Helper()
	for i := range rooms {
		if rooms[i].RoomId == roomId {
			return &rooms[i]
		}
	}
	t.Fatalf("room %s not found in %d rooms", roomId, len(rooms))
	return nil
}
