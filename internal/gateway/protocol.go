package gateway

import (
	"encoding/json"

	"github.com/kereva-dev/duet/internal/entity"
)

// WSRequest represents a WebSocket request message
type WSRequest struct {
	ReqIdentifier int32           `json:"req_identifier"` // Request type
	MsgIncr       string          `json:"msg_incr"`       // Client message counter/trace Id
	SendId        string          `json:"send_id"`        // Sender user Id
	Data          json.RawMessage `json:"data,omitempty"` // Business data
}

// WSResponse represents a WebSocket response or push message
type WSResponse struct {
	ReqIdentifier int32           `json:"req_identifier"` // Request type (echo back) or push type
	MsgIncr       string          `json:"msg_incr"`       // Message counter (echo back, empty on pushes)
	ErrCode       int             `json:"err_code"`       // Error code, 0 = success
	ErrMsg        string          `json:"err_msg,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// SubscribeMessagesReq opens a message snapshot stream for one room
type SubscribeMessagesReq struct {
	RoomId string `json:"room_id"`
}

// SubscribeTypingReq opens a typing stream for one room
type SubscribeTypingReq struct {
	RoomId string `json:"room_id"`
}

// SubscribeResp acknowledges a subscribe with the server-issued sub id
type SubscribeResp struct {
	SubId string `json:"sub_id"`
}

// UnsubscribeReq cancels one subscription
type UnsubscribeReq struct {
	SubId string `json:"sub_id"`
}

// SetTypingReq writes the caller's typing flag in one room
type SetTypingReq struct {
	RoomId   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// MessagesPush is a full message snapshot for one room
type MessagesPush struct {
	SubId    string                `json:"sub_id"`
	RoomId   string                `json:"room_id"`
	Messages []*entity.MessageInfo `json:"messages"`
}

// TypingPush carries the peer's typing flag for one room
type TypingPush struct {
	SubId    string `json:"sub_id"`
	RoomId   string `json:"room_id"`
	AuthorId string `json:"author_id"`
	IsTyping bool   `json:"is_typing"`
	At       int64  `json:"at"`
}

// RoomsPush is a full room list snapshot for the subscriber
type RoomsPush struct {
	SubId string             `json:"sub_id"`
	Rooms []*entity.RoomInfo `json:"rooms"`
}

// DirectoryPush is a full directory snapshot for the subscriber
type DirectoryPush struct {
	SubId string             `json:"sub_id"`
	Users []*entity.UserInfo `json:"users"`
}

// Encode encodes data to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to struct
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
