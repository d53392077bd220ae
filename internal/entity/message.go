package entity

// Message is a single chat message within a two-party room. SentAt is
// always assigned by the server when the row is appended.
type Message struct {
	Id          int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	RoomId      string `json:"room_id" gorm:"column:room_id;index:idx_room_sent"`
	ClientMsgId string `json:"client_msg_id" gorm:"column:client_msg_id;index"`
	SenderId    string `json:"sender_id" gorm:"column:sender_id"`
	RecipientId string `json:"recipient_id" gorm:"column:recipient_id"`
	Text        string `json:"text" gorm:"column:text"`
	AttachName  string `json:"attach_name" gorm:"column:attach_name"`
	AttachSize  int64  `json:"attach_size" gorm:"column:attach_size"`
	AttachMime  string `json:"attach_mime" gorm:"column:attach_mime"`
	AttachRef   string `json:"attach_ref" gorm:"column:attach_ref"`
	Read        bool   `json:"read" gorm:"column:read"`
	SentAt      int64  `json:"sent_at" gorm:"column:sent_at;index:idx_room_sent"`
	CreatedAt   int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt   int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// HasAttachment reports whether the message carries an attachment
func (m *Message) HasAttachment() bool {
	return m.AttachRef != ""
}

// Attachment is the wire form of attachment metadata
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	Ref  string `json:"ref"`
}

// MessageInfo is the wire form of a message
type MessageInfo struct {
	Id          int64       `json:"id"`
	RoomId      string      `json:"room_id"`
	ClientMsgId string      `json:"client_msg_id,omitempty"`
	SenderId    string      `json:"sender_id"`
	RecipientId string      `json:"recipient_id"`
	Text        string      `json:"text"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	Read        bool        `json:"read"`
	SentAt      int64       `json:"sent_at"`
}

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	info := &MessageInfo{
		Id:          m.Id,
		RoomId:      m.RoomId,
		ClientMsgId: m.ClientMsgId,
		SenderId:    m.SenderId,
		RecipientId: m.RecipientId,
		Text:        m.Text,
		Read:        m.Read,
		SentAt:      m.SentAt,
	}
	if m.HasAttachment() {
		info.Attachment = &Attachment{
			Name: m.AttachName,
			Size: m.AttachSize,
			Mime: m.AttachMime,
			Ref:  m.AttachRef,
		}
	}
	return info
}
