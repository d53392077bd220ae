package entity

// Room is the metadata row for a two-party conversation. Participants are
// stored in lexicographic order so the pair maps to exactly one row, and
// each side's unread counter lives in its own column so increments can be
// issued as single atomic SQL updates.
type Room struct {
	Id            int64  `json:"-" gorm:"column:id;primaryKey;autoIncrement"`
	RoomId        string `json:"room_id" gorm:"column:room_id;uniqueIndex"`
	UserLow       string `json:"user_low" gorm:"column:user_low;index"`
	UserHigh      string `json:"user_high" gorm:"column:user_high;index"`
	LastMessage   string `json:"last_message" gorm:"column:last_message"`
	LastMessageAt int64  `json:"last_message_at" gorm:"column:last_message_at"`
	LastSenderId  string `json:"last_sender_id" gorm:"column:last_sender_id"`
	UnreadLow     int64  `json:"unread_low" gorm:"column:unread_low"`
	UnreadHigh    int64  `json:"unread_high" gorm:"column:unread_high"`
	CreatedAt     int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt     int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Room
func (Room) TableName() string {
	return "rooms"
}

// UnreadFor returns the unread counter for one participant
func (r *Room) UnreadFor(userId string) int64 {
	switch userId {
	case r.UserLow:
		return r.UnreadLow
	case r.UserHigh:
		return r.UnreadHigh
	}
	return 0
}

// RoomInfo is the wire form of a room snapshot entry
type RoomInfo struct {
	RoomId        string           `json:"room_id"`
	Participants  []string         `json:"participants"`
	LastMessage   string           `json:"last_message"`
	LastMessageAt int64            `json:"last_message_at"`
	LastSenderId  string           `json:"last_sender_id"`
	Unread        map[string]int64 `json:"unread"`
	CreatedAt     int64            `json:"created_at"`
	UpdatedAt     int64            `json:"updated_at"`
}

// ToRoomInfo converts Room to RoomInfo
func (r *Room) ToRoomInfo() *RoomInfo {
	return &RoomInfo{
		RoomId:        r.RoomId,
		Participants:  []string{r.UserLow, r.UserHigh},
		LastMessage:   r.LastMessage,
		LastMessageAt: r.LastMessageAt,
		LastSenderId:  r.LastSenderId,
		Unread: map[string]int64{
			r.UserLow:  r.UnreadLow,
			r.UserHigh: r.UnreadHigh,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
