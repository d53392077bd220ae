package sdk

// Response represents the standard API response
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Preferences holds per-user client preferences
type Preferences struct {
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
	Theme              string `json:"theme"`
	Notifications      bool   `json:"notifications_enabled"`
	EmailNotifications bool   `json:"email_notifications"`
}

// Privacy holds per-user privacy switches
type Privacy struct {
	ProfilePublic bool `json:"profile_public"`
	ShowEmail     bool `json:"show_email"`
	ShowLastSeen  bool `json:"show_last_seen"`
}

// UserInfo represents user info as returned by the API
type UserInfo struct {
	Id          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Location    string `json:"location,omitempty"`
	Website     string `json:"website,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	LastLoginAt int64  `json:"last_login_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// Attachment is attachment metadata carried on a message
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	Ref  string `json:"ref"`
}

// MessageInfo represents one chat message
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

// RoomInfo represents one conversation's metadata
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

// ActivityInfo is one audit trail entry
type ActivityInfo struct {
	Id        int64  `json:"id"`
	UserId    string `json:"user_id"`
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	CreatedAt int64  `json:"created_at"`
}

// ===== Request types =====

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
	Phone           string `json:"phone,omitempty"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	PlatformId int    `json:"platform_id"`
}

// LoginResponse represents user login response
type LoginResponse struct {
	Token    string    `json:"token"`
	UserInfo *UserInfo `json:"user_info"`
}

// UpdateProfileRequest represents a partial profile edit
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// SendRequest represents one outgoing message
type SendRequest struct {
	RecipientId string      `json:"recipient_id"`
	Text        string      `json:"text"`
	ClientMsgId string      `json:"client_msg_id,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

// UploadResponse is the result of a blob upload
type UploadResponse struct {
	Ref  string `json:"ref"`
	Size int64  `json:"size"`
}
