package entity

// Preferences holds per-user client preferences
type Preferences struct {
	Language           string `json:"language" gorm:"column:language"`
	Timezone           string `json:"timezone" gorm:"column:timezone"`
	Theme              string `json:"theme" gorm:"column:theme"`
	Notifications      bool   `json:"notifications_enabled" gorm:"column:notifications_enabled"`
	EmailNotifications bool   `json:"email_notifications" gorm:"column:email_notifications"`
}

// Privacy holds per-user privacy switches
type Privacy struct {
	ProfilePublic bool `json:"profile_public" gorm:"column:profile_public"`
	ShowEmail     bool `json:"show_email" gorm:"column:show_email"`
	ShowLastSeen  bool `json:"show_last_seen" gorm:"column:show_last_seen"`
}

// DefaultPreferences returns the preferences assigned at registration
func DefaultPreferences() Preferences {
	return Preferences{
		Language:           "en",
		Timezone:           "UTC",
		Theme:              "light",
		Notifications:      true,
		EmailNotifications: true,
	}
}

// DefaultPrivacy returns the privacy settings assigned at registration
func DefaultPrivacy() Privacy {
	return Privacy{
		ProfilePublic: true,
		ShowEmail:     false,
		ShowLastSeen:  true,
	}
}

// User represents a registered account
type User struct {
	Id          string      `json:"id" gorm:"column:id;primaryKey"`
	Email       string      `json:"email" gorm:"column:email;uniqueIndex"`
	Password    string      `json:"-" gorm:"column:password"`
	DisplayName string      `json:"display_name" gorm:"column:display_name"`
	Phone       string      `json:"phone" gorm:"column:phone"`
	Bio         string      `json:"bio" gorm:"column:bio"`
	Location    string      `json:"location" gorm:"column:location"`
	Website     string      `json:"website" gorm:"column:website"`
	AvatarRef   string      `json:"avatar_ref" gorm:"column:avatar_ref"`
	Role        string      `json:"role" gorm:"column:role"`
	Status      string      `json:"status" gorm:"column:status"`
	External    bool        `json:"external" gorm:"column:external"`
	Preferences Preferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	Privacy     Privacy     `json:"privacy" gorm:"embedded;embeddedPrefix:priv_"`
	LoginCount  int64       `json:"login_count" gorm:"column:login_count"`
	LastLoginAt int64       `json:"last_login_at" gorm:"column:last_login_at"`
	CreatedAt   int64       `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt   int64       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// UserInfo represents public user info (without password)
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

// ToUserInfo converts User to UserInfo as seen by the account owner
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		Id:          u.Id,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Bio:         u.Bio,
		Location:    u.Location,
		Website:     u.Website,
		AvatarRef:   u.AvatarRef,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ToDirectoryInfo converts User to UserInfo as seen by other users,
// applying the owner's privacy switches.
func (u *User) ToDirectoryInfo() *UserInfo {
	info := &UserInfo{
		Id:          u.Id,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
	if u.Privacy.ProfilePublic {
		info.Bio = u.Bio
		info.Location = u.Location
		info.Website = u.Website
		info.AvatarRef = u.AvatarRef
	}
	if u.Privacy.ShowEmail {
		info.Email = u.Email
	}
	if u.Privacy.ShowLastSeen {
		info.LastLoginAt = u.LastLoginAt
	}
	return info
}
