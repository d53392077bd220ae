package constant

import "time"

// Room Id prefix for two-party direct message rooms
const (
	RoomIdPrefix = "dm_"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User status
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Activity types recorded in the per-user audit log
const (
	ActivityAccountCreated  = "account_created"
	ActivityLogin           = "user_login"
	ActivityLoginExternal   = "user_login_external"
	ActivityLogout          = "user_logout"
	ActivityPasswordReset   = "password_reset"
	ActivityProfileUpdated  = "profile_updated"
	ActivitySettingsUpdated = "settings_updated"
	ActivityPrivacyUpdated  = "privacy_updated"
	ActivityAvatarUploaded  = "avatar_uploaded"
	ActivityAvatarRemoved   = "avatar_removed"
	ActivityAccountDeleted  = "account_deleted"
)

// Chat defaults
const (
	// MaxAttachmentSize caps attachment payloads at 750KB so an encoded copy
	// stays under a typical 1MB document-field limit.
	MaxAttachmentSize = 750 * 1024

	// TypingStaleWindow is the maximum age of a typing signal before it is
	// reported as not-typing regardless of the stored flag.
	TypingStaleWindow = 10 * time.Second

	// TypingDebounce is the input-inactivity interval after which the sender
	// side clears its own typing flag.
	TypingDebounce = 3 * time.Second

	// FetchRecentLimit is the default message page size when opening a room.
	FetchRecentLimit = 50

	// PreviewMaxLen bounds the last-message preview stored on a room.
	PreviewMaxLen = 120
)

// Platform Ids
const (
	PlatformIdUnknown = 0
	PlatformIdIOS     = 1
	PlatformIdAndroid = 2
	PlatformIdWindows = 3
	PlatformIdMacOS   = 4
	PlatformIdWeb     = 5
)

// Redis key patterns (without prefix, use RedisKey() getters for full keys)
const (
	redisKeyToken      = "token:%s:%d"    // token:{user_id}:{platform_id}
	redisKeyOnline     = "online:%s"      // online:{user_id}
	redisKeyTyping     = "typing:%s:%s"   // typing:{room_id}:{author_id}
	redisKeyResetToken = "reset:%s"       // reset:{token}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "duet:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyToken() string      { return redisKeyPrefix + redisKeyToken }
func RedisKeyOnline() string     { return redisKeyPrefix + redisKeyOnline }
func RedisKeyTyping() string     { return redisKeyPrefix + redisKeyTyping }
func RedisKeyResetToken() string { return redisKeyPrefix + redisKeyResetToken }
