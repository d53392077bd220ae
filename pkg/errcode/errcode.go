package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is reports whether target carries the same code, so errors.Is works
// across wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam    = New(1001, "invalid parameter")
	ErrInternalServer  = New(1002, "internal server error")
	ErrUnauthorized    = New(1003, "unauthorized")
	ErrForbidden       = New(1004, "forbidden")
	ErrNotFound        = New(1005, "not found")
	ErrTooManyRequests = New(1006, "too many requests")
	ErrNoPermission    = New(1007, "no permission to access this resource")

	// Validation errors (11xx) - always raised locally, before any
	// storage or network call
	ErrInvalidEmail     = New(1101, "invalid email address")
	ErrWeakPassword     = New(1102, "password does not meet requirements")
	ErrPasswordMismatch = New(1103, "passwords do not match")
	ErrInvalidName      = New(1104, "name must be 2-50 characters")
	ErrInvalidPhone     = New(1105, "invalid phone number")
	ErrEmptyMessage     = New(1106, "message needs text or an attachment")

	// Auth errors (2xxx)
	ErrTokenInvalid      = New(2001, "token invalid")
	ErrTokenExpired      = New(2002, "token expired")
	ErrTokenMissing      = New(2003, "token missing")
	ErrTokenMismatch     = New(2004, "token user mismatch")
	ErrLoginFailed       = New(2005, "login failed")
	ErrUserNotFound      = New(2006, "user not found")
	ErrEmailTaken        = New(2007, "email already registered")
	ErrPasswordWrong     = New(2008, "incorrect password")
	ErrResetTokenInvalid = New(2009, "reset token invalid or expired")
	ErrReauthRequired    = New(2010, "re-authentication required")
	ErrExternalAuthOff   = New(2011, "external sign-in disabled")

	// Chat errors (3xxx)
	ErrRoomNotFound   = New(3001, "room not found")
	ErrNotParticipant = New(3002, "not a room participant")
	ErrSendFailed     = New(3003, "message send failed")
	ErrFetchFailed    = New(3004, "message fetch failed")
	ErrMarkReadFailed = New(3005, "mark read failed")

	// Attachment/blob errors (4xxx)
	ErrAttachmentTooLarge = New(4001, "attachment exceeds size limit")
	ErrBlobNotFound       = New(4002, "blob not found")
	ErrUploadFailed       = New(4003, "attachment upload failed")

	// WebSocket errors (5xxx)
	ErrConnOverLimit    = New(5001, "connection over max limit")
	ErrConnClosed       = New(5002, "connection closed")
	ErrInvalidProtocol  = New(5003, "invalid protocol")
	ErrPushFailed       = New(5004, "push snapshot failed")
	ErrSubscriptionDead = New(5005, "subscription terminated")
)
