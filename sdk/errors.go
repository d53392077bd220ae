package sdk

import "fmt"

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Common error codes
const (
	// Success
	CodeSuccess = 0

	// Common errors (1xxx)
	CodeInvalidParam   = 1001
	CodeInternalServer = 1002
	CodeUnauthorized   = 1003
	CodeForbidden      = 1004
	CodeNotFound       = 1005
	CodeNoPermission   = 1007

	// Validation errors (11xx)
	CodeInvalidEmail     = 1101
	CodeWeakPassword     = 1102
	CodePasswordMismatch = 1103
	CodeInvalidName      = 1104
	CodeInvalidPhone     = 1105
	CodeEmptyMessage     = 1106

	// Auth errors (2xxx)
	CodeTokenInvalid      = 2001
	CodeTokenExpired      = 2002
	CodeTokenMissing      = 2003
	CodeUserNotFound      = 2006
	CodeEmailTaken        = 2007
	CodePasswordWrong     = 2008
	CodeResetTokenInvalid = 2009
	CodeReauthRequired    = 2010

	// Chat errors (3xxx)
	CodeRoomNotFound   = 3001
	CodeNotParticipant = 3002
	CodeSendFailed     = 3003
	CodeFetchFailed    = 3004

	// Attachment errors (4xxx)
	CodeAttachmentTooLarge = 4001
	CodeBlobNotFound       = 4002
	CodeUploadFailed       = 4003
)

// Predefined errors
var (
	ErrInvalidParam   = NewError(CodeInvalidParam, "invalid parameter")
	ErrInternalServer = NewError(CodeInternalServer, "internal server error")
	ErrUnauthorized   = NewError(CodeUnauthorized, "unauthorized")
	ErrNotFound       = NewError(CodeNotFound, "not found")

	ErrTokenInvalid  = NewError(CodeTokenInvalid, "token invalid")
	ErrUserNotFound  = NewError(CodeUserNotFound, "user not found")
	ErrEmailTaken    = NewError(CodeEmailTaken, "email already registered")
	ErrPasswordWrong = NewError(CodePasswordWrong, "password wrong")

	ErrNotParticipant = NewError(CodeNotParticipant, "not a participant of this room")
	ErrEmptyMessage   = NewError(CodeEmptyMessage, "message has no text or attachment")

	ErrAttachmentTooLarge = NewError(CodeAttachmentTooLarge, "attachment exceeds size limit")
)
