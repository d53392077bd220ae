package gateway

import "errors"

// Connection and protocol errors surfaced to clients over the wire
var (
	ErrConnClosed       = errors.New("connection closed")
	ErrWriteChannelFull = errors.New("write channel full, client too slow")
	ErrInvalidProtocol  = errors.New("malformed request envelope")
	ErrUserIdMismatch   = errors.New("send_id does not match authenticated user")
	ErrUnknownSub       = errors.New("no such subscription")
	ErrPanic            = errors.New("read loop panic")
)
