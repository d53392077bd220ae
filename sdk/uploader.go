package sdk

import (
	"context"
	"fmt"
)

// MaxAttachmentSize is the largest attachment payload the server accepts.
// Checked locally before any bytes leave the client.
const MaxAttachmentSize = 750 * 1024

// Uploader pushes attachment payloads to the blob endpoint
type Uploader struct {
	client  *Client
	maxSize int64
}

// NewUploader creates an Uploader bound to an authenticated client
func NewUploader(client *Client) *Uploader {
	return &Uploader{client: client, maxSize: MaxAttachmentSize}
}

// Upload stores one attachment and returns its metadata. Oversized
// payloads fail immediately without a network round trip.
func (u *Uploader) Upload(ctx context.Context, name, mime string, data []byte) (*Attachment, error) {
	if int64(len(data)) > u.maxSize {
		return nil, ErrAttachmentTooLarge
	}
	if len(data) == 0 {
		return nil, ErrInvalidParam
	}

	var result UploadResponse
	if err := u.client.requestRaw(ctx, "POST", "/blob/upload", mime, data, &result); err != nil {
		return nil, err
	}

	// The ref is carried on messages verbatim, never re-derived
	return &Attachment{
		Name: name,
		Size: int64(len(data)),
		Mime: mime,
		Ref:  result.Ref,
	}, nil
}

// Download fetches an attachment's bytes by ref
func (u *Uploader) Download(ctx context.Context, ref string) ([]byte, error) {
	// Blob get returns raw bytes, not the JSON envelope
	return u.client.getRaw(ctx, "/blob/"+ref)
}

// FormatSize renders a byte count for user display. Sizes under one
// megabyte show one decimal in KB, larger sizes two decimals in MB.
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	if size < mb {
		return fmt.Sprintf("%.1fKB", float64(size)/kb)
	}
	return fmt.Sprintf("%.2fMB", float64(size)/mb)
}
