package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kereva-dev/duet/internal/blob"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/response"
)

// BlobHandler handles attachment uploads and downloads
type BlobHandler struct {
	store *blob.Store
}

// NewBlobHandler creates a new BlobHandler
func NewBlobHandler(store *blob.Store) *BlobHandler {
	return &BlobHandler{store: store}
}

// Upload stores the raw request body and returns its ref
func (h *BlobHandler) Upload(ctx context.Context, c *app.RequestContext) {
	data := c.Request.Body()
	if len(data) == 0 {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	ref, err := h.store.Put(data)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"ref":  ref,
		"size": len(data),
	})
}

// Get serves a blob's bytes back
func (h *BlobHandler) Get(ctx context.Context, c *app.RequestContext) {
	ref := c.Param("ref")

	data, err := h.store.Get(ref)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	c.Data(200, "application/octet-stream", data)
}
