package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/application/labeling"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/interfaces/http/middleware"
	"github.com/labelbridge/backend/internal/interfaces/http/router"
)

// LabelService is the label preparation use case consumed by LabelHandler
type LabelService interface {
	Prepare(ctx context.Context, recordIDs []uuid.UUID, footer *label.FooterConfig) (*labeling.PrepareResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*labeling.LabelResponse, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]labeling.LabelResponse, error)
	OpenFile(ctx context.Context, id uuid.UUID) (io.ReadCloser, *labeling.LabelResponse, error)
	Thumbnails(ctx context.Context, labelIDs []uuid.UUID, width int) (*labeling.ThumbnailsResponse, error)
}

// LabelHandler handles label preparation endpoints
type LabelHandler struct {
	BaseHandler
	labels LabelService
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(labels LabelService) *LabelHandler {
	return &LabelHandler{labels: labels}
}

// ListLabelsRequest selects the labels of one record
type ListLabelsRequest struct {
	RecordID string `form:"record_id" binding:"required,uuid"`
}

// Prepare normalizes the label attachments of the given records.
// Per-record failures are reported in the errors list with a 200 answer.
func (h *LabelHandler) Prepare(c *gin.Context) {
	var req labeling.PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.labels.Prepare(c.Request.Context(), req.RecordIDs, req.Footer.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLabel returns one prepared label
func (h *LabelHandler) GetLabel(c *gin.Context) {
	id, ok := h.parseID(c, "label")
	if !ok {
		return
	}

	resp, err := h.labels.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLabels returns the labels prepared for a record, newest first
func (h *LabelHandler) ListLabels(c *gin.Context) {
	var req ListLabelsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.labels.ListByRecord(c.Request.Context(), uuid.MustParse(req.RecordID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Thumbnails renders PNG previews of stored labels
func (h *LabelHandler) Thumbnails(c *gin.Context) {
	var req labeling.ThumbnailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.labels.Thumbnails(c.Request.Context(), req.LabelIDs, req.Width)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DownloadFile streams the stored label document
func (h *LabelHandler) DownloadFile(c *gin.Context) {
	id, ok := h.parseID(c, "label")
	if !ok {
		return
	}

	file, resp, err := h.labels.OpenFile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("label-%s%s", resp.ID, path.Ext(resp.OutputPath))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", file, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, filename),
	})
}

// LabelRoutes creates the route group for label endpoints
func LabelRoutes(handler *LabelHandler) *router.DomainGroup {
	return router.NewDomainGroup("labels", "/labels").
		POST("/prepare", handler.Prepare).
		POST("/thumbnails", handler.Thumbnails).
		GET("", handler.ListLabels).
		GET("/:id", handler.GetLabel).
		GET("/:id/file", handler.DownloadFile)
}
