package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/application/printing"
	"github.com/labelbridge/backend/internal/interfaces/http/middleware"
	"github.com/labelbridge/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// PrintService is the print orchestration use case consumed by PrintJobHandler
type PrintService interface {
	StartJob(ctx context.Context, labelIDs []uuid.UUID, printer string) (*printing.JobResponse, error)
	Status(ctx context.Context, jobID uuid.UUID) (*printing.JobResponse, error)
	List(ctx context.Context, limit int) ([]printing.JobResponse, error)
	Retry(ctx context.Context, jobID uuid.UUID, printer string) (*printing.JobResponse, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
	ListPrinters(ctx context.Context) ([]printing.PrinterResponse, error)
}

// PrintJobHandler handles print job and printer endpoints
type PrintJobHandler struct {
	BaseHandler
	jobs   PrintService
	logger *zap.Logger
}

// NewPrintJobHandler creates a new PrintJobHandler
func NewPrintJobHandler(jobs PrintService, logger *zap.Logger) *PrintJobHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintJobHandler{jobs: jobs, logger: logger.Named("print-handler")}
}

// CreateJob validates the labels, charges the quota and starts printing.
// It answers 202 with the job in its printing state; poll GetJob for progress.
func (h *PrintJobHandler) CreateJob(c *gin.Context) {
	var req printing.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.jobs.StartJob(c.Request.Context(), req.LabelIDs, req.Printer)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("Print job submitted",
		zap.String("jobId", resp.ID.String()),
		zap.String("printer", resp.PrinterName),
		zap.Int("labelCount", resp.TotalCount),
		zap.String("subject", middleware.GetJWTSubject(c)),
	)
	h.Accepted(c, resp)
}

// GetJob returns a job and its items
func (h *PrintJobHandler) GetJob(c *gin.Context) {
	id, ok := h.parseID(c, "job")
	if !ok {
		return
	}

	resp, err := h.jobs.Status(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp == nil {
		h.NotFound(c, "Print job not found")
		return
	}
	h.Success(c, resp)
}

// ListJobs returns recent jobs, newest first
func (h *PrintJobHandler) ListJobs(c *gin.Context) {
	var req printing.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.jobs.List(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RetryJob re-runs every item of a finished job. The body is optional.
func (h *PrintJobHandler) RetryJob(c *gin.Context) {
	id, ok := h.parseID(c, "job")
	if !ok {
		return
	}

	var req printing.RetryJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.jobs.Retry(c.Request.Context(), id, req.Printer)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// DeleteJob removes a job that is not printing
func (h *PrintJobHandler) DeleteJob(c *gin.Context) {
	id, ok := h.parseID(c, "job")
	if !ok {
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPrinters returns the installed printers
func (h *PrintJobHandler) ListPrinters(c *gin.Context) {
	resp, err := h.jobs.ListPrinters(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PrintJobRoutes creates the route group for print job endpoints
func PrintJobRoutes(handler *PrintJobHandler) *router.DomainGroup {
	return router.NewDomainGroup("print-jobs", "/print-jobs").
		POST("", handler.CreateJob).
		GET("", handler.ListJobs).
		GET("/:id", handler.GetJob).
		POST("/:id/retry", handler.RetryJob).
		DELETE("/:id", handler.DeleteJob)
}

// PrinterRoutes creates the route group for printer endpoints
func PrinterRoutes(handler *PrintJobHandler) *router.DomainGroup {
	return router.NewDomainGroup("printers", "/printers").
		GET("", handler.ListPrinters)
}
