package printing

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/printing"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreateJobRequest represents a request to print labels.
// An empty printer selects the system default printer.
type CreateJobRequest struct {
	LabelIDs []uuid.UUID `json:"label_ids" binding:"required,min=1,max=500"`
	Printer  string      `json:"printer" binding:"max=255"`
}

// RetryJobRequest optionally retargets a job before it is re-run
type RetryJobRequest struct {
	Printer string `json:"printer" binding:"max=255"`
}

// ListJobsRequest represents a request to list recent jobs
type ListJobsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// JobResponse represents a print job and its items
type JobResponse struct {
	ID           uuid.UUID      `json:"id"`
	PrinterName  string         `json:"printer_name"`
	Status       string         `json:"status"`
	PrintedCount int            `json:"printed_count"`
	TotalCount   int            `json:"total_count"`
	FailedCount  int            `json:"failed_count"`
	Errors       []string       `json:"errors"`
	QuotaCharged bool           `json:"quota_charged"`
	Items        []ItemResponse `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ItemResponse represents one label of a print job
type ItemResponse struct {
	ID       uuid.UUID `json:"id"`
	LabelID  uuid.UUID `json:"label_id"`
	Position int       `json:"position"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// PrinterResponse represents an installed printer. Status is advisory.
type PrinterResponse struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Status    string `json:"status"`
}

// ToJobResponse converts a domain job to a response DTO
func ToJobResponse(job *printing.PrintJob) *JobResponse {
	errs := job.Errors
	if errs == nil {
		errs = []string{}
	}
	items := make([]ItemResponse, len(job.Items))
	for i, item := range job.Items {
		items[i] = ItemResponse{
			ID:       item.ID,
			LabelID:  item.LabelID,
			Position: item.Position,
			Status:   item.Status.String(),
			Error:    item.Error,
		}
	}
	return &JobResponse{
		ID:           job.ID,
		PrinterName:  job.PrinterName,
		Status:       job.Status.String(),
		PrintedCount: job.PrintedCount,
		TotalCount:   job.TotalCount,
		FailedCount:  job.FailedCount(),
		Errors:       slices.Clone(errs),
		QuotaCharged: job.QuotaCharged,
		Items:        items,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// ToJobResponses converts a slice of domain jobs
func ToJobResponses(jobs []printing.PrintJob) []JobResponse {
	responses := make([]JobResponse, len(jobs))
	for i := range jobs {
		responses[i] = *ToJobResponse(&jobs[i])
	}
	return responses
}

// ToPrinterResponses converts printer infos
func ToPrinterResponses(printers []printing.PrinterInfo) []PrinterResponse {
	responses := make([]PrinterResponse, len(printers))
	for i, p := range printers {
		responses[i] = PrinterResponse{
			Name:      p.Name,
			IsDefault: p.IsDefault,
			Status:    p.Status.String(),
		}
	}
	return responses
}
