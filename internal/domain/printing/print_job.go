package printing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/shared"
)

// PrintJob is one submission of a batch of prepared labels to a printer.
// TotalCount is fixed at creation and equals len(Items).
// PrintedCount never exceeds TotalCount and only decreases on retry.
type PrintJob struct {
	shared.BaseAggregateRoot
	PrinterName  string
	Status       JobStatus
	PrintedCount int
	TotalCount   int
	Errors       []string
	QuotaCharged bool
	Items        []PrintJobItem
}

// PrintJobItem is one label's submission attempt within a job
type PrintJobItem struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	LabelID   uuid.UUID
	Position  int
	Status    ItemStatus
	Error     string
	UpdatedAt time.Time
}

// NewPrintJob creates a pending job with one pending item per label, in the given order
func NewPrintJob(printerName string, labelIDs []uuid.UUID) (*PrintJob, error) {
	if printerName == "" {
		return nil, shared.NewDomainError("INVALID_PRINTER", "Printer name cannot be empty")
	}
	if len(labelIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "At least one label is required")
	}

	job := &PrintJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PrinterName:       printerName,
		Status:            JobStatusPending,
		TotalCount:        len(labelIDs),
		Items:             make([]PrintJobItem, 0, len(labelIDs)),
	}

	for i, labelID := range labelIDs {
		if labelID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Label ID cannot be empty")
		}
		job.Items = append(job.Items, PrintJobItem{
			ID:        uuid.New(),
			JobID:     job.ID,
			LabelID:   labelID,
			Position:  i,
			Status:    ItemStatusPending,
			UpdatedAt: job.CreatedAt,
		})
	}

	return job, nil
}

// StartPrinting marks the job as printing
func (j *PrintJob) StartPrinting() error {
	if !j.Status.CanTransitionTo(JobStatusPrinting) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot start printing from status: "+j.Status.String())
	}

	j.Status = JobStatusPrinting
	j.Touch()
	j.IncrementVersion()
	return nil
}

// MarkItemPrinted records a confirmed submission and increments the printed count
func (j *PrintJob) MarkItemPrinted(itemID uuid.UUID) (*PrintJobItem, error) {
	item, err := j.pendingItem(itemID)
	if err != nil {
		return nil, err
	}
	if j.PrintedCount >= j.TotalCount {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Printed count cannot exceed total count")
	}

	item.Status = ItemStatusPrinted
	item.Error = ""
	item.UpdatedAt = time.Now().UTC()
	j.PrintedCount++
	j.Touch()
	return item, nil
}

// MarkItemFailed records a failed submission. The job keeps going.
func (j *PrintJob) MarkItemFailed(itemID uuid.UUID, message string) (*PrintJobItem, error) {
	item, err := j.pendingItem(itemID)
	if err != nil {
		return nil, err
	}

	item.Status = ItemStatusFailed
	item.Error = message
	item.UpdatedAt = time.Now().UTC()
	j.Errors = append(j.Errors, fmt.Sprintf("label %s: %s", item.LabelID, message))
	j.Touch()
	return item, nil
}

// Finish moves a printing job to completed when every item printed, failed otherwise
func (j *PrintJob) Finish() error {
	if j.Status != JobStatusPrinting {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot finish a job in status: "+j.Status.String())
	}

	if j.PrintedCount == j.TotalCount {
		j.Status = JobStatusCompleted
	} else {
		j.Status = JobStatusFailed
	}
	j.Touch()
	j.IncrementVersion()
	return nil
}

// Fail aborts a printing job with a job-level error
func (j *PrintJob) Fail(message string) error {
	if !j.Status.CanTransitionTo(JobStatusFailed) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot fail a job in status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.Errors = append(j.Errors, message)
	j.Touch()
	j.IncrementVersion()
	return nil
}

// ResetForRetry puts the job and every item back to pending with a zero printed count.
// Items are re-attempted, never re-created.
func (j *PrintJob) ResetForRetry() error {
	if j.Status == JobStatusPrinting {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot retry a job that is printing")
	}
	if j.Status == JobStatusPending {
		return nil
	}

	j.Status = JobStatusPending
	j.PrintedCount = 0
	j.Errors = nil
	now := time.Now().UTC()
	for i := range j.Items {
		j.Items[i].Status = ItemStatusPending
		j.Items[i].Error = ""
		j.Items[i].UpdatedAt = now
	}
	j.Touch()
	j.IncrementVersion()
	return nil
}

// ChangePrinter retargets a job that is not printing
func (j *PrintJob) ChangePrinter(printerName string) error {
	if printerName == "" {
		return shared.NewDomainError("INVALID_PRINTER", "Printer name cannot be empty")
	}
	if j.Status == JobStatusPrinting {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot change the printer of a job that is printing")
	}
	j.PrinterName = printerName
	j.Touch()
	return nil
}

// MarkQuotaCharged records that the quota gate accepted this job
func (j *PrintJob) MarkQuotaCharged() {
	j.QuotaCharged = true
	j.Touch()
}

// CanDelete returns true unless the job is printing
func (j *PrintJob) CanDelete() bool {
	return j.Status != JobStatusPrinting
}

// IsPrinting returns true if the job is being processed
func (j *PrintJob) IsPrinting() bool {
	return j.Status == JobStatusPrinting
}

// FailedCount returns the number of failed items
func (j *PrintJob) FailedCount() int {
	count := 0
	for _, item := range j.Items {
		if item.Status == ItemStatusFailed {
			count++
		}
	}
	return count
}

// LabelIDs returns the labels of the job in item order
func (j *PrintJob) LabelIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(j.Items))
	for i, item := range j.Items {
		ids[i] = item.LabelID
	}
	return ids
}

func (j *PrintJob) pendingItem(itemID uuid.UUID) (*PrintJobItem, error) {
	if j.Status != JobStatusPrinting {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot update items of a job in status: "+j.Status.String())
	}
	for i := range j.Items {
		if j.Items[i].ID != itemID {
			continue
		}
		if j.Items[i].Status != ItemStatusPending {
			return nil, shared.NewDomainError(shared.CodeInvalidState,
				"Item already resolved with status: "+j.Items[i].Status.String())
		}
		return &j.Items[i], nil
	}
	return nil, shared.ErrNotFound
}
