package printing

import (
	"context"

	"github.com/google/uuid"
)

// PrintJobRepository defines the interface for print job persistence
type PrintJobRepository interface {
	// Create inserts a job and all of its items in one transaction
	Create(ctx context.Context, job *PrintJob) error

	// FindByID finds a job by ID with its items ordered by position
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindRecent returns the most recently created jobs with their items
	FindRecent(ctx context.Context, limit int) ([]PrintJob, error)

	// FindByStatus returns jobs in the given status with their items
	FindByStatus(ctx context.Context, status JobStatus) ([]PrintJob, error)

	// Save updates the job row only
	Save(ctx context.Context, job *PrintJob) error

	// SaveItem updates a single item
	SaveItem(ctx context.Context, item *PrintJobItem) error

	// SaveWithItems updates the job and every item in one transaction
	SaveWithItems(ctx context.Context, job *PrintJob) error

	// Delete removes a job and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
