package label

import (
	"context"

	"github.com/google/uuid"
)

// PreparedLabelRepository defines the interface for prepared label persistence
type PreparedLabelRepository interface {
	// FindByID finds a label by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PreparedLabel, error)

	// FindByIDs finds labels by IDs, preserving the order of ids and skipping unknown ones
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]PreparedLabel, error)

	// FindByRecord finds all labels prepared for a record, newest first
	FindByRecord(ctx context.Context, recordID uuid.UUID) ([]PreparedLabel, error)

	// Save inserts a new label
	Save(ctx context.Context, label *PreparedLabel) error
}

// SaleReader reads the externally owned sale records and their label attachments
type SaleReader interface {
	// FindSale finds a sale by ID
	FindSale(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindLabelAttachment finds the single relevant label attachment of a sale
	FindLabelAttachment(ctx context.Context, saleID uuid.UUID) (*Attachment, error)

	// BackfillCarrier records a carrier discovered during processing on a sale that had none
	BackfillCarrier(ctx context.Context, saleID uuid.UUID, carrier string) error
}
