package label

import (
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/shared"
)

// PreparedLabel is a normalized, print-ready label document.
// It is immutable once persisted: re-preparing a record produces a new label.
type PreparedLabel struct {
	shared.BaseEntity
	RecordID      uuid.UUID
	ProfileID     ProfileID
	OutputPath    string
	WidthMM       float64
	HeightMM      float64
	DPI           int
	FooterApplied bool
	FooterConfig  *FooterConfig
}

// NewPreparedLabel creates a label for a record at the target physical size
func NewPreparedLabel(recordID uuid.UUID, profileID ProfileID, footer *FooterConfig) (*PreparedLabel, error) {
	if recordID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Record ID cannot be empty")
	}
	if profileID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Profile ID cannot be empty")
	}

	var snapshot *FooterConfig
	if footer != nil {
		copied := *footer
		snapshot = &copied
	}

	return &PreparedLabel{
		BaseEntity:    shared.NewBaseEntity(),
		RecordID:      recordID,
		ProfileID:     profileID,
		WidthMM:       TargetWidthMM,
		HeightMM:      TargetHeightMM,
		DPI:           TargetDPI,
		FooterApplied: footer != nil,
		FooterConfig:  snapshot,
	}, nil
}

// RecordOutput sets the path of the written artifact. It may only be set once.
func (l *PreparedLabel) RecordOutput(path string) error {
	if path == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Output path cannot be empty")
	}
	if l.OutputPath != "" {
		return shared.NewDomainError(shared.CodeInvalidState, "Label output is already recorded")
	}
	l.OutputPath = path
	return nil
}
