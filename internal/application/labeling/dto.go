package labeling

import (
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
)

// =============================================================================
// Request DTOs
// =============================================================================

// PrepareRequest represents a request to prepare labels for records
type PrepareRequest struct {
	RecordIDs []uuid.UUID `json:"record_ids" binding:"required,max=200"`
	Footer    *FooterDTO  `json:"footer"`
}

// FooterDTO selects the sale fields printed in the footer band
type FooterDTO struct {
	ProductNumber bool `json:"product_number"`
	Title         bool `json:"title"`
	Date          bool `json:"date"`
}

// ToDomain converts the DTO. A footer with no field selected means no footer.
func (f *FooterDTO) ToDomain() *label.FooterConfig {
	if f == nil {
		return nil
	}
	cfg := &label.FooterConfig{
		IncludeProductNumber: f.ProductNumber,
		IncludeTitle:         f.Title,
		IncludeDate:          f.Date,
	}
	if cfg.IsEmpty() {
		return nil
	}
	return cfg
}

// ThumbnailsRequest represents a request for label previews
type ThumbnailsRequest struct {
	LabelIDs []uuid.UUID `json:"label_ids" binding:"required,min=1,max=100"`
	Width    int         `json:"width" binding:"omitempty,min=16,max=1181"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// LabelResponse represents a prepared label
type LabelResponse struct {
	ID            uuid.UUID           `json:"id"`
	RecordID      uuid.UUID           `json:"record_id"`
	ProfileID     string              `json:"profile_id"`
	OutputPath    string              `json:"output_path"`
	WidthMM       float64             `json:"width_mm"`
	HeightMM      float64             `json:"height_mm"`
	DPI           int                 `json:"dpi"`
	FooterApplied bool                `json:"footer_applied"`
	Footer        *label.FooterConfig `json:"footer,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// PrepareResponse holds the labels that were produced and one message per failed record
type PrepareResponse struct {
	Labels []LabelResponse `json:"labels"`
	Errors []string        `json:"errors"`
}

// ThumbnailResponse is a PNG preview of a label. PNG is base64 encoded in JSON.
type ThumbnailResponse struct {
	LabelID uuid.UUID `json:"label_id"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	PNG     []byte    `json:"png"`
}

// ThumbnailsResponse holds previews in request order and one message per failed label
type ThumbnailsResponse struct {
	Thumbnails []ThumbnailResponse `json:"thumbnails"`
	Errors     []string            `json:"errors"`
}

// ToLabelResponse converts a domain label to a response DTO
func ToLabelResponse(l *label.PreparedLabel) LabelResponse {
	return LabelResponse{
		ID:            l.ID,
		RecordID:      l.RecordID,
		ProfileID:     l.ProfileID.String(),
		OutputPath:    l.OutputPath,
		WidthMM:       l.WidthMM,
		HeightMM:      l.HeightMM,
		DPI:           l.DPI,
		FooterApplied: l.FooterApplied,
		Footer:        l.FooterConfig,
		CreatedAt:     l.CreatedAt,
	}
}

// ToLabelResponses converts a slice of domain labels
func ToLabelResponses(labels []label.PreparedLabel) []LabelResponse {
	responses := make([]LabelResponse, len(labels))
	for i := range labels {
		responses[i] = ToLabelResponse(&labels[i])
	}
	return responses
}
