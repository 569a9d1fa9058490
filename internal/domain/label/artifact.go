package label

import (
	"image"
	"strings"

	"github.com/google/uuid"
)

// ArtifactKind identifies the encoding of a source artifact
type ArtifactKind string

const (
	ArtifactKindPDF     ArtifactKind = "pdf"
	ArtifactKindSVG     ArtifactKind = "svg"
	ArtifactKindPNG     ArtifactKind = "png"
	ArtifactKindJPEG    ArtifactKind = "jpeg"
	ArtifactKindGIF     ArtifactKind = "gif"
	ArtifactKindBMP     ArtifactKind = "bmp"
	ArtifactKindTIFF    ArtifactKind = "tiff"
	ArtifactKindWEBP    ArtifactKind = "webp"
	ArtifactKindUnknown ArtifactKind = "unknown"
)

// IsVector returns true for page-description formats that must be rasterized
func (k ArtifactKind) IsVector() bool {
	return k == ArtifactKindPDF || k == ArtifactKindSVG
}

// IsRaster returns true for bitmap formats decoded directly
func (k ArtifactKind) IsRaster() bool {
	switch k {
	case ArtifactKindPNG, ArtifactKindJPEG, ArtifactKindGIF, ArtifactKindBMP, ArtifactKindTIFF, ArtifactKindWEBP:
		return true
	}
	return false
}

// String returns the string representation of ArtifactKind
func (k ArtifactKind) String() string {
	return string(k)
}

// SourceArtifact is a label document of unknown origin. It is read-only to the pipeline.
type SourceArtifact struct {
	Path string
	Kind ArtifactKind
}

// ProcessingContext carries optional hints about the artifact's origin.
// The pipeline never mutates it.
type ProcessingContext struct {
	RecordID    uuid.UUID
	Carrier     string
	Marketplace string
}

// HasCarrier reports whether a carrier hint is present
func (c ProcessingContext) HasCarrier() bool {
	return strings.TrimSpace(c.Carrier) != ""
}

// ProfileID identifies a transform profile
type ProfileID string

const (
	ProfileUniversal          ProfileID = "universal"
	ProfileCarrierQuadrant    ProfileID = "carrier-quadrant"
	ProfileCarrierHalfRotated ProfileID = "carrier-half-rotated"
)

// String returns the string representation of ProfileID
func (p ProfileID) String() string {
	return string(p)
}

// NormalizedArtifact is the transient output of a transform profile.
// Its physical size always equals the label target.
type NormalizedArtifact struct {
	ProfileID       ProfileID
	Path            string
	Image           image.Image
	WidthMM         float64
	HeightMM        float64
	DPI             int
	DetectedCarrier string
}

// HasTargetSize reports whether the artifact reports the label target size
func (a *NormalizedArtifact) HasTargetSize() bool {
	return a.WidthMM == TargetWidthMM && a.HeightMM == TargetHeightMM
}
