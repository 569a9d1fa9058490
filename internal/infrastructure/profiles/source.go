package profiles

import (
	"context"
	"errors"
	"image"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
	"github.com/labelbridge/backend/internal/infrastructure/rendering"
	"go.uber.org/zap"
)

// Source loads the first page or frame of an artifact as a raster at the target resolution
type Source struct {
	rasterizer rendering.Rasterizer
	text       rendering.TextExtractor
	dpi        int
	logger     *zap.Logger
}

// SourceConfig configures a Source
type SourceConfig struct {
	// Rasterizer turns vector documents into bitmaps, usually a rendering.Chain
	Rasterizer rendering.Rasterizer
	// Text reads page text for carrier detection. Optional.
	Text rendering.TextExtractor
	// DPI defaults to the label target resolution
	DPI    int
	Logger *zap.Logger
}

// NewSource creates a source loader
func NewSource(cfg SourceConfig) *Source {
	if cfg.DPI <= 0 {
		cfg.DPI = label.TargetDPI
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Source{
		rasterizer: cfg.Rasterizer,
		text:       cfg.Text,
		dpi:        cfg.DPI,
		logger:     cfg.Logger,
	}
}

// Load returns the artifact's first page or frame.
// Raster input is decoded directly; vector input goes through the rasterizer.
func (s *Source) Load(ctx context.Context, artifact label.SourceArtifact) (image.Image, error) {
	switch {
	case artifact.Kind.IsRaster():
		img, err := labelimage.DecodeFirstFrame(artifact.Path)
		if err != nil {
			return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to decode label image", err)
		}
		return img, nil

	case artifact.Kind.IsVector():
		if s.rasterizer == nil {
			return nil, shared.NewDomainError(shared.CodeRenderingUnavailable, "no rendering backend is configured")
		}
		img, err := s.rasterizer.RasterizeFirstPage(ctx, rendering.Document{Path: artifact.Path, Kind: artifact.Kind}, s.dpi)
		if err != nil {
			var renderErr *rendering.RenderError
			if errors.As(err, &renderErr) && renderErr.Code == rendering.ErrCodeRenderingUnavailable {
				return nil, shared.WrapDomainError(shared.CodeRenderingUnavailable, "no rendering backend could rasterize the label", err)
			}
			return nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to rasterize label", err)
		}
		if img.Bounds().Empty() {
			return nil, shared.NewDomainError(shared.CodeTransformFailed, "rasterized label has no pixels")
		}
		return img, nil
	}

	return nil, shared.NewDomainError(shared.CodeTransformFailed, "unsupported label format: "+artifact.Kind.String())
}

// Text returns the page-one text of a vector artifact, or "" when none can be read.
// Extraction failures only cost carrier detection, so they are logged and swallowed.
func (s *Source) Text(ctx context.Context, artifact label.SourceArtifact) string {
	if s.text == nil || artifact.Kind != label.ArtifactKindPDF {
		return ""
	}
	text, err := s.text.ExtractText(ctx, rendering.Document{Path: artifact.Path, Kind: artifact.Kind})
	if err != nil {
		s.logger.Debug("Text extraction failed",
			zap.String("path", artifact.Path),
			zap.Error(err))
		return ""
	}
	return text
}
