package labeling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/rendering"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"
)

const (
	// ThumbnailDPI is the preview rasterization resolution
	ThumbnailDPI = 72
	// DefaultThumbnailWidth is used when a request gives no width
	DefaultThumbnailWidth = 200

	thumbnailConcurrency = 5
)

// Thumbnails renders PNG previews of stored labels with bounded concurrency.
// Results keep the order of labelIDs; failed labels are reported as "<labelID>: <message>".
func (s *Service) Thumbnails(ctx context.Context, labelIDs []uuid.UUID, width int) (*ThumbnailsResponse, error) {
	if s.thumbnails == nil {
		return nil, shared.NewDomainError(shared.CodeRenderingUnavailable, "no rendering backend is configured for previews")
	}
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if width > label.Target().WidthPx {
		width = label.Target().WidthPx
	}

	thumbs := make([]*ThumbnailResponse, len(labelIDs))
	failures := make([]error, len(labelIDs))

	var g errgroup.Group
	g.SetLimit(thumbnailConcurrency)
	for i, id := range labelIDs {
		g.Go(func() error {
			thumb, err := s.thumbnail(ctx, id, width)
			if err != nil {
				failures[i] = err
				return nil
			}
			thumbs[i] = thumb
			return nil
		})
	}
	_ = g.Wait()

	resp := &ThumbnailsResponse{
		Thumbnails: make([]ThumbnailResponse, 0, len(labelIDs)),
		Errors:     make([]string, 0),
	}
	for i, id := range labelIDs {
		if failures[i] != nil {
			s.logger.Debug("Thumbnail failed", zap.String("labelId", id.String()), zap.Error(failures[i]))
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %s", id, failures[i].Error()))
			continue
		}
		resp.Thumbnails = append(resp.Thumbnails, *thumbs[i])
	}
	return resp, nil
}

func (s *Service) thumbnail(ctx context.Context, id uuid.UUID, width int) (*ThumbnailResponse, error) {
	prepared, err := s.labels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "label not found")
		}
		return nil, fmt.Errorf("failed to get label: %w", err)
	}

	path, err := s.files.Resolve(prepared.OutputPath)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeLabelFileMissing, "label file is missing", err)
	}

	img, err := s.thumbnails.RasterizeFirstPage(ctx, rendering.Document{Path: path, Kind: label.ArtifactKindPDF}, ThumbnailDPI)
	if err != nil {
		return nil, err
	}

	preview := imaging.Resize(img, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &ThumbnailResponse{
		LabelID: id,
		Width:   preview.Bounds().Dx(),
		Height:  preview.Bounds().Dy(),
		PNG:     buf.Bytes(),
	}, nil
}
