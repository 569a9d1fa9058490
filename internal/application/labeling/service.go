package labeling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
	"github.com/labelbridge/backend/internal/infrastructure/rendering"
	"github.com/labelbridge/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Normalizer classifies a source artifact and transforms it to the label target size
type Normalizer interface {
	Process(ctx context.Context, artifact label.SourceArtifact, pctx label.ProcessingContext, area label.Area) (*label.NormalizedArtifact, error)
}

// LabelFiles stores prepared label documents and hands out scratch workspaces
type LabelFiles interface {
	Workspace(recordID uuid.UUID) (string, func(), error)
	StoreLabel(ctx context.Context, labelID uuid.UUID, createdAt time.Time, data []byte) (string, error)
	Resolve(path string) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// Archiver mirrors prepared labels to long-term storage
type Archiver interface {
	ArchiveLabel(ctx context.Context, labelID uuid.UUID, createdAt time.Time, data []byte) (string, error)
}

// Metrics receives preparation outcomes
type Metrics interface {
	RecordLabelPrepared(profile string, seconds float64)
	RecordPreparationFailure(code string)
}

// Service prepares print-ready labels from sale label attachments
type Service struct {
	sales          label.SaleReader
	labels         label.PreparedLabelRepository
	normalizer     Normalizer
	files          LabelFiles
	compositor     *labelimage.Compositor
	pdf            *labelimage.PDFWriter
	archive        Archiver
	thumbnails     rendering.Rasterizer
	metrics        Metrics
	attachmentsDir string
	logger         *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCompositor sets the footer compositor
func WithCompositor(c *labelimage.Compositor) Option {
	return func(s *Service) {
		if c != nil {
			s.compositor = c
		}
	}
}

// WithPDFWriter sets the PDF writer
func WithPDFWriter(w *labelimage.PDFWriter) Option {
	return func(s *Service) {
		if w != nil {
			s.pdf = w
		}
	}
}

// WithArchive mirrors every prepared label to an archive
func WithArchive(a Archiver) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithThumbnailRasterizer sets the rasterizer used for previews
func WithThumbnailRasterizer(r rendering.Rasterizer) Option {
	return func(s *Service) {
		s.thumbnails = r
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAttachmentsDir sets the base directory of relative attachment paths
func WithAttachmentsDir(dir string) Option {
	return func(s *Service) {
		s.attachmentsDir = dir
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a label preparation service
func NewService(
	sales label.SaleReader,
	labels label.PreparedLabelRepository,
	normalizer Normalizer,
	files LabelFiles,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		sales:      sales,
		labels:     labels,
		normalizer: normalizer,
		files:      files,
		pdf:        labelimage.NewPDFWriter(""),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compositor == nil {
		compositor, err := labelimage.NewCompositor(labelimage.DefaultFooterStyle())
		if err != nil {
			return nil, fmt.Errorf("failed to create footer compositor: %w", err)
		}
		s.compositor = compositor
	}
	s.logger = s.logger.Named("labeling")
	return s, nil
}

// Prepare normalizes the label attachment of each record, one record at a time.
// A failing record adds "<recordID>: <message>" to Errors and never stops the batch.
// The returned error is only set when ctx ends before every record was handled.
func (s *Service) Prepare(ctx context.Context, recordIDs []uuid.UUID, footer *label.FooterConfig) (*PrepareResponse, error) {
	result := &PrepareResponse{
		Labels: make([]LabelResponse, 0, len(recordIDs)),
		Errors: make([]string, 0),
	}
	if len(recordIDs) == 0 {
		return result, nil
	}
	if footer != nil && footer.IsEmpty() {
		footer = nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "labeling", "prepare", telemetry.AttrLabelCount, len(recordIDs))
	defer span.End()

	for i, recordID := range recordIDs {
		if err := ctx.Err(); err != nil {
			for _, skipped := range recordIDs[i:] {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", skipped, err))
			}
			telemetry.RecordError(span, err)
			return result, err
		}

		prepared, warnings, err := s.prepareRecord(ctx, recordID, footer)
		if err != nil {
			s.recordFailure(err)
			s.logger.Warn("Label preparation failed",
				zap.String("recordId", recordID.String()),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", recordID, err.Error()))
			continue
		}
		result.Labels = append(result.Labels, ToLabelResponse(prepared))
		for _, w := range warnings {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", recordID, w))
		}
	}

	s.logger.Info("Labels prepared",
		zap.Int("requested", len(recordIDs)),
		zap.Int("prepared", len(result.Labels)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// prepareRecord runs the whole pipeline for one record. Warnings are failures of optional
// steps that did not prevent the label from being produced.
func (s *Service) prepareRecord(ctx context.Context, recordID uuid.UUID, footer *label.FooterConfig) (prepared *label.PreparedLabel, warnings []string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "labeling", "prepare_record", telemetry.AttrRecordID, recordID.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	started := time.Now()

	sale, err := s.sales.FindSale(ctx, recordID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.CodeNotFound, "sale not found")
		}
		return nil, nil, fmt.Errorf("failed to load sale: %w", err)
	}

	attachment, err := s.sales.FindLabelAttachment(ctx, sale.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.CodeAttachmentMissing, "sale has no label attachment")
		}
		return nil, nil, fmt.Errorf("failed to load label attachment: %w", err)
	}

	sourcePath := s.attachmentPath(attachment.Path)
	if info, statErr := os.Stat(sourcePath); statErr != nil || !info.Mode().IsRegular() {
		return nil, nil, shared.NewDomainError(shared.CodeAttachmentMissing, "label attachment file is missing")
	}

	kind, err := rendering.DetectKind(sourcePath)
	if err != nil {
		return nil, nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to read label attachment", err)
	}
	if kind == label.ArtifactKindUnknown {
		return nil, nil, shared.NewDomainError(shared.CodeTransformFailed, "unsupported label format")
	}

	workspace, cleanup, err := s.files.Workspace(sale.ID)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	staged := filepath.Join(workspace, "source"+rendering.Extension(kind))
	if err := copyFile(sourcePath, staged); err != nil {
		return nil, nil, err
	}

	pctx := label.ProcessingContext{
		RecordID:    sale.ID,
		Carrier:     sale.Carrier,
		Marketplace: sale.Marketplace,
	}
	normalized, err := s.normalizer.Process(ctx, label.SourceArtifact{Path: staged, Kind: kind}, pctx, label.ContentArea(footer != nil))
	if err != nil {
		return nil, nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrProfileID, normalized.ProfileID.String())

	normalized.Path = filepath.Join(workspace, "normalized.png")
	if err := labelimage.WritePNG(normalized.Path, normalized.Image); err != nil {
		return nil, nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to write normalized label", err)
	}

	final := normalized.Image
	if footer != nil {
		text := labelimage.FooterText(*sale, *footer, s.compositor.Style())
		composed, err := s.compositor.Compose(normalized.Image, text)
		if err != nil {
			return nil, nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to draw footer", err)
		}
		final = composed
	}

	prepared, err = label.NewPreparedLabel(sale.ID, normalized.ProfileID, footer)
	if err != nil {
		return nil, nil, err
	}

	document, err := s.pdf.Write(final, "Shipping label "+sale.ID.String())
	if err != nil {
		return nil, nil, shared.WrapDomainError(shared.CodeTransformFailed, "failed to write label document", err)
	}

	path, err := s.files.StoreLabel(ctx, prepared.ID, prepared.CreatedAt, document)
	if err != nil {
		return nil, nil, err
	}
	if err := prepared.RecordOutput(path); err != nil {
		return nil, nil, err
	}

	if err := s.labels.Save(ctx, prepared); err != nil {
		if delErr := s.files.Delete(ctx, path); delErr != nil {
			s.logger.Warn("Failed to remove orphaned label file", zap.String("path", path), zap.Error(delErr))
		}
		return nil, nil, fmt.Errorf("failed to save label: %w", err)
	}

	if s.archive != nil {
		if _, err := s.archive.ArchiveLabel(ctx, prepared.ID, prepared.CreatedAt, document); err != nil {
			s.logger.Warn("Label archive failed",
				zap.String("labelId", prepared.ID.String()),
				zap.Error(err))
			warnings = append(warnings, "archive: "+err.Error())
		}
	}

	if normalized.DetectedCarrier != "" && strings.TrimSpace(sale.Carrier) == "" {
		if err := s.sales.BackfillCarrier(ctx, sale.ID, normalized.DetectedCarrier); err != nil {
			s.logger.Warn("Failed to record detected carrier",
				zap.String("recordId", sale.ID.String()),
				zap.String("carrier", normalized.DetectedCarrier),
				zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordLabelPrepared(prepared.ProfileID.String(), time.Since(started).Seconds())
	}
	s.logger.Debug("Label prepared",
		zap.String("recordId", sale.ID.String()),
		zap.String("labelId", prepared.ID.String()),
		zap.String("profile", prepared.ProfileID.String()),
		zap.Bool("footer", prepared.FooterApplied))
	return prepared, warnings, nil
}

func (s *Service) recordFailure(err error) {
	if s.metrics == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.metrics.RecordPreparationFailure(domainErr.Code)
		return
	}
	s.metrics.RecordPreparationFailure("")
}

// attachmentPath resolves an attachment path against the attachments directory
func (s *Service) attachmentPath(path string) string {
	if filepath.IsAbs(path) || s.attachmentsDir == "" {
		return path
	}
	return filepath.Join(s.attachmentsDir, filepath.FromSlash(path))
}

// Get returns a prepared label
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LabelResponse, error) {
	prepared, err := s.labels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Label not found")
		}
		return nil, fmt.Errorf("failed to get label: %w", err)
	}
	resp := ToLabelResponse(prepared)
	return &resp, nil
}

// ListByRecord returns every label prepared for a record, newest first
func (s *Service) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]LabelResponse, error) {
	labels, err := s.labels.FindByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return ToLabelResponses(labels), nil
}

// OpenFile opens the stored document of a label. The caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, id uuid.UUID) (io.ReadCloser, *LabelResponse, error) {
	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(ctx, resp.OutputPath)
	if err != nil {
		return nil, nil, shared.WrapDomainError(shared.CodeLabelFileMissing, "Label file is missing", err)
	}
	return f, resp, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to stage attachment: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to stage attachment: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to stage attachment: %w", err)
	}
	return nil
}
