package printing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultRecentJobs = 50

// LabelFiles locates stored label documents
type LabelFiles interface {
	Exists(path string) bool
	Resolve(path string) (string, error)
}

// Metrics receives print outcomes
type Metrics interface {
	RecordPrintItem(status string)
	JobStarted()
	JobFinished(status string)
}

// task tracks the background run of one job. done is closed when the run has
// written its final state.
type task struct {
	done chan struct{}
}

// Service orchestrates print jobs: validation, quota, and the background submission of
// each label to the printer in order.
type Service struct {
	jobs          printing.PrintJobRepository
	labels        label.PreparedLabelRepository
	files         LabelFiles
	printers      printing.PrinterDirectory
	submitter     printing.Submitter
	purger        printing.QueuePurger
	quota         printing.QuotaGate
	metrics       Metrics
	submitTimeout time.Duration
	recentLimit   int
	logger        *zap.Logger

	mu    sync.Mutex
	tasks map[uuid.UUID]*task
}

// Option configures a Service
type Option func(*Service)

// WithQueuePurger purges a printer's queue before its job is deleted
func WithQueuePurger(p printing.QueuePurger) Option {
	return func(s *Service) {
		s.purger = p
	}
}

// WithQuotaGate sets the quota gate. Without one every job is allowed.
func WithQuotaGate(q printing.QuotaGate) Option {
	return func(s *Service) {
		s.quota = q
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSubmitTimeout bounds a single label submission
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.submitTimeout = d
	}
}

// WithRecentLimit sets the default size of job listings
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
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

// NewService creates a print job service
func NewService(
	jobs printing.PrintJobRepository,
	labels label.PreparedLabelRepository,
	files LabelFiles,
	printers printing.PrinterDirectory,
	submitter printing.Submitter,
	opts ...Option,
) *Service {
	s := &Service{
		jobs:        jobs,
		labels:      labels,
		files:       files,
		printers:    printers,
		submitter:   submitter,
		recentLimit: defaultRecentJobs,
		logger:      zap.NewNop(),
		tasks:       make(map[uuid.UUID]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("printing")
	return s
}

// =============================================================================
// Job lifecycle
// =============================================================================

// Create validates the printer and labels and persists a pending job with its items.
// Nothing is persisted when validation fails.
func (s *Service) Create(ctx context.Context, labelIDs []uuid.UUID, printer string) (*JobResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "create", telemetry.AttrLabelCount, len(labelIDs))
	defer span.End()

	job, err := s.newJob(ctx, labelIDs, printer)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create print job: %w", err)
	}

	s.logger.Info("Print job created",
		zap.String("jobId", job.ID.String()),
		zap.String("printer", job.PrinterName),
		zap.Int("labels", job.TotalCount))
	return ToJobResponse(job), nil
}

// Start moves a pending job to printing and hands it to a background task.
// It returns as soon as the task is launched.
func (s *Service) Start(ctx context.Context, jobID uuid.UUID) (*JobResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "start", telemetry.AttrJobID, jobID.String())
	defer span.End()

	t, ok := s.claim(jobID)
	if !ok {
		err := shared.NewDomainError(shared.CodeInvalidState, "Print job is already running")
		telemetry.RecordError(span, err)
		return nil, err
	}
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		s.release(jobID, t)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.startClaimed(ctx, job, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToJobResponse(job), nil
}

// StartJob validates, charges the quota, persists and starts a job in one call.
// A quota denial aborts before anything is persisted.
func (s *Service) StartJob(ctx context.Context, labelIDs []uuid.UUID, printer string) (*JobResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "start_job", telemetry.AttrLabelCount, len(labelIDs))
	defer span.End()

	job, err := s.newJob(ctx, labelIDs, printer)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.chargeQuota(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create print job: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.AttrJobID, job.ID.String(), telemetry.AttrPrinter, job.PrinterName)

	t, ok := s.claim(job.ID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Print job is already running")
	}
	if err := s.launch(ctx, job, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToJobResponse(job), nil
}

// Retry resets a finished job and every item, optionally retargets it, and starts it again.
// The quota is never charged twice for the same job.
func (s *Service) Retry(ctx context.Context, jobID uuid.UUID, printer string) (*JobResponse, error) {
	t, ok := s.claim(jobID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Cannot retry a job that is printing")
	}
	job, err := s.resetForRetry(ctx, jobID, printer)
	if err != nil {
		s.release(jobID, t)
		return nil, err
	}

	s.logger.Info("Print job reset for retry",
		zap.String("jobId", job.ID.String()),
		zap.String("printer", job.PrinterName))
	if err := s.startClaimed(ctx, job, t); err != nil {
		return nil, err
	}
	return ToJobResponse(job), nil
}

func (s *Service) resetForRetry(ctx context.Context, jobID uuid.UUID, printer string) (*printing.PrintJob, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsPrinting() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Cannot retry a job that is printing")
	}
	if err := job.ResetForRetry(); err != nil {
		return nil, err
	}
	if printer != "" && printer != job.PrinterName {
		if err := job.ChangePrinter(printer); err != nil {
			return nil, err
		}
	}
	if err := s.jobs.SaveWithItems(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to reset print job: %w", err)
	}
	return job, nil
}

// Delete removes a job that is not printing. Residual queued submissions for the job's
// printer are purged first; a purge failure is only logged.
func (s *Service) Delete(ctx context.Context, jobID uuid.UUID) error {
	t, ok := s.claim(jobID)
	if !ok {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot delete a job that is printing")
	}
	defer s.release(jobID, t)

	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.CanDelete() {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot delete a job that is printing")
	}

	if s.purger != nil {
		if err := s.purger.PurgeQueue(ctx, job.PrinterName); err != nil {
			s.logger.Warn("Failed to purge printer queue",
				zap.String("jobId", job.ID.String()),
				zap.String("printer", job.PrinterName),
				zap.Error(err))
		}
	}

	if err := s.jobs.Delete(ctx, jobID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Print job not found")
		}
		return fmt.Errorf("failed to delete print job: %w", err)
	}
	s.logger.Info("Print job deleted", zap.String("jobId", jobID.String()))
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Status returns the current state of a job, or nil when it does not exist
func (s *Service) Status(ctx context.Context, jobID uuid.UUID) (*JobResponse, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return ToJobResponse(job), nil
}

// List returns the most recent jobs, newest first
func (s *Service) List(ctx context.Context, limit int) ([]JobResponse, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	jobs, err := s.jobs.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	return ToJobResponses(jobs), nil
}

// ListPrinters returns the printers known to the print subsystem
func (s *Service) ListPrinters(ctx context.Context) ([]PrinterResponse, error) {
	printers, err := s.printers.ListPrinters(ctx)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodePrinterUnavailable, "failed to enumerate printers", err)
	}
	return ToPrinterResponses(printers), nil
}

// Wait blocks until the background task of a job has finished, or ctx ends.
// It returns immediately when no task is running for the job.
func (s *Service) Wait(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	t := s.tasks[jobID]
	s.mu.Unlock()
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits for every running task, or until ctx ends
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	running := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		running = append(running, t)
	}
	s.mu.Unlock()

	for _, t := range running {
		select {
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// RecoverInterrupted fails jobs left in printing by a previous process.
// Their remaining items are reported by the failed status and can be retried.
func (s *Service) RecoverInterrupted(ctx context.Context) (int, error) {
	jobs, err := s.jobs.FindByStatus(ctx, printing.JobStatusPrinting)
	if err != nil {
		return 0, fmt.Errorf("failed to find interrupted print jobs: %w", err)
	}

	recovered := 0
	for i := range jobs {
		t, ok := s.claim(jobs[i].ID)
		if !ok {
			continue
		}
		failed, err := s.failInterrupted(ctx, jobs[i].ID)
		s.release(jobs[i].ID, t)
		if err != nil {
			return recovered, err
		}
		if failed {
			recovered++
		}
	}
	return recovered, nil
}

// failInterrupted reloads a claimed job and fails it when it is still printing
func (s *Service) failInterrupted(ctx context.Context, jobID uuid.UUID) (bool, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if !job.IsPrinting() {
		return false, nil
	}
	if err := job.Fail("interrupted before completion"); err != nil {
		return false, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return false, fmt.Errorf("failed to save interrupted print job: %w", err)
	}
	s.logger.Warn("Interrupted print job marked failed",
		zap.String("jobId", job.ID.String()),
		zap.Int("printed", job.PrintedCount),
		zap.Int("total", job.TotalCount))
	return true, nil
}

// =============================================================================
// Validation
// =============================================================================

func (s *Service) newJob(ctx context.Context, labelIDs []uuid.UUID, printer string) (*printing.PrintJob, error) {
	if len(labelIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "At least one label is required")
	}
	name, err := s.resolvePrinter(ctx, printer)
	if err != nil {
		return nil, err
	}
	if err := s.validateLabels(ctx, labelIDs); err != nil {
		return nil, err
	}
	return printing.NewPrintJob(name, labelIDs)
}

// resolvePrinter returns requested, or the system default when empty, and checks that the
// printer is currently enumerable
func (s *Service) resolvePrinter(ctx context.Context, requested string) (string, error) {
	printers, err := s.printers.ListPrinters(ctx)
	if err != nil {
		return "", shared.WrapDomainError(shared.CodePrinterUnavailable, "failed to enumerate printers", err)
	}

	name := requested
	if name == "" {
		name, err = s.printers.DefaultPrinter(ctx)
		if err != nil || name == "" {
			return "", shared.WrapDomainError(shared.CodePrinterUnavailable, "no printer selected and no default printer", err)
		}
	}
	if !printing.ContainsPrinter(printers, name) {
		return "", shared.NewDomainError(shared.CodePrinterUnavailable, fmt.Sprintf("printer %q is not available", name))
	}
	return name, nil
}

// validateLabels checks that every label exists and its document is on disk
func (s *Service) validateLabels(ctx context.Context, labelIDs []uuid.UUID) error {
	labels, err := s.labels.FindByIDs(ctx, labelIDs)
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	byID := make(map[uuid.UUID]*label.PreparedLabel, len(labels))
	for i := range labels {
		byID[labels[i].ID] = &labels[i]
	}

	for _, id := range labelIDs {
		l, ok := byID[id]
		if !ok {
			return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("label %s not found", id))
		}
		if !s.files.Exists(l.OutputPath) {
			return shared.NewDomainError(shared.CodeLabelFileMissing, fmt.Sprintf("file of label %s is missing", id))
		}
	}
	return nil
}

func (s *Service) chargeQuota(ctx context.Context, job *printing.PrintJob) error {
	if s.quota == nil {
		job.MarkQuotaCharged()
		return nil
	}
	decision, err := s.quota.Validate(ctx, job.TotalCount)
	if err != nil {
		return fmt.Errorf("failed to validate print quota: %w", err)
	}
	if !decision.Allowed {
		reason := decision.Reason
		if reason == "" {
			reason = "print quota exceeded"
		}
		s.logger.Info("Print quota denied",
			zap.Int("labels", job.TotalCount),
			zap.Int64("remaining", decision.Remaining),
			zap.Int64("limit", decision.Limit))
		return shared.NewDomainError(shared.CodeQuotaDenied, reason)
	}
	job.MarkQuotaCharged()
	return nil
}

func (s *Service) findJob(ctx context.Context, jobID uuid.UUID) (*printing.PrintJob, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Print job not found")
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return job, nil
}

// =============================================================================
// Background execution
// =============================================================================

// claim reserves the job for one caller until release. Jobs are reloaded and checked only
// after they are claimed, so a pending job is started and charged at most once.
// A successful start hands the claim to the background task.
func (s *Service) claim(jobID uuid.UUID) (*task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[jobID]; ok {
		return nil, false
	}
	t := &task{done: make(chan struct{})}
	s.tasks[jobID] = t
	return t, true
}

// startClaimed checks that a claimed job is still pending and its printer available,
// charges the quota once, and launches the job. The claim is released on failure.
func (s *Service) startClaimed(ctx context.Context, job *printing.PrintJob, t *task) error {
	if job.Status != printing.JobStatusPending {
		s.release(job.ID, t)
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot start a job in status: "+job.Status.String())
	}
	if _, err := s.resolvePrinter(ctx, job.PrinterName); err != nil {
		s.release(job.ID, t)
		return err
	}
	if !job.QuotaCharged {
		if err := s.chargeQuota(ctx, job); err != nil {
			s.release(job.ID, t)
			return err
		}
	}
	return s.launch(ctx, job, t)
}

// launch transitions a claimed job to printing, persists it and hands the claim to its task
func (s *Service) launch(ctx context.Context, job *printing.PrintJob, t *task) error {
	if err := job.StartPrinting(); err != nil {
		s.release(job.ID, t)
		return err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.release(job.ID, t)
		return fmt.Errorf("failed to start print job: %w", err)
	}

	// The task owns its copy of the job from here on; readers go through the repository.
	runJob := *job
	runJob.Items = append([]printing.PrintJobItem(nil), job.Items...)
	runJob.Errors = append([]string(nil), job.Errors...)

	s.logger.Info("Print job started",
		zap.String("jobId", job.ID.String()),
		zap.String("printer", job.PrinterName),
		zap.Int("labels", job.TotalCount))
	go s.run(context.WithoutCancel(ctx), &runJob, t)
	return nil
}

func (s *Service) release(jobID uuid.UUID, t *task) {
	s.mu.Lock()
	if s.tasks[jobID] == t {
		delete(s.tasks, jobID)
	}
	s.mu.Unlock()
	close(t.done)
}

// run submits every pending item in order. Failures are recorded per item and never stop
// the job. The final state is written before the task is released.
func (s *Service) run(ctx context.Context, job *printing.PrintJob, t *task) {
	defer s.release(job.ID, t)

	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "run",
		telemetry.AttrJobID, job.ID.String(),
		telemetry.AttrPrinter, job.PrinterName,
		telemetry.AttrLabelCount, job.TotalCount)
	defer span.End()

	logger := s.logger.With(zap.String("jobId", job.ID.String()), zap.String("printer", job.PrinterName))
	if s.metrics != nil {
		s.metrics.JobStarted()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Print job panicked", zap.Any("panic", r), zap.Stack("stack"))
			if job.IsPrinting() {
				_ = job.Fail(fmt.Sprintf("internal error: %v", r))
			}
			if err := s.jobs.SaveWithItems(ctx, job); err != nil {
				logger.Error("Failed to save print job after panic", zap.Error(err))
			}
		}
		if s.metrics != nil {
			s.metrics.JobFinished(job.Status.String())
		}
		if job.Status == printing.JobStatusFailed {
			telemetry.RecordError(span, fmt.Errorf("%d of %d labels failed", job.TotalCount-job.PrintedCount, job.TotalCount))
		}
	}()

	paths := s.labelPaths(ctx, job, logger)

	for i := range job.Items {
		item := &job.Items[i]
		if item.Status != printing.ItemStatusPending {
			continue
		}

		var updated *printing.PrintJobItem
		err := s.printItem(ctx, job.PrinterName, paths[item.LabelID])
		if err == nil {
			updated, err = job.MarkItemPrinted(item.ID)
			s.recordItem(printing.ItemStatusPrinted)
		} else {
			logger.Warn("Label submission failed",
				zap.String("labelId", item.LabelID.String()),
				zap.Int("position", item.Position),
				zap.Error(err))
			updated, err = job.MarkItemFailed(item.ID, err.Error())
			s.recordItem(printing.ItemStatusFailed)
		}
		if err != nil {
			logger.Error("Failed to record item outcome", zap.String("itemId", item.ID.String()), zap.Error(err))
			continue
		}

		if err := s.jobs.SaveItem(ctx, updated); err != nil {
			logger.Error("Failed to save print item", zap.String("itemId", updated.ID.String()), zap.Error(err))
		}
		if err := s.jobs.Save(ctx, job); err != nil {
			logger.Error("Failed to save print progress", zap.Error(err))
		}
	}

	if err := job.Finish(); err != nil {
		logger.Error("Failed to finish print job", zap.Error(err))
	}
	if err := s.jobs.SaveWithItems(ctx, job); err != nil {
		logger.Error("Failed to save finished print job", zap.Error(err))
	}

	logger.Info("Print job finished",
		zap.String("status", job.Status.String()),
		zap.Int("printed", job.PrintedCount),
		zap.Int("total", job.TotalCount))
}

// labelPaths resolves the document of every label of the job. Labels that cannot be
// resolved are left out and fail at submission.
func (s *Service) labelPaths(ctx context.Context, job *printing.PrintJob, logger *zap.Logger) map[uuid.UUID]string {
	paths := make(map[uuid.UUID]string, len(job.Items))
	labels, err := s.labels.FindByIDs(ctx, job.LabelIDs())
	if err != nil {
		logger.Error("Failed to load labels for printing", zap.Error(err))
		return paths
	}
	for _, l := range labels {
		path, err := s.files.Resolve(l.OutputPath)
		if err != nil {
			logger.Warn("Failed to resolve label file", zap.String("labelId", l.ID.String()), zap.Error(err))
			continue
		}
		paths[l.ID] = path
	}
	return paths
}

func (s *Service) printItem(ctx context.Context, printer, path string) error {
	if path == "" {
		return shared.NewDomainError(shared.CodeLabelFileMissing, "label file is missing")
	}
	if s.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}
	return s.submitter.Submit(ctx, printer, path)
}

func (s *Service) recordItem(status printing.ItemStatus) {
	if s.metrics != nil {
		s.metrics.RecordPrintItem(status.String())
	}
}
