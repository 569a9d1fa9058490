// Package scheduler runs the periodic housekeeping of the label service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cleaner removes stored labels older than a given age
type Cleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// RetentionConfig holds configuration for the daily label cleanup
type RetentionConfig struct {
	// MaxAge is the age after which label files are removed
	MaxAge time.Duration

	// Hour and Minute of the daily run (24h, local time)
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultRetentionConfig returns a config that runs at 3am for the given age
func DefaultRetentionConfig(maxAge time.Duration) RetentionConfig {
	return RetentionConfig{
		MaxAge:        maxAge,
		Hour:          3,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

func (c RetentionConfig) validate() error {
	if c.MaxAge <= 0 {
		return fmt.Errorf("%w: max age must be positive", ErrInvalidConfig)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: run time %02d:%02d", ErrInvalidConfig, c.Hour, c.Minute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// RetentionSweeper deletes expired label files once a day
type RetentionSweeper struct {
	config  RetentionConfig
	cleaner Cleaner
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewRetentionSweeper creates a sweeper
func NewRetentionSweeper(config RetentionConfig, cleaner Cleaner, logger *zap.Logger) (*RetentionSweeper, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionSweeper{
		config:  config,
		cleaner: cleaner,
		logger:  logger.Named("retention"),
		now:     time.Now,
	}, nil
}

// Start starts the check loop
func (s *RetentionSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Retention sweeper started",
		zap.Duration("maxAge", s.config.MaxAge),
		zap.String("runAt", fmt.Sprintf("%02d:%02d", s.config.Hour, s.config.Minute)),
	)
	return nil
}

// Stop stops the loop and waits for a running sweep to finish
func (s *RetentionSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Retention sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RetentionSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

// checkAndRun sweeps when the configured time of day is reached, at most once per date.
// It reports whether a sweep ran.
func (s *RetentionSweeper) checkAndRun(ctx context.Context) bool {
	now := s.now()
	currentDate := now.Format("2006-01-02")

	s.mu.Lock()
	if s.lastRunDate == currentDate {
		s.mu.Unlock()
		return false
	}
	if now.Hour() != s.config.Hour || now.Minute() != s.config.Minute {
		s.mu.Unlock()
		return false
	}
	s.lastRunDate = currentDate
	s.mu.Unlock()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Retention sweep failed", zap.Error(err))
	}
	return true
}

// RunOnce deletes expired labels now
func (s *RetentionSweeper) RunOnce(ctx context.Context) (int, error) {
	deleted, err := s.cleaner.CleanupOlderThan(ctx, s.config.MaxAge)
	if err != nil {
		return deleted, fmt.Errorf("failed to clean up labels: %w", err)
	}
	s.logger.Info("Retention sweep completed", zap.Int("deleted", deleted))
	return deleted, nil
}
