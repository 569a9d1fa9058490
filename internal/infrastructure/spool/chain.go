package spool

import (
	"context"
	"fmt"
	"time"

	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

// SubmitterChain tries submitters in order but only moves on when one is unavailable.
// A submitter that is installed and fails ends the attempt with its own error.
type SubmitterChain struct {
	submitters []printing.Submitter
	logger     *zap.Logger
	observer   fallback.Observer
}

// NewSubmitterChain creates a chain, preferred submitter first
func NewSubmitterChain(logger *zap.Logger, submitters ...printing.Submitter) *SubmitterChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmitterChain{submitters: submitters, logger: logger.Named("spool")}
}

// WithObserver registers a callback for failed submission attempts
func (c *SubmitterChain) WithObserver(observer fallback.Observer) *SubmitterChain {
	c.observer = observer
	return c
}

// Name implements printing.Submitter
func (c *SubmitterChain) Name() string {
	return "chain"
}

// Backends returns the submitter names in priority order
func (c *SubmitterChain) Backends() []string {
	names := make([]string, len(c.submitters))
	for i, s := range c.submitters {
		names[i] = s.Name()
	}
	return names
}

// Submit implements printing.Submitter
func (c *SubmitterChain) Submit(ctx context.Context, printerName, path string) error {
	opts := []fallback.Option{
		fallback.WithLogger(c.logger),
		fallback.WithOperation("submit"),
	}
	if c.observer != nil {
		opts = append(opts, fallback.WithObserver(c.observer))
	}

	_, backend, err := fallback.Run(ctx, c.submitters,
		func(s printing.Submitter) string { return s.Name() },
		fallback.ContinueOnUnavailable,
		func(ctx context.Context, s printing.Submitter) (struct{}, error) {
			return struct{}{}, s.Submit(ctx, printerName, path)
		},
		opts...,
	)
	if err != nil {
		return err
	}
	c.logger.Debug("Label submitted", zap.String("backend", backend), zap.String("printer", printerName))
	return nil
}

var _ printing.Submitter = (*SubmitterChain)(nil)

// Spooler is a platform print subsystem
type Spooler interface {
	printing.PrinterDirectory
	printing.Submitter
	printing.QueuePurger
}

// NewSystemSpooler picks the native spooler for goos. queryTimeout bounds printer
// enumeration and queue purges but never a submission.
func NewSystemSpooler(goos string, runner CommandRunner, queryTimeout time.Duration, logger *zap.Logger) (Spooler, error) {
	switch goos {
	case "linux", "darwin", "freebsd", "netbsd", "openbsd":
		s := NewCUPSSpooler(runner, logger)
		s.QueryTimeout = queryTimeout
		return s, nil
	case "windows":
		s := NewWindowsSpooler(runner, logger)
		s.QueryTimeout = queryTimeout
		return s, nil
	}
	return nil, fmt.Errorf("printing is not supported on %s", goos)
}
