package spool

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

// CUPSSpooler drives CUPS on Linux and macOS through its command-line clients
type CUPSSpooler struct {
	runner CommandRunner
	logger *zap.Logger
	// FitToPage asks CUPS to scale the label onto the printer's media
	FitToPage bool
	// QueryTimeout bounds lpstat and cancel; zero means no limit
	QueryTimeout time.Duration
}

// NewCUPSSpooler creates a CUPS spooler
func NewCUPSSpooler(runner CommandRunner, logger *zap.Logger) *CUPSSpooler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CUPSSpooler{runner: runner, logger: logger.Named("cups"), FitToPage: true}
}

// Name implements printing.Submitter
func (s *CUPSSpooler) Name() string {
	return "cups"
}

// ListPrinters implements printing.PrinterDirectory
func (s *CUPSSpooler) ListPrinters(ctx context.Context) ([]printing.PrinterInfo, error) {
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()

	out, err := s.runner.Run(ctx, "lpstat", "-p")
	if err != nil {
		if noDestinations(out, err) {
			return []printing.PrinterInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}

	def, err := s.DefaultPrinter(ctx)
	if err != nil {
		s.logger.Debug("No default printer", zap.Error(err))
	}

	printers := parseLpstatPrinters(out)
	for i := range printers {
		printers[i].IsDefault = printers[i].Name == def
	}
	return printers, nil
}

// DefaultPrinter implements printing.PrinterDirectory
func (s *CUPSSpooler) DefaultPrinter(ctx context.Context) (string, error) {
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()

	out, err := s.runner.Run(ctx, "lpstat", "-d")
	if err != nil {
		if noDestinations(out, err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read default printer: %w", err)
	}
	return parseLpstatDefault(out), nil
}

// Submit implements printing.Submitter
func (s *CUPSSpooler) Submit(ctx context.Context, printerName, path string) error {
	if _, err := s.runner.LookPath("lp"); err != nil {
		return fallback.Unavailable(s.Name(), "lp is not installed", err)
	}

	args := []string{"-d", printerName}
	if s.FitToPage {
		args = append(args, "-o", "fit-to-page")
	}
	args = append(args, path)

	out, err := s.runner.Run(ctx, "lp", args...)
	if err != nil {
		return fmt.Errorf("lp failed: %w", err)
	}
	s.logger.Debug("Document submitted",
		zap.String("printer", printerName),
		zap.String("path", path),
		zap.String("request", strings.TrimSpace(string(out))))
	return nil
}

// PurgeQueue implements printing.QueuePurger
func (s *CUPSSpooler) PurgeQueue(ctx context.Context, printerName string) error {
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()

	if _, err := s.runner.Run(ctx, "cancel", "-a", printerName); err != nil {
		return fmt.Errorf("failed to purge queue of %s: %w", printerName, err)
	}
	return nil
}

// parseLpstatPrinters parses `lpstat -p` lines such as
// "printer Zebra is idle.  enabled since ..." or "printer Office disabled since ..."
func parseLpstatPrinters(out []byte) []printing.PrinterInfo {
	printers := []printing.PrinterInfo{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "printer" {
			continue
		}
		rest := strings.Join(fields[2:], " ")
		printers = append(printers, printing.PrinterInfo{
			Name:   fields[1],
			Status: cupsStatus(rest),
		})
	}
	return printers
}

func cupsStatus(description string) printing.PrinterStatus {
	switch {
	case strings.Contains(description, "disabled"):
		return printing.PrinterStatusDisabled
	case strings.Contains(description, "now printing"):
		return printing.PrinterStatusPrinting
	case strings.Contains(description, "is idle"):
		return printing.PrinterStatusIdle
	}
	return printing.PrinterStatusUnknown
}

// parseLpstatDefault parses "system default destination: Zebra"
func parseLpstatDefault(out []byte) string {
	line := strings.TrimSpace(string(out))
	if _, name, ok := strings.Cut(line, "system default destination:"); ok {
		return strings.TrimSpace(name)
	}
	return ""
}

// noDestinations reports the lpstat failure that only means no printer is configured
func noDestinations(out []byte, err error) bool {
	var cmdErr *CommandError
	text := string(out)
	if errors.As(err, &cmdErr) {
		text += " " + cmdErr.Stderr
	}
	text = strings.ToLower(text)
	return strings.Contains(text, "no destinations added") || strings.Contains(text, "no system default destination")
}

var (
	_ printing.PrinterDirectory = (*CUPSSpooler)(nil)
	_ printing.Submitter        = (*CUPSSpooler)(nil)
	_ printing.QueuePurger      = (*CUPSSpooler)(nil)
)
