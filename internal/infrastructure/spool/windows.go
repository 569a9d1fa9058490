package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

const powershell = "powershell"

// WindowsSpooler drives the Windows print spooler through PowerShell
type WindowsSpooler struct {
	runner CommandRunner
	logger *zap.Logger
	// QueryTimeout bounds printer enumeration and queue purges; zero means no limit
	QueryTimeout time.Duration
}

// NewWindowsSpooler creates a Windows spooler
func NewWindowsSpooler(runner CommandRunner, logger *zap.Logger) *WindowsSpooler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowsSpooler{runner: runner, logger: logger.Named("winspool")}
}

// Name implements printing.Submitter
func (s *WindowsSpooler) Name() string {
	return "winspool"
}

type windowsPrinter struct {
	Name    string `json:"Name"`
	Status  string `json:"Status"`
	Default bool   `json:"Default"`
}

// ListPrinters implements printing.PrinterDirectory
func (s *WindowsSpooler) ListPrinters(ctx context.Context) ([]printing.PrinterInfo, error) {
	script := "Get-CimInstance -ClassName Win32_Printer | " +
		"Select-Object Name,Default,@{n='Status';e={if ($_.WorkOffline) {'Offline'} else {(Get-Printer -Name $_.Name).PrinterStatus.ToString()}}} | " +
		"ConvertTo-Json -Compress"
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()
	out, err := s.run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}

	entries, err := decodeWindowsPrinters(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse printer list: %w", err)
	}

	printers := make([]printing.PrinterInfo, 0, len(entries))
	for _, e := range entries {
		printers = append(printers, printing.PrinterInfo{
			Name:      e.Name,
			IsDefault: e.Default,
			Status:    windowsStatus(e.Status),
		})
	}
	return printers, nil
}

// DefaultPrinter implements printing.PrinterDirectory
func (s *WindowsSpooler) DefaultPrinter(ctx context.Context) (string, error) {
	script := "Get-CimInstance -ClassName Win32_Printer -Filter 'Default=TRUE' | Select-Object -ExpandProperty Name"
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()
	out, err := s.run(ctx, script)
	if err != nil {
		return "", fmt.Errorf("failed to read default printer: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Submit implements printing.Submitter.
// The PrintTo verb hands the file to the registered PDF handler.
func (s *WindowsSpooler) Submit(ctx context.Context, printerName, path string) error {
	if _, err := s.runner.LookPath(powershell); err != nil {
		return fallback.Unavailable(s.Name(), "powershell is not installed", err)
	}
	script := fmt.Sprintf("Start-Process -FilePath %s -Verb PrintTo -ArgumentList %s -WindowStyle Hidden",
		psQuote(path), psQuote(`"`+printerName+`"`))
	if _, err := s.run(ctx, script); err != nil {
		return fmt.Errorf("PrintTo failed: %w", err)
	}
	s.logger.Debug("Document submitted", zap.String("printer", printerName), zap.String("path", path))
	return nil
}

// PurgeQueue implements printing.QueuePurger
func (s *WindowsSpooler) PurgeQueue(ctx context.Context, printerName string) error {
	script := fmt.Sprintf("Get-PrintJob -PrinterName %s | Remove-PrintJob", psQuote(printerName))
	ctx, cancel := queryContext(ctx, s.QueryTimeout)
	defer cancel()
	if _, err := s.run(ctx, script); err != nil {
		return fmt.Errorf("failed to purge queue of %s: %w", printerName, err)
	}
	return nil
}

func (s *WindowsSpooler) run(ctx context.Context, script string) ([]byte, error) {
	return s.runner.Run(ctx, powershell, "-NoProfile", "-NonInteractive", "-Command", script)
}

// decodeWindowsPrinters accepts the single object or array ConvertTo-Json produces
func decodeWindowsPrinters(out []byte) ([]windowsPrinter, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var single windowsPrinter
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, err
		}
		return []windowsPrinter{single}, nil
	}
	var list []windowsPrinter
	if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func windowsStatus(status string) printing.PrinterStatus {
	switch strings.ToLower(status) {
	case "normal", "idle":
		return printing.PrinterStatusIdle
	case "printing", "processing", "busy":
		return printing.PrinterStatusPrinting
	case "offline", "notavailable", "error":
		return printing.PrinterStatusOffline
	case "paused":
		return printing.PrinterStatusDisabled
	}
	return printing.PrinterStatusUnknown
}

// psQuote quotes a PowerShell string literal
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var (
	_ printing.PrinterDirectory = (*WindowsSpooler)(nil)
	_ printing.Submitter        = (*WindowsSpooler)(nil)
	_ printing.QueuePurger      = (*WindowsSpooler)(nil)
)
