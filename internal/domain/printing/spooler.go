package printing

import "context"

// PrinterInfo describes a printer known to the operating system
type PrinterInfo struct {
	Name      string
	IsDefault bool
	Status    PrinterStatus
}

// PrinterDirectory enumerates printers
type PrinterDirectory interface {
	ListPrinters(ctx context.Context) ([]PrinterInfo, error)
	// DefaultPrinter returns the system default printer, or "" when none is configured
	DefaultPrinter(ctx context.Context) (string, error)
}

// Submitter hands one document to a printer
type Submitter interface {
	Name() string
	Submit(ctx context.Context, printerName, path string) error
}

// QueuePurger removes residual queued submissions for a printer
type QueuePurger interface {
	PurgeQueue(ctx context.Context, printerName string) error
}

// ContainsPrinter reports whether name is among printers
func ContainsPrinter(printers []PrinterInfo, name string) bool {
	for _, p := range printers {
		if p.Name == name {
			return true
		}
	}
	return false
}
