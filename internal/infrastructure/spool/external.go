package spool

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

// DefaultExternalToolArgs prints silently with SumatraPDF
var DefaultExternalToolArgs = []string{"-print-to", "{printer}", "-silent", "{file}"}

// ExternalToolSubmitter submits through a dedicated printing program.
// A missing program is reported as unavailable so a chain can fall back.
type ExternalToolSubmitter struct {
	tool   string
	args   []string
	runner CommandRunner
	logger *zap.Logger
}

// NewExternalToolSubmitter creates a submitter for tool. In args, {printer} and {file}
// are replaced by the printer name and document path.
func NewExternalToolSubmitter(tool string, args []string, runner CommandRunner, logger *zap.Logger) *ExternalToolSubmitter {
	if len(args) == 0 {
		args = DefaultExternalToolArgs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalToolSubmitter{
		tool:   tool,
		args:   append([]string(nil), args...),
		runner: runner,
		logger: logger.Named("external"),
	}
}

// Name implements printing.Submitter
func (s *ExternalToolSubmitter) Name() string {
	// tool paths may use either separator whatever the host OS
	base := s.tool[strings.LastIndexAny(s.tool, `/\`)+1:]
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return "external"
	}
	return strings.ToLower(name)
}

// Submit implements printing.Submitter
func (s *ExternalToolSubmitter) Submit(ctx context.Context, printerName, path string) error {
	if s.tool == "" {
		return fallback.Unavailable(s.Name(), "no external tool configured", nil)
	}
	bin, err := s.runner.LookPath(s.tool)
	if err != nil {
		return fallback.Unavailable(s.Name(), s.tool+" is not installed", err)
	}

	if _, err := s.runner.Run(ctx, bin, s.buildArgs(printerName, path)...); err != nil {
		return fmt.Errorf("%s failed: %w", s.Name(), err)
	}
	s.logger.Debug("Document submitted",
		zap.String("tool", bin),
		zap.String("printer", printerName),
		zap.String("path", path))
	return nil
}

func (s *ExternalToolSubmitter) buildArgs(printerName, path string) []string {
	replacer := strings.NewReplacer("{printer}", printerName, "{file}", path)
	args := make([]string, len(s.args))
	for i, a := range s.args {
		args[i] = replacer.Replace(a)
	}
	return args
}

var _ printing.Submitter = (*ExternalToolSubmitter)(nil)
