package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

const (
	defaultPdftoppmBinary  = "pdftoppm"
	defaultPdftoppmTimeout = 30 * time.Second
)

// PdftoppmConfig contains configuration for the pdftoppm rasterizer
type PdftoppmConfig struct {
	// BinaryPath is the path to the pdftoppm binary. If empty, PATH is searched.
	BinaryPath string
	// Timeout bounds one rasterization
	Timeout time.Duration
	// TempDir receives the intermediate PNG
	TempDir string
	// Logger for debug output
	Logger *zap.Logger
}

// PdftoppmRasterizer rasterizes PDF documents with poppler's pdftoppm
type PdftoppmRasterizer struct {
	config    *PdftoppmConfig
	logger    *zap.Logger
	binary    string
	lookupErr error
}

// NewPdftoppmRasterizer creates a rasterizer. A missing binary is not an error here:
// the rasterizer reports itself unavailable when used.
func NewPdftoppmRasterizer(config *PdftoppmConfig) *PdftoppmRasterizer {
	if config == nil {
		config = &PdftoppmConfig{}
	}
	if config.BinaryPath == "" {
		config.BinaryPath = defaultPdftoppmBinary
	}
	if config.Timeout == 0 {
		config.Timeout = defaultPdftoppmTimeout
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	binary, err := resolveBinaryPath(config.BinaryPath)
	return &PdftoppmRasterizer{
		config:    config,
		logger:    logger,
		binary:    binary,
		lookupErr: err,
	}
}

// Name implements Rasterizer
func (r *PdftoppmRasterizer) Name() string {
	return "pdftoppm"
}

// IsAvailable reports whether the executable was found
func (r *PdftoppmRasterizer) IsAvailable() bool {
	return r.lookupErr == nil
}

// RasterizeFirstPage implements Rasterizer
func (r *PdftoppmRasterizer) RasterizeFirstPage(ctx context.Context, doc Document, dpi int) (image.Image, error) {
	if r.lookupErr != nil {
		return nil, fallback.Unavailable(r.Name(), "executable not found: "+r.config.BinaryPath, r.lookupErr)
	}
	if doc.Kind != label.ArtifactKindPDF {
		return nil, NewRenderError(ErrCodeUnsupportedKind, "pdftoppm only rasterizes PDF, got "+doc.Kind.String(), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	outDir, err := os.MkdirTemp(r.config.TempDir, "pdftoppm-*")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create temp directory", err)
	}
	defer os.RemoveAll(outDir)

	prefix := filepath.Join(outDir, "page")
	args := buildPdftoppmArgs(doc.Path, prefix, dpi)

	r.logger.Debug("executing pdftoppm",
		zap.String("binary", r.binary),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("pdftoppm timed out after %v", r.config.Timeout), err)
		}
		return nil, NewRenderError(ErrCodeRenderFailed, "pdftoppm execution failed: "+stderr.String(), err)
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "pdftoppm produced no output", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to decode pdftoppm output", err)
	}
	return img, nil
}

// buildPdftoppmArgs renders page one only, as a single PNG named <prefix>.png
func buildPdftoppmArgs(input, prefix string, dpi int) []string {
	return []string{
		"-f", "1",
		"-l", "1",
		"-r", strconv.Itoa(dpi),
		"-png",
		"-singlefile",
		input,
		prefix,
	}
}

var _ Rasterizer = (*PdftoppmRasterizer)(nil)
