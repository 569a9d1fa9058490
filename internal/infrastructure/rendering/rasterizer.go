package rendering

import (
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/labelbridge/backend/internal/domain/label"
)

// Document is a vector document to rasterize
type Document struct {
	Path string
	Kind label.ArtifactKind
}

// Rasterizer turns the first page of a document into a bitmap
type Rasterizer interface {
	// Name identifies the backend in logs and metrics
	Name() string
	// RasterizeFirstPage renders page one at the requested resolution
	RasterizeFirstPage(ctx context.Context, doc Document, dpi int) (image.Image, error)
}

// RenderError represents an error during rasterization
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout        = "RENDER_TIMEOUT"
	ErrCodeRenderFailed         = "RENDER_FAILED"
	ErrCodeUnsupportedKind      = "UNSUPPORTED_KIND"
	ErrCodeEmptyDocument        = "EMPTY_DOCUMENT"
	ErrCodeRenderingUnavailable = "RENDERING_UNAVAILABLE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}

	return exec.LookPath(path)
}
