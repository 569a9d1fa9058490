package rendering

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer rasterizes documents in-process with MuPDF.
// It has no external dependency and is the last backend of the chain.
type FitzRasterizer struct {
	// MuPDF contexts are not safe for concurrent use
	mu sync.Mutex
}

// NewFitzRasterizer creates an in-process rasterizer
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// Name implements Rasterizer
func (r *FitzRasterizer) Name() string {
	return "mupdf"
}

// RasterizeFirstPage implements Rasterizer
func (r *FitzRasterizer) RasterizeFirstPage(ctx context.Context, doc Document, dpi int) (image.Image, error) {
	if !doc.Kind.IsVector() {
		return nil, NewRenderError(ErrCodeUnsupportedKind, "mupdf only rasterizes vector documents, got "+doc.Kind.String(), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := fitz.New(doc.Path)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "mupdf failed to open document", err)
	}
	defer d.Close()

	if d.NumPage() == 0 {
		return nil, NewRenderError(ErrCodeEmptyDocument, "document has no pages", nil)
	}

	img, err := d.ImageDPI(0, float64(dpi))
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "mupdf failed to render page 1", err)
	}
	return img, nil
}

// ExtractText returns the text of page one of a vector document
func (r *FitzRasterizer) ExtractText(ctx context.Context, doc Document) (string, error) {
	if !doc.Kind.IsVector() {
		return "", NewRenderError(ErrCodeUnsupportedKind, "text extraction needs a vector document, got "+doc.Kind.String(), nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := fitz.New(doc.Path)
	if err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "mupdf failed to open document", err)
	}
	defer d.Close()

	if d.NumPage() == 0 {
		return "", nil
	}

	text, err := d.Text(0)
	if err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "mupdf failed to extract text", err)
	}
	return strings.TrimSpace(text), nil
}

// TextExtractor reads the text of page one of a vector document
type TextExtractor interface {
	ExtractText(ctx context.Context, doc Document) (string, error)
}

var (
	_ Rasterizer    = (*FitzRasterizer)(nil)
	_ TextExtractor = (*FitzRasterizer)(nil)
)
