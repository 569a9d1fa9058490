package rendering

import (
	"context"
	"fmt"
	"image"

	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

// FailureObserver is told about every backend that failed
type FailureObserver func(backend string, err error)

// Chain tries rasterizers in priority order
type Chain struct {
	backends []Rasterizer
	logger   *zap.Logger
	observer FailureObserver
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithFailureObserver registers a callback for failed backend attempts
func WithFailureObserver(observer FailureObserver) ChainOption {
	return func(c *Chain) {
		c.observer = observer
	}
}

// NewChain creates a chain over backends, highest priority first
func NewChain(logger *zap.Logger, backends []Rasterizer, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{
		backends: backends,
		logger:   logger.Named("rendering"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backends returns the backend names in priority order
func (c *Chain) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// RasterizeFirstPage implements Rasterizer.
// A backend that is missing or fails at runtime is skipped; when every backend
// fails the error has code ErrCodeRenderingUnavailable.
func (c *Chain) RasterizeFirstPage(ctx context.Context, doc Document, dpi int) (image.Image, error) {
	opts := []fallback.Option{
		fallback.WithLogger(c.logger),
		fallback.WithOperation("rasterize_first_page"),
	}
	if c.observer != nil {
		opts = append(opts, fallback.WithObserver(fallback.Observer(c.observer)))
	}

	img, backend, err := fallback.Run(ctx, c.backends,
		func(r Rasterizer) string { return r.Name() },
		fallback.ContinueOnAnyError,
		func(ctx context.Context, r Rasterizer) (image.Image, error) {
			return r.RasterizeFirstPage(ctx, doc, dpi)
		},
		opts...,
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewRenderError(ErrCodeRenderTimeout, "rasterization was cancelled", err)
		}
		return nil, NewRenderError(ErrCodeRenderingUnavailable,
			fmt.Sprintf("no rendering backend could rasterize %s", doc.Path), err)
	}

	c.logger.Debug("Document rasterized",
		zap.String("backend", backend),
		zap.String("path", doc.Path),
		zap.Int("dpi", dpi),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return img, nil
}

// Name implements Rasterizer
func (c *Chain) Name() string {
	return "chain"
}

var _ Rasterizer = (*Chain)(nil)
