package rendering

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/infrastructure/fallback"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	cssPixelsPerInch     = 96.0
)

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// Timeout bounds one rasterization
	Timeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional).
	// If empty, chromedp launches a local browser.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRasterizer rasterizes SVG documents with headless Chrome
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	lookupErr   error
	once        sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// chromeBinaries are the executable names chromedp's exec allocator looks for
var chromeBinaries = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

func findChrome() (string, error) {
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no Chrome or Chromium executable in PATH")
}

// NewChromedpRasterizer creates a rasterizer. The browser is started lazily on first use.
func NewChromedpRasterizer(config *ChromedpConfig) *ChromedpRasterizer {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.Timeout == 0 {
		config.Timeout = defaultChromeTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		logger: logger,
	}
	if config.RemoteURL == "" {
		_, r.lookupErr = findChrome()
	}
	return r
}

// Name implements Rasterizer
func (r *ChromedpRasterizer) Name() string {
	return "chromedp"
}

func (r *ChromedpRasterizer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// RasterizeFirstPage implements Rasterizer
func (r *ChromedpRasterizer) RasterizeFirstPage(ctx context.Context, doc Document, dpi int) (image.Image, error) {
	if doc.Kind != label.ArtifactKindSVG {
		return nil, NewRenderError(ErrCodeUnsupportedKind, "chromedp only rasterizes SVG, got "+doc.Kind.String(), nil)
	}

	if r.lookupErr != nil {
		return nil, fallback.Unavailable(r.Name(), "browser not installed", r.lookupErr)
	}

	svg, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to read SVG", err)
	}

	r.once.Do(r.initAllocator)

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// Tie the browser tab to the caller's deadline
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	html := buildSVGPage(svg)
	var size []float64
	var shot []byte

	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("#label", chromedp.ByID),
		chromedp.Evaluate(`(() => { const i = document.getElementById("label"); return [i.naturalWidth, i.naturalHeight]; })()`, &size),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
				return errors.New("SVG has no intrinsic size")
			}
			return chromedp.EmulateViewport(
				int64(math.Ceil(size[0])), int64(math.Ceil(size[1])),
				chromedp.EmulateScale(deviceScale(dpi)),
			).Do(ctx)
		}),
		chromedp.FullScreenshot(&shot, 100),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("SVG rasterization timed out after %v", r.config.Timeout), err)
		}
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}

	img, _, err := image.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to decode screenshot", err)
	}
	return img, nil
}

// Close releases the browser allocator
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// buildSVGPage embeds an SVG as an image on a blank white page
func buildSVGPage(svg []byte) string {
	encoded := base64.StdEncoding.EncodeToString(svg)
	return `<!DOCTYPE html><html><head><style>html,body{margin:0;padding:0;background:#fff}img{display:block}</style></head>` +
		`<body><img id="label" src="data:image/svg+xml;base64,` + encoded + `"></body></html>`
}

// deviceScale converts a target resolution to a CSS device scale factor
func deviceScale(dpi int) float64 {
	if dpi <= 0 {
		return 1
	}
	return float64(dpi) / cssPixelsPerInch
}

var _ Rasterizer = (*ChromedpRasterizer)(nil)
