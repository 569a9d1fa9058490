package profiles

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
	"github.com/labelbridge/backend/internal/infrastructure/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// fakeRasterizer returns a fixed image or error for any vector document
type fakeRasterizer struct {
	img   image.Image
	err   error
	calls int
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) RasterizeFirstPage(context.Context, rendering.Document, int) (image.Image, error) {
	f.calls++
	return f.img, f.err
}

// fakeText returns fixed page text
type fakeText struct {
	text string
	err  error
}

func (f fakeText) ExtractText(context.Context, rendering.Document) (string, error) {
	return f.text, f.err
}

// stubProfile is a configurable profile
type stubProfile struct {
	id     label.ProfileID
	detect func() (bool, error)
	result *label.NormalizedArtifact
}

func (s *stubProfile) ID() label.ProfileID { return s.id }
func (s *stubProfile) Name() string        { return "stub " + string(s.id) }

func (s *stubProfile) Detect(context.Context, label.SourceArtifact, label.ProcessingContext) (bool, error) {
	return s.detect()
}

func (s *stubProfile) Process(context.Context, label.SourceArtifact, label.ProcessingContext, label.Area) (*label.NormalizedArtifact, error) {
	return s.result, nil
}

// pngArtifact writes a w x h image whose top-left quarter is red and remainder blue
func pngArtifact(t *testing.T, w, h int) label.SourceArtifact {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(blue), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, w/2, h/2), image.NewUniform(red), image.Point{}, draw.Src)
	path := filepath.Join(t.TempDir(), "source.png")
	require.NoError(t, labelimage.WritePNG(path, img))
	return label.SourceArtifact{Path: path, Kind: label.ArtifactKindPNG}
}

func pdfArtifact(t *testing.T, text string) label.SourceArtifact {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(10, 10)
	pdf.Cell(120, 12, text)
	path := filepath.Join(t.TempDir(), "source.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return label.SourceArtifact{Path: path, Kind: label.ArtifactKindPDF}
}

func near(t *testing.T, expected color.NRGBA, img image.Image, x, y int) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	assert.True(t, diff(got.R, expected.R) < 8 && diff(got.G, expected.G) < 8 && diff(got.B, expected.B) < 8,
		"pixel (%d,%d) = %v, want %v", x, y, got, expected)
}

func newTestRegistry(t *testing.T, source *Source) *Registry {
	t.Helper()
	registry, err := NewRegistry(NewUniversalProfile(source), []Profile{
		NewQuadrantProfile(DefaultQuadrantCarriers, nil, true, source),
		NewHalfRotatedProfile(DefaultHalfRotatedCarriers, []string{"Vinted Go"}, true, source),
	}, WithCarrierDiscovery(source))
	require.NoError(t, err)
	return registry
}

// =============================================================================
// Normalization
// =============================================================================

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"La Poste", "la poste"},
		{"  LA   POSTE ", "la poste"},
		{"Relais-Colis", "relais colis"},
		{"Mondial Relay®", "mondial relay"},
		{"Chronopost Éxpress", "chronopost express"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeName(tt.in), tt.in)
	}
}

func TestFindIn(t *testing.T) {
	carriers := []string{"colissimo", "la poste"}
	assert.Equal(t, "colissimo", findIn("Expéditeur\nCOLISSIMO Expert", carriers))
	assert.Equal(t, "la poste", findIn("Envoi LA  POSTE", carriers))
	assert.Empty(t, findIn("Colissimorama", carriers), "whole words only")
	assert.Empty(t, findIn("", carriers))
}

// =============================================================================
// Registry
// =============================================================================

func TestRegistry_DetectProfile(t *testing.T) {
	source := NewSource(SourceConfig{Rasterizer: &fakeRasterizer{}, Text: fakeText{text: "Mondial Relay point relais"}})
	registry := newTestRegistry(t, source)
	png := label.SourceArtifact{Path: "unused.png", Kind: label.ArtifactKindPNG}
	pdf := label.SourceArtifact{Path: "unused.pdf", Kind: label.ArtifactKindPDF}

	tests := []struct {
		name     string
		artifact label.SourceArtifact
		pctx     label.ProcessingContext
		expected label.ProfileID
	}{
		{"quadrant carrier", png, label.ProcessingContext{Carrier: "InPost"}, label.ProfileCarrierQuadrant},
		{"half rotated carrier with accents", png, label.ProcessingContext{Carrier: "  Chronopost "}, label.ProfileCarrierHalfRotated},
		{"unknown carrier falls back", pdf, label.ProcessingContext{Carrier: "DHL"}, label.ProfileUniversal},
		{"marketplace", png, label.ProcessingContext{Marketplace: "vinted go"}, label.ProfileCarrierHalfRotated},
		{"carrier found in pdf text", pdf, label.ProcessingContext{}, label.ProfileCarrierQuadrant},
		{"raster without hints", png, label.ProcessingContext{}, label.ProfileUniversal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, registry.DetectProfile(context.Background(), tt.artifact, tt.pctx))
		})
	}
}

func TestRegistry_DetectorFailuresDoNotMatch(t *testing.T) {
	panicking := &stubProfile{id: "panics", detect: func() (bool, error) { panic("boom") }}
	failing := &stubProfile{id: "fails", detect: func() (bool, error) { return true, errors.New("classifier down") }}
	matching := &stubProfile{id: "matches", detect: func() (bool, error) { return true, nil }}

	registry, err := NewRegistry(NewUniversalProfile(NewSource(SourceConfig{})), []Profile{panicking, failing})
	require.NoError(t, err)
	id := registry.DetectProfile(context.Background(), label.SourceArtifact{}, label.ProcessingContext{})
	assert.Equal(t, label.ProfileUniversal, id)

	registry, err = NewRegistry(NewUniversalProfile(NewSource(SourceConfig{})), []Profile{panicking, matching, failing})
	require.NoError(t, err)
	assert.Equal(t, label.ProfileID("matches"), registry.DetectProfile(context.Background(), label.SourceArtifact{}, label.ProcessingContext{}))
}

func TestNewRegistry_Validation(t *testing.T) {
	source := NewSource(SourceConfig{})
	_, err := NewRegistry(nil, nil)
	assert.Error(t, err)

	_, err = NewRegistry(NewUniversalProfile(source), []Profile{NewUniversalProfile(source)})
	assert.ErrorContains(t, err, "registered twice")
}

func TestRegistry_ProfilesAndGet(t *testing.T) {
	registry := newTestRegistry(t, NewSource(SourceConfig{}))

	infos := registry.Profiles()
	require.Len(t, infos, 3)
	assert.Equal(t, label.ProfileCarrierQuadrant, infos[0].ID)
	assert.Equal(t, DefaultQuadrantCarriers, infos[0].Carriers)
	assert.Equal(t, label.ProfileUniversal, infos[2].ID)
	assert.True(t, infos[2].Fallback)

	p, ok := registry.Get(label.ProfileCarrierHalfRotated)
	require.True(t, ok)
	assert.Equal(t, label.ProfileCarrierHalfRotated, p.ID())
	_, ok = registry.Get("missing")
	assert.False(t, ok)

	assert.Len(t, registry.KnownCarriers(), 6)
}

func TestRegistry_ProcessEnforcesTargetSize(t *testing.T) {
	offSize := &stubProfile{
		id:     "off-size",
		detect: func() (bool, error) { return true, nil },
		result: &label.NormalizedArtifact{Image: image.NewGray(image.Rect(0, 0, 640, 480)), WidthMM: 210, HeightMM: 297},
	}
	registry, err := NewRegistry(NewUniversalProfile(NewSource(SourceConfig{})), []Profile{offSize})
	require.NoError(t, err)

	area := label.ContentArea(true)
	result, err := registry.Process(context.Background(), label.SourceArtifact{}, label.ProcessingContext{}, area)
	require.NoError(t, err)
	assert.True(t, result.HasTargetSize())
	assert.Equal(t, label.TargetDPI, result.DPI)
	assert.Equal(t, label.ProfileID("off-size"), result.ProfileID)
	assert.True(t, labelimage.HasAreaSize(result.Image, area))
}

func TestRegistry_ProcessRejectsEmptyResult(t *testing.T) {
	empty := &stubProfile{id: "empty", detect: func() (bool, error) { return true, nil }, result: &label.NormalizedArtifact{}}
	registry, err := NewRegistry(NewUniversalProfile(NewSource(SourceConfig{})), []Profile{empty})
	require.NoError(t, err)

	_, err = registry.Process(context.Background(), label.SourceArtifact{}, label.ProcessingContext{}, label.ContentArea(false))
	assert.ErrorIs(t, err, shared.ErrTransformFailed)
}

// =============================================================================
// Profiles
// =============================================================================

func TestUniversalProfile_AnySourceYieldsTargetSize(t *testing.T) {
	registry := newTestRegistry(t, NewSource(SourceConfig{}))
	sizes := [][2]int{{2480, 3508}, {3508, 2480}, {1181, 1772}, {40, 40}, {30, 900}}

	for _, size := range sizes {
		artifact := pngArtifact(t, size[0], size[1])
		for _, withFooter := range []bool{true, false} {
			area := label.ContentArea(withFooter)
			result, err := registry.Process(context.Background(), artifact, label.ProcessingContext{}, area)
			require.NoError(t, err)
			assert.Equal(t, label.ProfileUniversal, result.ProfileID)
			assert.True(t, result.HasTargetSize())
			assert.True(t, labelimage.HasAreaSize(result.Image, area), "size %v footer %v", size, withFooter)
		}
	}
}

func TestUniversalProfile_LetterboxesWithoutCropping(t *testing.T) {
	p := NewUniversalProfile(NewSource(SourceConfig{}))
	area := label.ContentArea(false)

	// A landscape page fills the full width and leaves white bands above and below
	result, err := p.Process(context.Background(), pngArtifact(t, 400, 200), label.ProcessingContext{}, area)
	require.NoError(t, err)
	near(t, white, result.Image, area.WidthPx/2, 5)
	near(t, red, result.Image, 5, area.HeightPx/2-100)
	near(t, blue, result.Image, area.WidthPx-5, area.HeightPx/2+100)
}

func TestQuadrantProfile_KeepsUpperLeftQuarter(t *testing.T) {
	source := NewSource(SourceConfig{})
	p := NewQuadrantProfile(DefaultQuadrantCarriers, nil, false, source)
	area := label.ContentArea(true)

	result, err := p.Process(context.Background(), pngArtifact(t, 400, 600), label.ProcessingContext{Carrier: "inpost"}, area)
	require.NoError(t, err)
	assert.True(t, labelimage.HasAreaSize(result.Image, area))
	near(t, red, result.Image, area.WidthPx/2, area.HeightPx/2)
	near(t, red, result.Image, area.WidthPx/4, area.HeightPx/4)
}

func TestHalfRotatedProfile_RotatesUpperHalf(t *testing.T) {
	source := NewSource(SourceConfig{})
	p := NewHalfRotatedProfile(DefaultHalfRotatedCarriers, nil, false, source)
	area := label.ContentArea(false)

	// Upper half is red on the left and blue on the right; after a counter-clockwise turn
	// the right side is on top.
	result, err := p.Process(context.Background(), pngArtifact(t, 600, 400), label.ProcessingContext{Carrier: "colissimo"}, area)
	require.NoError(t, err)
	assert.True(t, labelimage.HasAreaSize(result.Image, area))
	near(t, blue, result.Image, area.WidthPx/2, area.HeightPx/4)
	near(t, red, result.Image, area.WidthPx/2, area.HeightPx*3/4)
}

func TestCarrierProfile_Detect(t *testing.T) {
	source := NewSource(SourceConfig{Text: fakeText{text: "COLISSIMO"}})
	p := NewHalfRotatedProfile(DefaultHalfRotatedCarriers, []string{"vinted"}, true, source)
	pdf := label.SourceArtifact{Path: "x.pdf", Kind: label.ArtifactKindPDF}
	png := label.SourceArtifact{Path: "x.png", Kind: label.ArtifactKindPNG}
	ctx := context.Background()

	ok, err := p.Detect(ctx, png, label.ProcessingContext{Carrier: "La Poste"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Detect(ctx, pdf, label.ProcessingContext{Carrier: "DPD"})
	require.NoError(t, err)
	assert.False(t, ok, "a known other carrier is never overridden by the page text")

	ok, err = p.Detect(ctx, png, label.ProcessingContext{Marketplace: "Vinted"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Detect(ctx, pdf, label.ProcessingContext{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Detect(ctx, png, label.ProcessingContext{})
	require.NoError(t, err)
	assert.False(t, ok)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Detect(cancelled, pdf, label.ProcessingContext{})
	assert.Error(t, err)
}

// =============================================================================
// Vector sources
// =============================================================================

func TestSource_VectorRenderingUnavailable(t *testing.T) {
	unavailable := &fakeRasterizer{err: rendering.NewRenderError(rendering.ErrCodeRenderingUnavailable, "all backends failed", nil)}
	registry := newTestRegistry(t, NewSource(SourceConfig{Rasterizer: unavailable}))

	_, err := registry.Process(context.Background(), label.SourceArtifact{Path: "x.pdf", Kind: label.ArtifactKindPDF},
		label.ProcessingContext{Carrier: "colissimo"}, label.ContentArea(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRenderingUnavailable)
	assert.Equal(t, 1, unavailable.calls)
}

func TestSource_UnsupportedAndMalformed(t *testing.T) {
	source := NewSource(SourceConfig{})

	_, err := source.Load(context.Background(), label.SourceArtifact{Path: "x.bin", Kind: label.ArtifactKindUnknown})
	assert.ErrorIs(t, err, shared.ErrTransformFailed)

	_, err = source.Load(context.Background(), label.SourceArtifact{Path: "x.pdf", Kind: label.ArtifactKindPDF})
	assert.ErrorIs(t, err, shared.ErrRenderingUnavailable)

	_, err = source.Load(context.Background(), label.SourceArtifact{Path: filepath.Join(t.TempDir(), "missing.png"), Kind: label.ArtifactKindPNG})
	assert.ErrorIs(t, err, shared.ErrTransformFailed)
}

func TestRegistry_ProcessPDFDiscoversCarrier(t *testing.T) {
	fitz := rendering.NewFitzRasterizer()
	source := NewSource(SourceConfig{Rasterizer: fitz, Text: fitz})
	registry := newTestRegistry(t, source)
	artifact := pdfArtifact(t, "COLISSIMO Expert")
	area := label.ContentArea(true)

	pctx := label.ProcessingContext{RecordID: uuid.New()}
	result, err := registry.Process(context.Background(), artifact, pctx, area)
	require.NoError(t, err)
	assert.Equal(t, label.ProfileCarrierHalfRotated, result.ProfileID)
	assert.Equal(t, "colissimo", result.DetectedCarrier)
	assert.True(t, labelimage.HasAreaSize(result.Image, area))

	result, err = registry.Process(context.Background(), artifact, label.ProcessingContext{Carrier: "DHL"}, area)
	require.NoError(t, err)
	assert.Equal(t, label.ProfileUniversal, result.ProfileID)
	assert.Empty(t, result.DetectedCarrier, "a carrier already known is never rediscovered")
}
