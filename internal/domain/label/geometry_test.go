package label

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMMToPixels(t *testing.T) {
	tests := []struct {
		name     string
		mm       float64
		dpi      int
		expected int
	}{
		{"label width", 100, 300, 1181},
		{"label height", 150, 300, 1772},
		{"footer band", 10, 300, 118},
		{"one inch", 25.4, 300, 300},
		{"zero", 0, 300, 0},
		{"thumbnail", 100, 72, 283},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MMToPixels(tt.mm, tt.dpi))
		})
	}
}

func TestPixelsToMM(t *testing.T) {
	assert.InDelta(t, 100.0, PixelsToMM(1181, 300), 0.1)
	assert.InDelta(t, 150.0, PixelsToMM(1772, 300), 0.1)
	assert.InDelta(t, 25.4, PixelsToMM(300, 300), 1e-9)
	assert.Equal(t, 0.0, PixelsToMM(300, 0))
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH float64
		expected               float64
	}{
		{"same size", 100, 100, 100, 100, 1},
		{"width bound", 200, 100, 100, 100, 0.5},
		{"height bound", 100, 400, 100, 100, 0.25},
		{"upscale", 50, 75, 100, 150, 2},
		{"degenerate width", 0, 100, 100, 100, 0},
		{"degenerate height", 100, -1, 100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, FitScale(tt.srcW, tt.srcH, tt.dstW, tt.dstH), 1e-9)
		})
	}
}

func TestCenterOffset(t *testing.T) {
	x, y := CenterOffset(80, 150, 100, 150)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 0.0, y)

	x, y = CenterOffset(100, 100, 100, 150)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 25.0, y)
}

func TestTargetAndContentArea(t *testing.T) {
	target := Target()
	assert.Equal(t, 1181, target.WidthPx)
	assert.Equal(t, 1772, target.HeightPx)
	assert.Equal(t, image.Rect(0, 0, 1181, 1772), target.Bounds())
	assert.Equal(t, 118, FooterBandPixels())

	noFooter := ContentArea(false)
	assert.Equal(t, target, noFooter)

	withFooter := ContentArea(true)
	assert.Equal(t, 100.0, withFooter.WidthMM)
	assert.Equal(t, 140.0, withFooter.HeightMM)
	assert.Equal(t, 1181, withFooter.WidthPx)
	assert.Equal(t, 1654, withFooter.HeightPx)
	assert.Equal(t, target.HeightPx, withFooter.HeightPx+FooterBandPixels())
}

func TestFitRect(t *testing.T) {
	t.Run("landscape A4 into content area is letterboxed vertically", func(t *testing.T) {
		r := FitRect(3508, 2480, 1181, 1654)
		assert.Equal(t, 1181, r.Dx())
		assert.Equal(t, 835, r.Dy())
		assert.Equal(t, 0, r.Min.X)
		assert.Equal(t, (1654-835)/2, r.Min.Y)
	})

	t.Run("tall strip is pillarboxed", func(t *testing.T) {
		r := FitRect(100, 1000, 1181, 1772)
		assert.Equal(t, 1772, r.Dy())
		assert.Equal(t, 177, r.Dx())
		assert.True(t, r.In(image.Rect(0, 0, 1181, 1772)))
	})

	t.Run("result never leaves the canvas", func(t *testing.T) {
		sizes := [][2]int{{1, 1}, {1181, 1772}, {7, 3000}, {5000, 3}, {1240, 1754}}
		canvas := image.Rect(0, 0, 1181, 1654)
		for _, s := range sizes {
			r := FitRect(s[0], s[1], canvas.Dx(), canvas.Dy())
			assert.True(t, r.In(canvas), "size %v produced %v", s, r)
			assert.GreaterOrEqual(t, r.Dx(), 1)
			assert.GreaterOrEqual(t, r.Dy(), 1)
		}
	})

	t.Run("degenerate source", func(t *testing.T) {
		assert.True(t, FitRect(0, 10, 100, 100).Empty())
	})
}
