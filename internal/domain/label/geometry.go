package label

import (
	"image"
	"math"
)

// Physical target of every prepared label
const (
	TargetWidthMM  = 100.0
	TargetHeightMM = 150.0
	TargetDPI      = 300
	FooterBandMM   = 10.0

	mmPerInch = 25.4
)

// MMToPixels converts millimeters to pixels at the given resolution, rounded to the nearest pixel
func MMToPixels(mm float64, dpi int) int {
	return int(math.Round(mm / mmPerInch * float64(dpi)))
}

// PixelsToMM converts pixels to millimeters at the given resolution
func PixelsToMM(px int, dpi int) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(px) * mmPerInch / float64(dpi)
}

// FitScale returns the largest scale that fits src inside dst while preserving aspect ratio.
// A degenerate source yields 0.
func FitScale(srcW, srcH, dstW, dstH float64) float64 {
	if srcW <= 0 || srcH <= 0 {
		return 0
	}
	return math.Min(dstW/srcW, dstH/srcH)
}

// CenterOffset returns the top-left offset that centers a scaled rectangle inside dst
func CenterOffset(scaledW, scaledH, dstW, dstH float64) (float64, float64) {
	return (dstW - scaledW) / 2, (dstH - scaledH) / 2
}

// Area is a physical region together with its raster size at a fixed resolution
type Area struct {
	WidthMM  float64
	HeightMM float64
	WidthPx  int
	HeightPx int
	DPI      int
}

// Bounds returns the pixel rectangle of the area anchored at the origin
func (a Area) Bounds() image.Rectangle {
	return image.Rect(0, 0, a.WidthPx, a.HeightPx)
}

// Target returns the full physical label: 100x150mm at 300 DPI (1181x1772 px)
func Target() Area {
	return Area{
		WidthMM:  TargetWidthMM,
		HeightMM: TargetHeightMM,
		WidthPx:  MMToPixels(TargetWidthMM, TargetDPI),
		HeightPx: MMToPixels(TargetHeightMM, TargetDPI),
		DPI:      TargetDPI,
	}
}

// FooterBandPixels returns the height of the footer band at the target resolution
func FooterBandPixels() int {
	return MMToPixels(FooterBandMM, TargetDPI)
}

// ContentArea returns the region available to transform profiles.
// With a footer the band is subtracted from the target height so content and band tile exactly.
func ContentArea(withFooter bool) Area {
	area := Target()
	if withFooter {
		area.HeightMM -= FooterBandMM
		area.HeightPx -= FooterBandPixels()
	}
	return area
}

// FitRect places a srcW x srcH raster inside a dstW x dstH canvas: scaled to fit and centered.
// The result always lies within the canvas and is at least one pixel in each dimension.
func FitRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	scale := FitScale(float64(srcW), float64(srcH), float64(dstW), float64(dstH))
	if scale == 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}

	w := clamp(int(math.Round(float64(srcW)*scale)), 1, dstW)
	h := clamp(int(math.Round(float64(srcH)*scale)), 1, dstH)

	x, y := CenterOffset(float64(w), float64(h), float64(dstW), float64(dstH))
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	return image.Rect(x0, y0, x0+w, y0+h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
