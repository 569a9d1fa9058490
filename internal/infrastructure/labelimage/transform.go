package labelimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/labelbridge/backend/internal/domain/label"
)

// CropUpperLeftQuadrant keeps the top-left quarter of img
func CropUpperLeftQuadrant(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return nil, ErrEmptyImage
	}
	rect := image.Rect(b.Min.X, b.Min.Y, b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
	return imaging.Crop(img, rect), nil
}

// CropUpperHalf keeps the top half of img
func CropUpperHalf(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 2 {
		return nil, ErrEmptyImage
	}
	rect := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dy()/2)
	return imaging.Crop(img, rect), nil
}

// RotateCounterClockwise rotates img by 90 degrees counter-clockwise
func RotateCounterClockwise(img image.Image) *image.NRGBA {
	return imaging.Rotate90(img)
}

// FitToArea scales img to fit the area, preserving aspect ratio, and centers it on a
// white canvas of exactly the area's pixel size. Nothing is cropped.
func FitToArea(img image.Image, area label.Area) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	canvas := imaging.New(area.WidthPx, area.HeightPx, color.White)
	placement := label.FitRect(b.Dx(), b.Dy(), area.WidthPx, area.HeightPx)
	if placement.Empty() {
		return nil, ErrEmptyImage
	}

	var scaled image.Image = img
	if placement.Dx() != b.Dx() || placement.Dy() != b.Dy() {
		scaled = imaging.Resize(img, placement.Dx(), placement.Dy(), imaging.Lanczos)
	}
	return imaging.Overlay(canvas, scaled, placement.Min, 1.0), nil
}

// HasAreaSize reports whether img is exactly the area's pixel size
func HasAreaSize(img image.Image, area label.Area) bool {
	b := img.Bounds()
	return b.Dx() == area.WidthPx && b.Dy() == area.HeightPx
}
