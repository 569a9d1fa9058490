// Package labelimage holds the pixel-level steps of label normalization:
// decoding raster sources, crop/rotate/fit onto the label canvas, compositing
// the footer band and wrapping the result in a single-page PDF.
package labelimage
