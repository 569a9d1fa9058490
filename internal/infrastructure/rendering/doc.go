// Package rendering rasterizes the first page of vector label documents.
//
// Backends:
//   - PdftoppmRasterizer: poppler's pdftoppm executable, preferred for PDF fidelity
//   - ChromedpRasterizer: headless Chrome, used for SVG documents
//   - FitzRasterizer: in-process MuPDF, always available
//
// Chain tries them in order and falls through on any failure. Only page one of a
// document is ever rasterized.
package rendering
