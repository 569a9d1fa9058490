package labelimage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"
	"github.com/labelbridge/backend/internal/domain/label"
)

const labelImageName = "label"

// PDFWriter wraps a label raster in a single-page PDF of the target physical size
type PDFWriter struct {
	creator string
}

// NewPDFWriter creates a writer that stamps creator into the document metadata
func NewPDFWriter(creator string) *PDFWriter {
	if creator == "" {
		creator = "labelbridge"
	}
	return &PDFWriter{creator: creator}
}

// Write embeds img over the whole 100x150mm page. img is expected at 300 DPI.
func (w *PDFWriter) Write(img image.Image, title string) ([]byte, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, fmt.Errorf("failed to encode label raster: %w", err)
	}

	target := label.Target()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: target.WidthMM, Ht: target.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(w.creator, true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.AddPage()

	options := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(labelImageName, options, &raster)
	pdf.ImageOptions(labelImageName, 0, 0, target.WidthMM, target.HeightMM, false, options, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write label PDF: %w", err)
	}
	return out.Bytes(), nil
}
