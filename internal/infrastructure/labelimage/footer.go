package labelimage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/labelbridge/backend/internal/domain/label"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultFooterSeparator  = " | "
	DefaultFooterDateLayout = "02/01/2006"

	footerMaxFontPx = 64.0
	footerMinFontPx = 22.0
	footerFontStep  = 2.0
	footerPaddingPx = 24
	ellipsis        = "…"
)

// FooterStyle controls how footer text is built and drawn
type FooterStyle struct {
	Separator  string
	DateLayout string
	Background color.Color
	Foreground color.Color
}

// DefaultFooterStyle returns white text on a black band
func DefaultFooterStyle() FooterStyle {
	return FooterStyle{
		Separator:  DefaultFooterSeparator,
		DateLayout: DefaultFooterDateLayout,
		Background: color.Black,
		Foreground: color.White,
	}
}

// FooterText joins the selected sale fields in the order product number, title, date.
// Empty fields are skipped.
func FooterText(sale label.Sale, cfg label.FooterConfig, style FooterStyle) string {
	separator := style.Separator
	if separator == "" {
		separator = DefaultFooterSeparator
	}
	layout := style.DateLayout
	if layout == "" {
		layout = DefaultFooterDateLayout
	}

	parts := make([]string, 0, 3)
	if cfg.IncludeProductNumber {
		parts = appendField(parts, sale.ProductNumber)
	}
	if cfg.IncludeTitle {
		parts = appendField(parts, sale.Title)
	}
	if cfg.IncludeDate && !sale.SoldAt.IsZero() {
		parts = appendField(parts, sale.SoldAt.Format(layout))
	}
	return strings.Join(parts, separator)
}

func appendField(parts []string, value string) []string {
	value = strings.Join(strings.Fields(norm.NFC.String(value)), " ")
	if value == "" {
		return parts
	}
	return append(parts, value)
}

// Compositor draws the footer band below the label content
type Compositor struct {
	style FooterStyle
	font  *opentype.Font
}

// NewCompositor parses the embedded Go Bold face
func NewCompositor(style FooterStyle) (*Compositor, error) {
	if style.Background == nil {
		style.Background = color.Black
	}
	if style.Foreground == nil {
		style.Foreground = color.White
	}
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footer font: %w", err)
	}
	return &Compositor{style: style, font: f}, nil
}

// Style returns the compositor's style
func (c *Compositor) Style() FooterStyle {
	return c.style
}

// Compose returns a full-size label: content on top, a solid band with centered text at the bottom.
// Content of the wrong size is fitted into the content area first.
func (c *Compositor) Compose(content image.Image, text string) (*image.NRGBA, error) {
	target := label.Target()
	area := label.ContentArea(true)

	if !HasAreaSize(content, area) {
		fitted, err := FitToArea(content, area)
		if err != nil {
			return nil, err
		}
		content = fitted
	}

	canvas := imaging.New(target.WidthPx, target.HeightPx, color.White)
	canvas = imaging.Paste(canvas, content, image.Point{})

	band := image.Rect(0, area.HeightPx, target.WidthPx, target.HeightPx)
	draw.Draw(canvas, band, image.NewUniform(c.style.Background), image.Point{}, draw.Src)

	if text == "" {
		return canvas, nil
	}

	face, fitted, err := c.fitText(text, band.Dx()-2*footerPaddingPx)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	metrics := face.Metrics()
	textWidth := font.MeasureString(face, fitted).Ceil()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := band.Min.X + (band.Dx()-textWidth)/2
	baseline := band.Min.Y + (band.Dy()-textHeight)/2 + metrics.Ascent.Ceil()

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c.style.Foreground),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(fitted)
	return canvas, nil
}

// fitText shrinks the font until text fits maxWidth, then truncates with an ellipsis
func (c *Compositor) fitText(text string, maxWidth int) (font.Face, string, error) {
	var face font.Face
	for size := footerMaxFontPx; size >= footerMinFontPx; size -= footerFontStep {
		if face != nil {
			face.Close()
		}
		var err error
		face, err = c.newFace(size)
		if err != nil {
			return nil, "", err
		}
		if font.MeasureString(face, text).Ceil() <= maxWidth {
			return face, text, nil
		}
	}

	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + ellipsis
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return face, candidate, nil
		}
	}
	return face, "", nil
}

func (c *Compositor) newFace(size float64) (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
