package canvas

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFontSize is the caption size in points at 72 DPI.
const DefaultFontSize = 32

const outlineWidth = 2

var (
	captionFill    = image.NewUniform(color.White)
	captionOutline = image.NewUniform(color.Black)

	upper = cases.Upper(language.English)
)

// CaptionFace returns the bold caption face at the given size.
func CaptionFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create caption face: %w", err)
	}
	return face, nil
}

// Caption normalizes caption text the way it is drawn: trimmed and upper-cased.
func Caption(s string) string {
	return upper.String(strings.TrimSpace(s))
}

// drawCaption draws text horizontally centered with its baseline at y.
func drawCaption(dst *image.RGBA, face font.Face, text string, y int) {
	text = Caption(text)
	if text == "" {
		return
	}

	d := &font.Drawer{Dst: dst, Face: face}
	width := d.MeasureString(text).Round()
	x := (dst.Bounds().Dx() - width) / 2

	d.Src = captionOutline
	for dx := -outlineWidth; dx <= outlineWidth; dx++ {
		for dy := -outlineWidth; dy <= outlineWidth; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(text)
		}
	}

	d.Src = captionFill
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}
