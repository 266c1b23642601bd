package canvas

import (
	"image"
	"strings"

	"github.com/muesli/termenv"
	xdraw "golang.org/x/image/draw"
)

const upperHalfBlock = "▀"

// RenderHalfBlocks renders img as cols terminal columns. Each cell shows
// two vertically stacked pixels: the upper one as the foreground of '▀' and
// the lower one as the background.
func RenderHalfBlocks(img image.Image, cols int, profile termenv.Profile) string {
	b := img.Bounds()
	if cols <= 0 || b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}

	rows := (cols*b.Dy()/b.Dx() + 1) / 2
	if rows == 0 {
		rows = 1
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, xdraw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			fg := profile.FromColor(small.At(x, 2*y))
			bg := profile.FromColor(small.At(x, 2*y+1))
			sb.WriteString(profile.String(upperHalfBlock).Foreground(fg).Background(bg).String())
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
