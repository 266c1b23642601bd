package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/dgnsrekt/memegen/internal/fit"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

const (
	// DefaultWidth is the canvas width in pixels.
	DefaultWidth = 400
	// DefaultHeight is the canvas height in pixels.
	DefaultHeight = 400

	// TopBaseline is the baseline of the top caption, from the top edge.
	TopBaseline = 40
	// BottomBaseline is the baseline of the bottom caption on a default
	// canvas. On other sizes it keeps the same distance from the bottom edge.
	BottomBaseline = 370

	// MinSize is the smallest canvas side that fits both captions.
	MinSize = 100
)

// ErrNonSquare is returned for canvases whose width and height differ. Fit
// only keeps images inside a square container.
var ErrNonSquare = errors.New("canvas must be square")

// ValidateSize checks canvas dimensions.
func ValidateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas size %dx%d: %w", width, height, fit.ErrDegenerateGeometry)
	}
	if width != height {
		return fmt.Errorf("canvas size %dx%d: %w", width, height, ErrNonSquare)
	}
	if width < MinSize {
		return fmt.Errorf("canvas size %dx%d is smaller than %dx%d", width, height, MinSize, MinSize)
	}
	return nil
}

var (
	// fastScaler trades quality for speed.
	fastScaler xdraw.Scaler = xdraw.ApproxBiLinear
	// bestScaler is the default.
	bestScaler xdraw.Scaler = xdraw.CatmullRom

	background = image.NewUniform(color.Black)
)

// Canvas is a fixed-size drawing surface for a single meme.
type Canvas struct {
	dst    *image.RGBA
	box    fit.Box
	scaler xdraw.Scaler
	face   font.Face

	src       image.Image
	placement fit.Placement

	top, bottom string
	captioned   bool
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithSize sets the canvas dimensions.
func WithSize(width, height int) Option {
	return func(c *Canvas) {
		c.box = fit.Box{Width: float64(width), Height: float64(height)}
	}
}

// WithFastScaling selects the faster, lower quality scaler.
func WithFastScaling(fast bool) Option {
	return func(c *Canvas) {
		if fast {
			c.scaler = fastScaler
		}
	}
}

// WithFace sets the caption font face.
func WithFace(face font.Face) Option {
	return func(c *Canvas) {
		c.face = face
	}
}

// New returns a black canvas.
func New(opts ...Option) (*Canvas, error) {
	c := &Canvas{
		box:    fit.Box{Width: DefaultWidth, Height: DefaultHeight},
		scaler: bestScaler,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := ValidateSize(int(c.box.Width), int(c.box.Height)); err != nil {
		return nil, err
	}
	if c.face == nil {
		face, err := CaptionFace(DefaultFontSize)
		if err != nil {
			return nil, err
		}
		c.face = face
	}
	c.dst = image.NewRGBA(image.Rect(0, 0, int(c.box.Width), int(c.box.Height)))
	c.clear()
	return c, nil
}

// Box returns the canvas dimensions.
func (c *Canvas) Box() fit.Box {
	return c.box
}

// Image returns the current raster. It is owned by the canvas and changes on
// the next draw.
func (c *Canvas) Image() *image.RGBA {
	return c.dst
}

// Placement returns where the current source image was drawn.
func (c *Canvas) Placement() fit.Placement {
	return c.placement
}

// HasImage reports whether a source image has been drawn.
func (c *Canvas) HasImage() bool {
	return c.src != nil
}

// Captioned reports whether captions are currently drawn.
func (c *Canvas) Captioned() bool {
	return c.captioned
}

// SetImage replaces the source image and redraws it fitted onto a black
// background. Any drawn captions are wiped.
func (c *Canvas) SetImage(img image.Image) (fit.Placement, error) {
	p, err := fit.Fit(c.box, fit.BoxOf(img.Bounds()))
	if err != nil {
		return fit.Placement{}, fmt.Errorf("fit image: %w", err)
	}
	c.src = img
	c.placement = p
	c.top, c.bottom, c.captioned = "", "", false
	c.redraw()
	return p, nil
}

// DrawCaptions draws the top and bottom captions over the image.
func (c *Canvas) DrawCaptions(top, bottom string) {
	c.top, c.bottom, c.captioned = top, bottom, true
	c.redraw()
}

// ClearCaptions redraws the image without captions.
func (c *Canvas) ClearCaptions() {
	c.top, c.bottom, c.captioned = "", "", false
	c.redraw()
}

func (c *Canvas) bottomBaseline() int {
	return int(c.box.Height) - (DefaultHeight - BottomBaseline)
}

func (c *Canvas) clear() {
	draw.Draw(c.dst, c.dst.Bounds(), background, image.Point{}, draw.Src)
}

func (c *Canvas) redraw() {
	c.clear()
	if c.src != nil {
		c.scaler.Scale(c.dst, c.placement.Rect(), c.src, c.src.Bounds(), xdraw.Over, nil)
	}
	if c.captioned {
		drawCaption(c.dst, c.face, c.top, TopBaseline)
		drawCaption(c.dst, c.face, c.bottom, c.bottomBaseline())
	}
}
