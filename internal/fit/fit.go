// Package fit computes where an image lands inside a fixed-size container
// when it is scaled to fit while keeping its aspect ratio.
package fit

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDegenerateGeometry is returned when a box cannot take part in a fit:
// non-positive image dimensions, negative container dimensions, or values
// that are not finite.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Box is a width/height pair. It describes both the container (the drawing
// surface) and the natural size of a source image.
type Box struct {
	Width  float64
	Height float64
}

// BoxOf returns the Box for an image.Rectangle.
func BoxOf(r image.Rectangle) Box {
	return Box{Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// AspectRatio returns width divided by height.
func (b Box) AspectRatio() float64 {
	return b.Width / b.Height
}

func (b Box) finite() bool {
	return !math.IsNaN(b.Width) && !math.IsNaN(b.Height) &&
		!math.IsInf(b.Width, 0) && !math.IsInf(b.Height, 0)
}

// Placement is the rectangle, in container coordinates, at which the image
// should be drawn. No rounding is applied.
type Placement struct {
	Width  float64
	Height float64
	StartX float64
	StartY float64
}

// Fit scales image into container preserving its aspect ratio.
//
// Portrait images (aspect ratio < 1) take the full container height and are
// centered horizontally. Landscape and square images take the full container
// width and are centered vertically.
func Fit(container, img Box) (Placement, error) {
	if !container.finite() || !img.finite() {
		return Placement{}, fmt.Errorf("%w: non-finite dimensions (container %vx%v, image %vx%v)",
			ErrDegenerateGeometry, container.Width, container.Height, img.Width, img.Height)
	}
	if container.Width < 0 || container.Height < 0 {
		return Placement{}, fmt.Errorf("%w: container %vx%v has a negative side",
			ErrDegenerateGeometry, container.Width, container.Height)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return Placement{}, fmt.Errorf("%w: image %vx%v must have positive sides",
			ErrDegenerateGeometry, img.Width, img.Height)
	}

	var p Placement
	aspectRatio := img.AspectRatio()
	if aspectRatio < 1 {
		p.Height = container.Height
		p.Width = container.Height * aspectRatio
		p.StartY = 0
		p.StartX = (container.Width - p.Width) / 2
	} else {
		p.Width = container.Width
		p.Height = container.Width / aspectRatio
		p.StartX = 0
		p.StartY = (container.Height - p.Height) / 2
	}
	return p, nil
}

// Rect rounds the placement to whole pixels for raster drawing.
func (p Placement) Rect() image.Rectangle {
	x0 := int(math.Round(p.StartX))
	y0 := int(math.Round(p.StartY))
	x1 := int(math.Round(p.StartX + p.Width))
	y1 := int(math.Round(p.StartY + p.Height))
	return image.Rect(x0, y0, x1, y1)
}

// Within reports whether the placement lies inside container, allowing for
// tol of floating point slack on each edge.
func (p Placement) Within(container Box, tol float64) bool {
	return p.StartX >= -tol && p.StartY >= -tol &&
		p.StartX+p.Width <= container.Width+tol &&
		p.StartY+p.Height <= container.Height+tol
}

// Scale returns the largest of the two axis scale factors between the
// placement and the container. A fitted image always touches the container
// on one axis, so for non-empty containers this is 1.
func (p Placement) Scale(container Box) float64 {
	return math.Max(p.Width/container.Width, p.Height/container.Height)
}
