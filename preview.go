package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/canvas"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
)

type previewOptions struct {
	path         string
	top, bottom  string
	width        int
	canvasWidth  int
	canvasHeight int
	fast         bool
	profile      termenv.Profile
}

// previewProfile picks the color profile for printed previews. A preview
// without color shows nothing useful, so true color is used unless colors
// are disabled explicitly.
func previewProfile() termenv.Profile {
	if termenv.EnvNoColor() {
		return termenv.Ascii
	}
	if p := termenv.EnvColorProfile(); p != termenv.Ascii {
		return p
	}
	return termenv.TrueColor
}

// executePreview fits the image onto the canvas, draws the captions and
// writes the half-block rendering to w.
func executePreview(w io.Writer, opts previewOptions) error {
	if opts.width <= 0 {
		return errors.New("preview width must be positive")
	}
	c, err := canvas.New(
		canvas.WithSize(opts.canvasWidth, opts.canvasHeight),
		canvas.WithFastScaling(opts.fast),
	)
	if err != nil {
		return fmt.Errorf("unable to create canvas: %w", err)
	}

	src, err := canvas.Load(opts.path)
	if err != nil {
		return err
	}
	p, err := c.SetImage(src.Image)
	if err != nil {
		return fmt.Errorf("unable to draw %s: %w", src.Name, err)
	}
	if opts.top != "" || opts.bottom != "" {
		c.DrawCaptions(opts.top, opts.bottom)
	}
	log.Debug("preview",
		"image", src.Name,
		"format", src.Format,
		"size", humanize.Bytes(uint64(max(src.Size, 0))), //nolint:gosec
		"placement", fmt.Sprintf("%.0fx%.0f+%.0f+%.0f", p.Width, p.Height, p.StartX, p.StartY),
	)

	if _, err := fmt.Fprintln(w, canvas.RenderHalfBlocks(c.Image(), opts.width, opts.profile)); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}
