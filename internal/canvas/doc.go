// Package canvas draws memes. It loads a source image, fits it onto a
// fixed-size black canvas, overlays top and bottom captions, and renders the
// result to a terminal using half-block characters.
package canvas
