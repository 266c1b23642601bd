package ui

import "github.com/dgnsrekt/memegen/internal/speech"

// Config contains TUI-specific configuration.
type Config struct {
	ShowAllFiles bool
	EnableMouse  bool
	HomeDir      string `env:"HOME"`
	GlamourStyle string `env:"GLAMOUR_STYLE" envDefault:"auto"`

	// Image file or directory to browse
	Path string

	// Canvas
	CanvasWidth  int
	CanvasHeight int
	FastScaling  bool
	// PreviewWidth is the preview width in columns; zero fits the terminal.
	PreviewWidth int

	// Initial captions
	TopText    string
	BottomText string

	// Speech
	Voice    string
	Language string
	Volume   speech.Volume

	// For debugging the UI
	AltScreen bool `env:"MEMEGEN_ALT_SCREEN" envDefault:"true"`
}
