package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/cache"
	"github.com/dgnsrekt/memegen/internal/canvas"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "meme.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecutePreview(t *testing.T) {
	tests := []struct {
		name   string
		top    string
		bottom string
		width  int
		lines  int
	}{
		{"plain", "", "", 40, 20},
		{"captions", "top", "bottom", 40, 20},
		{"narrow", "", "", 10, 5},
	}
	path := writePNG(t, 300, 150)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := executePreview(&buf, previewOptions{
				path:         path,
				top:          tc.top,
				bottom:       tc.bottom,
				width:        tc.width,
				canvasWidth:  canvas.DefaultWidth,
				canvasHeight: canvas.DefaultHeight,
				fast:         true,
				profile:      termenv.Ascii,
			})
			if err != nil {
				t.Fatalf("executePreview() error = %v", err)
			}
			lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			if len(lines) != tc.lines {
				t.Fatalf("got %d lines, want %d", len(lines), tc.lines)
			}
			want := strings.Repeat("▀", tc.width)
			for i, l := range lines {
				if l != want {
					t.Fatalf("line %d = %q, want %q", i, l, want)
				}
			}
		})
	}
}

func TestExecutePreviewErrors(t *testing.T) {
	text := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(text, []byte("not an image at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := func(path string) previewOptions {
		return previewOptions{
			path:         path,
			width:        40,
			canvasWidth:  canvas.DefaultWidth,
			canvasHeight: canvas.DefaultHeight,
			profile:      termenv.Ascii,
		}
	}

	if err := executePreview(&bytes.Buffer{}, opts(t.TempDir())); err == nil {
		t.Error("expected an error for a directory")
	}
	if err := executePreview(&bytes.Buffer{}, opts(text)); !errors.Is(err, canvas.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}

	bad := opts(writePNG(t, 10, 10))
	bad.canvasWidth = 0
	if err := executePreview(&bytes.Buffer{}, bad); err == nil {
		t.Error("expected an error for an empty canvas")
	}
}

func TestEnsureConfigFile(t *testing.T) {
	saved := configFile
	t.Cleanup(func() { configFile = saved })

	configFile = filepath.Join(t.TempDir(), "nested", "memegen.yml")
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile() error = %v", err)
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != defaultConfig {
		t.Error("config file should contain the default configuration")
	}

	// An existing file is left alone.
	if err := os.WriteFile(configFile, []byte("all: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile() error = %v", err)
	}
	data, _ = os.ReadFile(configFile)
	if string(data) != "all: true\n" {
		t.Errorf("existing config was overwritten: %q", data)
	}

	configFile = filepath.Join(t.TempDir(), "memegen.json")
	if err := ensureConfigFile(); err == nil {
		t.Error("expected an error for a json config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/tmp/models/", "/tmp/models"},
		{"~/models", filepath.Join(home, "models")},
		{"relative/../dir", "dir"},
	}
	for _, tc := range tests {
		if got := expandPath(tc.in); got != tc.want {
			t.Errorf("expandPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func setViper(t *testing.T, values map[string]any) {
	t.Helper()
	for k, v := range values {
		k := k
		prev := viper.Get(k)
		viper.Set(k, v)
		t.Cleanup(func() { viper.Set(k, prev) })
	}
}

func TestNewReaderDisabled(t *testing.T) {
	setViper(t, map[string]any{"tts.engine": ""})

	reader, closer, err := newReader()
	if err != nil {
		t.Fatalf("newReader() error = %v", err)
	}
	if reader != nil {
		t.Error("reader should be nil without an engine")
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}
}

func TestNewReaderInvalidEngine(t *testing.T) {
	setViper(t, map[string]any{"tts.engine": "espeak"})

	if _, _, err := newReader(); !errors.Is(err, speech.ErrInvalidEngine) {
		t.Errorf("newReader() error = %v, want ErrInvalidEngine", err)
	}
}

func TestNewReaderMock(t *testing.T) {
	cacheDir := t.TempDir()
	setViper(t, map[string]any{
		"tts.engine":         "mock",
		"tts.cache.dir":      cacheDir,
		"tts.cache.max_size": 10,
		"tts.speed":          1.0,
		"tts.volume":         70,
	})
	player := audio.NewMockPlayer()
	saved := newPlayer
	newPlayer = func() (speech.Player, error) { return player, nil }
	t.Cleanup(func() { newPlayer = saved })

	reader, closer, err := newReader()
	if err != nil {
		t.Fatalf("newReader() error = %v", err)
	}
	if reader == nil {
		t.Fatal("reader should not be nil")
	}
	if reader.Volume() != 70 {
		t.Errorf("Volume() = %d, want 70", reader.Volume())
	}

	voices, err := reader.Voices(context.Background())
	if err != nil || len(voices) == 0 {
		t.Fatalf("Voices() = %v, %v", voices, err)
	}
	if err := reader.Speak(context.Background(), "hello", voices[0]); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(player.Plays()) != 1 {
		t.Errorf("player got %d plays, want 1", len(player.Plays()))
	}
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	if err := closer(); err != nil {
		t.Errorf("closer() error = %v", err)
	}
	if out := logs.String(); !strings.Contains(out, "speech cache") || !strings.Contains(out, "disk_items=1") {
		t.Errorf("cache stats not logged on close: %q", out)
	}
}

func TestHitRate(t *testing.T) {
	tests := []struct {
		name      string
		mem, disk cache.Stats
		want      float64
	}{
		{"no lookups", cache.Stats{}, cache.Stats{}, 0},
		{"all memory", cache.Stats{Hits: 4}, cache.Stats{}, 1},
		{"disk fills in", cache.Stats{Hits: 1, Misses: 3}, cache.Stats{Hits: 1, Misses: 2}, 0.5},
		{"all misses", cache.Stats{Misses: 2}, cache.Stats{Misses: 2}, 0},
	}
	for _, tc := range tests {
		if got := hitRate(tc.mem, tc.disk); got != tc.want {
			t.Errorf("%s: hitRate() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewReaderPlayerError(t *testing.T) {
	setViper(t, map[string]any{
		"tts.engine":    "mock",
		"tts.cache.dir": t.TempDir(),
	})
	saved := newPlayer
	newPlayer = func() (speech.Player, error) { return nil, errors.New("no device") }
	t.Cleanup(func() { newPlayer = saved })

	if _, _, err := newReader(); err == nil || !strings.Contains(err.Error(), "no device") {
		t.Errorf("newReader() error = %v, want device error", err)
	}
}

func TestValidateOptionsCanvasSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		is            error
	}{
		{"non-square", 400, 200, canvas.ErrNonSquare},
		{"empty", 0, 400, nil},
		{"too small", 50, 50, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setViper(t, map[string]any{
				"tts.engine":    "",
				"tts.volume":    50,
				"canvas.width":  tc.width,
				"canvas.height": tc.height,
			})
			err := validateOptions(rootCmd)
			if err == nil {
				t.Fatalf("validateOptions() accepted %dx%d", tc.width, tc.height)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("validateOptions() error = %v, want %v", err, tc.is)
			}
		})
	}

	setViper(t, map[string]any{"tts.engine": "", "canvas.width": 600, "canvas.height": 600})
	if err := validateOptions(rootCmd); err != nil {
		t.Errorf("validateOptions() error = %v for a square canvas", err)
	}
}
