package engines

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/memegen/internal/speech"
	"golang.org/x/time/rate"
)

const (
	gttsSampleRate  = 44100
	gttsMaxText     = 5000
	maxMP3Size      = 50 * 1024 * 1024
	gttsInstallHint = "Install with: pip install gTTS"
)

// GTTSConfig configures the gtts engine.
type GTTSConfig struct {
	// Slow asks Google for slower speech.
	Slow bool
	// RequestsPerMinute limits calls to Google; defaults to 50.
	RequestsPerMinute int
}

// GTTSEngine synthesizes with gtts-cli (MP3) and converts to PCM with ffmpeg.
// Voices are the languages gtts-cli supports.
type GTTSEngine struct {
	slow    bool
	limiter *rate.Limiter
	run     runner

	mu     sync.Mutex
	voices []speech.Voice
}

// NewGTTSEngine returns a gtts engine.
func NewGTTSEngine(cfg GTTSConfig) *GTTSEngine {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	return &GTTSEngine{
		slow:    cfg.Slow,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		run:     runCommand,
	}
}

// Synthesize converts text to PCM: text → gtts-cli → MP3 → ffmpeg → PCM.
func (e *GTTSEngine) Synthesize(ctx context.Context, text string, voice speech.Voice, speed float64) ([]byte, error) {
	if text == "" {
		return nil, speech.ErrEmptyText
	}
	lang := voice.ID
	if lang == "" {
		lang = "en"
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	// Text goes on stdin so captions starting with '-' are not read as flags.
	args := []string{"-", "--lang", lang}
	if e.slow {
		args = append(args, "--slow")
	}
	args = append(args, "--output", "-")
	mp3, err := e.run(ctx, []byte(text), "gtts-cli", args...)
	if err != nil {
		return nil, fmt.Errorf("MP3 generation failed: %w", err)
	}
	if len(mp3) > maxMP3Size {
		return nil, fmt.Errorf("gtts-cli MP3 output too large: %d bytes (max %d)", len(mp3), maxMP3Size)
	}

	pcm, err := e.run(ctx, mp3, "ffmpeg", ffmpegArgs(speed)...)
	if err != nil {
		return nil, fmt.Errorf("MP3 to PCM conversion failed: %w", err)
	}
	return pcm, nil
}

// ffmpegArgs converts MP3 on stdin to mono s16le PCM on stdout.
func ffmpegArgs(speed float64) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(gttsSampleRate),
		"-ac", "1",
	}
	if speed != 1.0 {
		// atempo accepts 0.5 to 2.0.
		speed = min(max(speed, 0.5), 2.0)
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", speed))
	}
	return append(args, "pipe:1")
}

// Voices lists the languages reported by gtts-cli --all. The list is
// fetched once.
func (e *GTTSEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.voices != nil {
		return e.voices, nil
	}
	out, err := e.run(ctx, nil, "gtts-cli", "--all")
	if err != nil {
		return nil, err
	}
	e.voices = parseGTTSLanguages(out)
	return e.voices, nil
}

// parseGTTSLanguages parses lines of the form "  en: English".
func parseGTTSLanguages(out []byte) []speech.Voice {
	var voices []speech.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		code, name, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if !ok || code == "" || name == "" || strings.ContainsAny(code, " \t") {
			continue
		}
		voices = append(voices, speech.Voice{ID: code, Name: name, Language: code})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })
	return voices
}

// Info returns engine capabilities.
func (e *GTTSEngine) Info() speech.EngineInfo {
	return speech.EngineInfo{
		Name:        string(speech.EngineGTTS),
		SampleRate:  gttsSampleRate,
		MaxTextSize: gttsMaxText,
		IsOnline:    true,
	}
}

// Validate checks that gtts-cli and ffmpeg are installed.
func (e *GTTSEngine) Validate() error {
	if _, err := requireBinary("gtts-cli", gttsInstallHint); err != nil {
		return err
	}
	if _, err := requireBinary("ffmpeg", "Install ffmpeg for audio conversion"); err != nil {
		return err
	}
	return nil
}

// Close is a no-op.
func (e *GTTSEngine) Close() error {
	return nil
}

var _ speech.Engine = (*GTTSEngine)(nil)
