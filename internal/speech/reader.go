package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/cache"
)

// DefaultTimeout bounds a single synthesis.
const DefaultTimeout = 45 * time.Second

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	// Speed is the speaking rate multiplier, 0.5 to 2.0.
	Speed float64
	// Volume is the initial volume.
	Volume Volume
	// OutputRate is the sample rate the player expects.
	OutputRate int
	// Cache, when set, stores synthesized audio.
	Cache Cache
	// Timeout bounds each synthesis; zero uses DefaultTimeout.
	Timeout time.Duration
}

// Reader speaks text through an engine and a player.
type Reader struct {
	engine Engine
	player Player
	cache  Cache

	speed      float64
	outputRate int
	timeout    time.Duration

	mu     sync.Mutex
	volume Volume
}

// NewReader returns a Reader and applies the initial volume to player.
func NewReader(engine Engine, player Player, cfg ReaderConfig) (*Reader, error) {
	if engine == nil || player == nil {
		return nil, errors.New("speech reader needs an engine and a player")
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1
	}
	if err := ValidateSpeed(cfg.Speed); err != nil {
		return nil, err
	}
	if cfg.OutputRate == 0 {
		cfg.OutputRate = audio.DefaultFormat.SampleRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	r := &Reader{
		engine:     engine,
		player:     player,
		cache:      cfg.Cache,
		speed:      cfg.Speed,
		outputRate: cfg.OutputRate,
		timeout:    cfg.Timeout,
	}
	if err := r.SetVolume(cfg.Volume); err != nil {
		return nil, err
	}
	return r, nil
}

// Engine returns the underlying engine.
func (r *Reader) Engine() Engine {
	return r.engine
}

// Voices lists the engine's voices.
func (r *Reader) Voices(ctx context.Context) ([]Voice, error) {
	voices, err := r.engine.Voices(ctx)
	if err != nil {
		return nil, NewError(ErrorCodeEngineUnavailable, "list voices", err)
	}
	if len(voices) == 0 {
		return nil, ErrNoVoices
	}
	return voices, nil
}

// Speak synthesizes text with voice and starts playing it. It returns once
// playback has started.
func (r *Reader) Speak(ctx context.Context, text string, voice Voice) error {
	if text == "" {
		return ErrEmptyText
	}
	info := r.engine.Info()
	if n := utf8.RuneCountInString(text); info.MaxTextSize > 0 && n > info.MaxTextSize {
		return NewError(ErrorCodeInvalidInput,
			fmt.Sprintf("%d characters (max %d)", n, info.MaxTextSize), ErrTextTooLong)
	}

	pcm, err := r.synthesize(ctx, text, voice, info)
	if err != nil {
		return err
	}
	if err := r.player.Play(pcm); err != nil {
		return NewError(ErrorCodeAudio, "play", err)
	}
	log.Debug("speaking", "engine", info.Name, "voice", voice.ID, "bytes", len(pcm))
	return nil
}

func (r *Reader) synthesize(ctx context.Context, text string, voice Voice, info EngineInfo) ([]byte, error) {
	key := cache.Key(info.Name, voice.ID, text, r.speed)
	if r.cache != nil {
		if pcm, ok := r.cache.Get(key); ok {
			log.Debug("speech cache hit", "key", key)
			return pcm, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pcm, err := r.engine.Synthesize(ctx, text, voice, r.speed)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(ErrorCodeTimeout, "synthesis timed out", err)
		}
		return nil, NewError(ErrorCodeSynthesis, "synthesize", err)
	}

	pcm, err = audio.Resample(pcm, info.SampleRate, r.outputRate)
	if err != nil {
		return nil, NewError(ErrorCodeAudio, "resample", err)
	}

	if r.cache != nil {
		if err := r.cache.Put(key, pcm); err != nil {
			log.Debug("unable to cache speech", "error", err)
		}
	}
	return pcm, nil
}

// SetVolume changes the playback volume.
func (r *Reader) SetVolume(v Volume) error {
	if _, err := ParseVolume(int(v)); err != nil {
		return err
	}
	if err := r.player.SetVolume(v.Level()); err != nil {
		return NewError(ErrorCodeAudio, "set volume", err)
	}
	r.mu.Lock()
	r.volume = v
	r.mu.Unlock()
	return nil
}

// Volume returns the current volume.
func (r *Reader) Volume() Volume {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// IsSpeaking reports whether audio is playing.
func (r *Reader) IsSpeaking() bool {
	return r.player.IsPlaying()
}

// Stop halts playback.
func (r *Reader) Stop() error {
	return r.player.Stop()
}

// Close stops playback and releases the engine and player.
func (r *Reader) Close() error {
	return errors.Join(r.player.Close(), r.engine.Close())
}
