package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrClosed is returned when playing on a closed player.
var ErrClosed = errors.New("player is closed")

// State is the playback state of a player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Player plays PCM through oto. A new Play replaces whatever is playing.
type Player struct {
	context *oto.Context
	format  Format

	mu     sync.Mutex
	player *oto.Player
	// data backs player's reader and must stay referenced while it plays.
	data    []byte
	started time.Time
	length  time.Duration

	state  atomic.Int32
	volume atomic.Uint64 // math.Float64bits
}

// PlayerConfig configures a Player.
type PlayerConfig struct {
	Format     Format
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Format:     DefaultFormat,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(cfg PlayerConfig) error {
	if cfg.Format.SampleRate != 44100 && cfg.Format.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", cfg.Format.SampleRate)
	}
	if cfg.Format.Channels != 1 && cfg.Format.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", cfg.Format.Channels)
	}
	if cfg.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// NewPlayer opens the audio device. oto allows one context per process, so
// a program should create a single Player.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.Format.SampleRate,
		ChannelCount: cfg.Format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   cfg.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	p := &Player{context: ctx, format: cfg.Format}
	p.state.Store(int32(StateStopped))
	p.volume.Store(math.Float64bits(1))
	return p, nil
}

// Format returns the PCM format the player expects.
func (p *Player) Format() Format {
	return p.format
}

// Play starts playing pcm and returns immediately.
func (p *Player) Play(pcm []byte) error {
	if err := p.format.Validate(pcm); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if State(p.state.Load()) == StateClosed {
		return ErrClosed
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.Volume())
	p.player = player
	p.data = data
	p.started = time.Now()
	p.length = p.format.Duration(len(data))

	player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop halts playback.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.data = nil
	if State(p.state.Load()) != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// IsPlaying reports whether audio is still being played.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return false
	}
	if !p.player.IsPlaying() && time.Since(p.started) >= p.length {
		p.stopLocked()
		return false
	}
	return true
}

// State returns the playback state.
func (p *Player) State() State {
	if p.IsPlaying() {
		return StatePlaying
	}
	return State(p.state.Load())
}

// SetVolume sets the volume in [0, 1]. It applies to the current and all
// later playback.
func (p *Player) SetVolume(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", v)
	}
	p.volume.Store(math.Float64bits(v))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.SetVolume(v)
	}
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// Close stops playback. The oto context itself lives until process exit.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}
