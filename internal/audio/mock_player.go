package audio

import (
	"fmt"
	"math"
	"sync"
)

// MockPlayer records playback without touching an audio device.
type MockPlayer struct {
	mu      sync.Mutex
	plays   [][]byte
	volume  float64
	playing bool
	closed  bool

	// PlayErr, when set, is returned by Play.
	PlayErr error
}

// NewMockPlayer returns a stopped mock at full volume.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{volume: 1}
}

// Play records pcm.
func (m *MockPlayer) Play(pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.PlayErr != nil {
		return m.PlayErr
	}
	if err := DefaultFormat.Validate(pcm); err != nil {
		return err
	}
	m.plays = append(m.plays, append([]byte(nil), pcm...))
	m.playing = true
	return nil
}

// Stop marks playback as finished.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	return nil
}

// IsPlaying reports whether Play was called since the last Stop.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SetVolume records v.
func (m *MockPlayer) SetVolume(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
	return nil
}

// Volume returns the last volume set.
func (m *MockPlayer) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Plays returns a copy of everything played so far.
func (m *MockPlayer) Plays() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.plays...)
}

// Close marks the player closed.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}
