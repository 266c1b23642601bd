package engines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/speech"
)

const wordDuration = 400 * time.Millisecond

var mockVoices = []speech.Voice{
	{ID: "mock-low", Name: "Low", Language: "en"},
	{ID: "mock-mid", Name: "Mid", Language: "en"},
	{ID: "mock-high", Name: "High", Language: "en"},
}

var mockPitch = map[string]float64{
	"mock-low":  220,
	"mock-mid":  440,
	"mock-high": 880,
}

// MockEngine renders one short tone per word. It never touches the network
// or other processes.
type MockEngine struct {
	mu    sync.Mutex
	calls []string

	// Err, when set, is returned from Synthesize.
	Err error
	// VoicesErr, when set, is returned from Voices.
	VoicesErr error
}

// NewMockEngine returns a mock engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Synthesize returns a tone whose length follows the word count.
func (e *MockEngine) Synthesize(ctx context.Context, text string, voice speech.Voice, speed float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.calls = append(e.calls, text)
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, speech.ErrEmptyText
	}
	if speed <= 0 {
		speed = 1
	}

	pitch, ok := mockPitch[voice.ID]
	if !ok {
		pitch = 440
	}
	words := len(strings.Fields(text))
	d := time.Duration(float64(time.Duration(words)*wordDuration) / speed)
	return audio.Tone(audio.DefaultFormat, pitch, d), nil
}

// Calls returns the texts passed to Synthesize.
func (e *MockEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// Voices returns three fixed voices.
func (e *MockEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.VoicesErr != nil {
		return nil, e.VoicesErr
	}
	return append([]speech.Voice(nil), mockVoices...), nil
}

// Info returns engine capabilities.
func (e *MockEngine) Info() speech.EngineInfo {
	return speech.EngineInfo{
		Name:        string(speech.EngineMock),
		SampleRate:  audio.DefaultFormat.SampleRate,
		MaxTextSize: 1000,
	}
}

// Validate always succeeds.
func (e *MockEngine) Validate() error {
	return nil
}

// Close is a no-op.
func (e *MockEngine) Close() error {
	return nil
}

var _ speech.Engine = (*MockEngine)(nil)
