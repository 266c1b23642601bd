// Package speech reads meme captions aloud. It defines the engine contract,
// the voices engines expose, and a Reader that ties an engine, an audio
// cache and a player together.
package speech

import (
	"context"
	"strings"
)

// EngineType names a speech engine.
type EngineType string

const (
	// EngineGTTS uses gtts-cli (Google Translate TTS) and ffmpeg.
	EngineGTTS EngineType = "gtts"
	// EnginePiper uses the offline piper binary.
	EnginePiper EngineType = "piper"
	// EngineMock produces tones; used in tests and demos.
	EngineMock EngineType = "mock"
	// EngineNone disables speech.
	EngineNone EngineType = ""
)

// Voice is one selectable voice.
type Voice struct {
	// ID is passed back to Synthesize.
	ID string
	// Name is shown to the user.
	Name string
	// Language is a BCP 47 tag, when known.
	Language string
}

func (v Voice) String() string {
	if v.Language != "" && v.Language != v.Name {
		return v.Name + " (" + v.Language + ")"
	}
	return v.Name
}

// EngineInfo describes an engine's output.
type EngineInfo struct {
	Name        string
	SampleRate  int
	MaxTextSize int
	IsOnline    bool
}

// Engine turns text into 16-bit little-endian mono PCM.
type Engine interface {
	// Synthesize converts text to PCM at Info().SampleRate using voice.
	Synthesize(ctx context.Context, text string, voice Voice, speed float64) ([]byte, error)

	// Voices lists the voices the engine offers.
	Voices(ctx context.Context) ([]Voice, error)

	// Info returns engine capabilities.
	Info() EngineInfo

	// Validate checks that the engine's dependencies are available.
	Validate() error

	// Close releases engine resources.
	Close() error
}

// Player plays PCM. audio.Player and audio.MockPlayer implement it.
type Player interface {
	Play(pcm []byte) error
	Stop() error
	IsPlaying() bool
	SetVolume(v float64) error
	Close() error
}

// Cache stores synthesized audio. cache.Manager implements it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// ReadText joins the captions that are read aloud, skipping empty ones.
func ReadText(top, bottom string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{top, bottom} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// SelectVoice picks the voice with the given id. Failing that it picks the
// first voice whose language starts with lang, then the first voice. It
// returns false when voices is empty.
func SelectVoice(voices []Voice, id, lang string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	if lang != "" {
		for _, v := range voices {
			if strings.HasPrefix(strings.ToLower(v.Language), strings.ToLower(lang)) {
				return v, true
			}
		}
	}
	return voices[0], true
}
