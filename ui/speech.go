package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/speech"
)

const playbackPollInterval = 250 * time.Millisecond

// speaker reads captions aloud. *speech.Reader implements it.
type speaker interface {
	Voices(ctx context.Context) ([]speech.Voice, error)
	Speak(ctx context.Context, text string, voice speech.Voice) error
	SetVolume(v speech.Volume) error
	IsSpeaking() bool
	Stop() error
}

type (
	voicesMsg struct {
		voices []speech.Voice
		err    error
	}
	speakMsg        struct{ err error }
	playbackTickMsg struct{}
)

// populateVoices lists the available voices.
func populateVoices(sp speaker) tea.Cmd {
	return func() tea.Msg {
		if sp == nil {
			return voicesMsg{err: speech.ErrNoEngineConfigured}
		}
		voices, err := sp.Voices(context.Background())
		return voicesMsg{voices: voices, err: err}
	}
}

// speak synthesizes text and starts playback. Playback continues after the
// message is delivered.
func speak(sp speaker, text string, voice speech.Voice) tea.Cmd {
	return func() tea.Msg {
		err := sp.Speak(context.Background(), text, voice)
		if err != nil {
			log.Error("unable to read captions", "error", err, "code", speech.CodeOf(err))
		}
		return speakMsg{err: err}
	}
}

func pollPlayback() tea.Cmd {
	return tea.Tick(playbackPollInterval, func(time.Time) tea.Msg {
		return playbackTickMsg{}
	})
}
