package engines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/speech"
)

type call struct {
	stdin string
	name  string
	args  []string
}

// fakeRunner records commands and answers from a table keyed by binary.
type fakeRunner struct {
	calls   []call
	outputs map[string][]byte
	err     error
}

func (f *fakeRunner) run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{string(stdin), name, args})
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs[name], nil
}

func TestParseGTTSLanguages(t *testing.T) {
	out := []byte("  fr: French\n  en: English\n\ngarbage line\n  zh-TW: Chinese (Mandarin/Taiwan)\n")
	got := parseGTTSLanguages(out)
	want := []speech.Voice{
		{ID: "en", Name: "English", Language: "en"},
		{ID: "fr", Name: "French", Language: "fr"},
		{ID: "zh-TW", Name: "Chinese (Mandarin/Taiwan)", Language: "zh-TW"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseGTTSLanguages() = %+v, want %+v", got, want)
	}
}

func TestGTTSSynthesize(t *testing.T) {
	fr := &fakeRunner{outputs: map[string][]byte{
		"gtts-cli": []byte("ID3mp3"),
		"ffmpeg":   {1, 0, 2, 0},
	}}
	e := NewGTTSEngine(GTTSConfig{Slow: true, RequestsPerMinute: 6000})
	e.run = fr.run

	pcm, err := e.Synthesize(context.Background(), "hello", speech.Voice{ID: "fr"}, 1.5)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(pcm) != 4 {
		t.Errorf("Synthesize() returned %d bytes", len(pcm))
	}
	if len(fr.calls) != 2 {
		t.Fatalf("got %d commands, want 2", len(fr.calls))
	}
	gtts := strings.Join(fr.calls[0].args, " ")
	if gtts != "- --lang fr --slow --output -" {
		t.Errorf("gtts-cli args = %q", gtts)
	}
	if fr.calls[0].stdin != "hello" {
		t.Errorf("gtts-cli stdin = %q, want the text", fr.calls[0].stdin)
	}
	if fr.calls[1].stdin != "ID3mp3" {
		t.Error("ffmpeg should read the MP3 from stdin")
	}
	if !strings.Contains(strings.Join(fr.calls[1].args, " "), "atempo=1.50") {
		t.Errorf("ffmpeg args = %v, want atempo filter", fr.calls[1].args)
	}
}

func TestGTTSSynthesizeDashText(t *testing.T) {
	tests := []string{"-", "--help", "-_- me when"}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			fr := &fakeRunner{outputs: map[string][]byte{
				"gtts-cli": []byte("ID3mp3"),
				"ffmpeg":   {1, 0},
			}}
			e := NewGTTSEngine(GTTSConfig{RequestsPerMinute: 6000})
			e.run = fr.run

			if _, err := e.Synthesize(context.Background(), text, speech.Voice{ID: "en"}, 1); err != nil {
				t.Fatalf("Synthesize(%q) error = %v", text, err)
			}
			args := fr.calls[0].args
			if args[0] != "-" {
				t.Errorf("first gtts-cli arg = %q, want stdin marker", args[0])
			}
			for _, a := range args {
				if a == text && text != "-" {
					t.Errorf("text %q leaked into gtts-cli args %v", text, args)
				}
			}
			if fr.calls[0].stdin != text {
				t.Errorf("gtts-cli stdin = %q, want %q", fr.calls[0].stdin, text)
			}
		})
	}
}

func TestGTTSSynthesizeErrors(t *testing.T) {
	e := NewGTTSEngine(GTTSConfig{})
	if _, err := e.Synthesize(context.Background(), "", speech.Voice{}, 1); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("empty text error = %v", err)
	}

	boom := errors.New("boom")
	e.run = (&fakeRunner{err: boom}).run
	if _, err := e.Synthesize(context.Background(), "hi", speech.Voice{}, 1); !errors.Is(err, boom) {
		t.Errorf("runner error = %v, want boom", err)
	}
}

func TestFFmpegArgsClampSpeed(t *testing.T) {
	if strings.Contains(strings.Join(ffmpegArgs(1), " "), "atempo") {
		t.Error("normal speed should not add a filter")
	}
	if !strings.Contains(strings.Join(ffmpegArgs(5), " "), "atempo=2.00") {
		t.Error("speed should clamp to 2.0")
	}
}

func TestGTTSVoicesCached(t *testing.T) {
	fr := &fakeRunner{outputs: map[string][]byte{"gtts-cli": []byte("  en: English\n")}}
	e := NewGTTSEngine(GTTSConfig{})
	e.run = fr.run

	for i := 0; i < 2; i++ {
		voices, err := e.Voices(context.Background())
		if err != nil || len(voices) != 1 {
			t.Fatalf("Voices() = %v, %v", voices, err)
		}
	}
	if len(fr.calls) != 1 {
		t.Errorf("gtts-cli --all ran %d times, want 1", len(fr.calls))
	}
}

func TestPiperVoices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"en_US-lessac-medium.onnx", "de_DE-thorsten-low.onnx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	e, err := NewPiperEngine(PiperConfig{ModelsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	voices, err := e.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices() error = %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("Voices() = %+v, want 2 voices", voices)
	}
	if voices[0].Name != "de_DE-thorsten-low" || voices[0].Language != "de-DE" {
		t.Errorf("voices[0] = %+v", voices[0])
	}
	if voices[1].ID != filepath.Join(dir, "en_US-lessac-medium.onnx") {
		t.Errorf("voices[1].ID = %q", voices[1].ID)
	}
}

func TestPiperSynthesize(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "en_US-test-x_low.onnx")
	if err := os.WriteFile(model+".json", []byte(`{"audio":{"sample_rate":11025}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	fr := &fakeRunner{outputs: map[string][]byte{"piper": make([]byte, 3200)}}
	e, err := NewPiperEngine(PiperConfig{ModelsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	e.run = fr.run

	pcm, err := e.Synthesize(context.Background(), "one does not simply", speech.Voice{ID: model}, 2)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	// 1600 samples at 11025 Hz doubled to 22050 Hz.
	if want := 3200 * 2; len(pcm) != want {
		t.Errorf("len(pcm) = %d, want %d", len(pcm), want)
	}
	got := fr.calls[0]
	if got.stdin != "one does not simply\n" {
		t.Errorf("stdin = %q", got.stdin)
	}
	if !reflect.DeepEqual(got.args, []string{"--model", model, "--output_raw", "--length_scale", "0.50"}) {
		t.Errorf("args = %v", got.args)
	}
}

func TestPiperRequiresModels(t *testing.T) {
	if _, err := NewPiperEngine(PiperConfig{}); err == nil {
		t.Error("NewPiperEngine() without a models directory should fail")
	}
	e, _ := NewPiperEngine(PiperConfig{ModelsDir: t.TempDir()})
	if _, err := e.Synthesize(context.Background(), "hi", speech.Voice{}, 1); err == nil {
		t.Error("Synthesize() without a voice should fail")
	}
}

func TestMockEngine(t *testing.T) {
	e := NewMockEngine()
	voices, err := e.Voices(context.Background())
	if err != nil || len(voices) != 3 {
		t.Fatalf("Voices() = %v, %v", voices, err)
	}

	pcm, err := e.Synthesize(context.Background(), "two words", voices[0], 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := len(audio.Tone(audio.DefaultFormat, 220, 800*time.Millisecond)); len(pcm) != want {
		t.Errorf("len(pcm) = %d, want %d", len(pcm), want)
	}
	if calls := e.Calls(); len(calls) != 1 || calls[0] != "two words" {
		t.Errorf("Calls() = %v", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Synthesize(ctx, "x", voices[0], 1); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled Synthesize() error = %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    string
		wantErr error
	}{
		{Config{Engine: speech.EngineMock}, "mock", nil},
		{Config{Engine: speech.EngineGTTS}, "gtts", nil},
		{Config{Engine: speech.EnginePiper, Piper: PiperConfig{ModelsDir: "/models"}}, "piper", nil},
		{Config{Engine: speech.EngineNone}, "", speech.ErrNoEngineConfigured},
		{Config{Engine: "espeak"}, "", speech.ErrInvalidEngine},
	}
	for _, tt := range tests {
		e, err := New(tt.cfg)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New(%q) error = %v, want %v", tt.cfg.Engine, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q) error = %v", tt.cfg.Engine, err)
		}
		if e.Info().Name != tt.want {
			t.Errorf("New(%q).Info().Name = %q", tt.cfg.Engine, e.Info().Name)
		}
	}
}
