package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/speech"
)

const (
	piperSampleRate  = 22050
	piperMaxText     = 5000
	piperInstallHint = "Download piper from https://github.com/rhasspy/piper/releases and put it on your PATH"
)

// PiperConfig configures the piper engine.
type PiperConfig struct {
	// Binary is the piper executable; defaults to "piper".
	Binary string
	// ModelsDir holds *.onnx voice models and their .onnx.json configs.
	ModelsDir string
}

// PiperEngine runs one piper process per synthesis. Each voice is a model
// file in ModelsDir.
type PiperEngine struct {
	binary    string
	modelsDir string
	run       runner
}

// NewPiperEngine returns a piper engine.
func NewPiperEngine(cfg PiperConfig) (*PiperEngine, error) {
	if cfg.ModelsDir == "" {
		return nil, errors.New("piper models directory is required")
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	return &PiperEngine{
		binary:    cfg.Binary,
		modelsDir: cfg.ModelsDir,
		run:       runCommand,
	}, nil
}

// Synthesize pipes text to piper and returns PCM at 22050 Hz.
func (e *PiperEngine) Synthesize(ctx context.Context, text string, voice speech.Voice, speed float64) ([]byte, error) {
	if text == "" {
		return nil, speech.ErrEmptyText
	}
	if voice.ID == "" {
		return nil, errors.New("piper needs a voice model")
	}
	if speed <= 0 {
		speed = 1
	}

	args := []string{
		"--model", voice.ID,
		"--output_raw",
		"--length_scale", fmt.Sprintf("%.2f", 1/speed),
	}
	pcm, err := e.run(ctx, []byte(text+"\n"), e.binary, args...)
	if err != nil {
		return nil, err
	}

	rate := modelSampleRate(voice.ID)
	if rate != piperSampleRate {
		return audio.Resample(pcm, rate, piperSampleRate)
	}
	return pcm, nil
}

// modelSampleRate reads audio.sample_rate from the model's JSON config,
// falling back to 22050 Hz.
func modelSampleRate(model string) int {
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		return piperSampleRate
	}
	var cfg struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Audio.SampleRate <= 0 {
		return piperSampleRate
	}
	return cfg.Audio.SampleRate
}

// Voices lists the *.onnx models in the models directory.
func (e *PiperEngine) Voices(context.Context) ([]speech.Voice, error) {
	matches, err := filepath.Glob(filepath.Join(e.modelsDir, "*.onnx"))
	if err != nil {
		return nil, fmt.Errorf("list piper models: %w", err)
	}
	voices := make([]speech.Voice, 0, len(matches))
	for _, m := range matches {
		voices = append(voices, piperVoice(m))
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	return voices, nil
}

// piperVoice derives a voice from a model path such as
// en_US-lessac-medium.onnx.
func piperVoice(path string) speech.Voice {
	name := strings.TrimSuffix(filepath.Base(path), ".onnx")
	lang, _, _ := strings.Cut(name, "-")
	return speech.Voice{
		ID:       path,
		Name:     name,
		Language: strings.ReplaceAll(lang, "_", "-"),
	}
}

// Info returns engine capabilities.
func (e *PiperEngine) Info() speech.EngineInfo {
	return speech.EngineInfo{
		Name:        string(speech.EnginePiper),
		SampleRate:  piperSampleRate,
		MaxTextSize: piperMaxText,
	}
}

// Validate checks the binary and that at least one model exists.
func (e *PiperEngine) Validate() error {
	if _, err := requireBinary(e.binary, piperInstallHint); err != nil {
		return err
	}
	voices, err := e.Voices(context.Background())
	if err != nil {
		return err
	}
	if len(voices) == 0 {
		return fmt.Errorf("%w: no .onnx models in %s", speech.ErrNoVoices, e.modelsDir)
	}
	return nil
}

// Close is a no-op.
func (e *PiperEngine) Close() error {
	return nil
}

var _ speech.Engine = (*PiperEngine)(nil)
