package engines

import (
	"fmt"

	"github.com/dgnsrekt/memegen/internal/speech"
)

// Config selects and configures an engine.
type Config struct {
	Engine speech.EngineType
	GTTS   GTTSConfig
	Piper  PiperConfig
}

// New builds the configured engine.
func New(cfg Config) (speech.Engine, error) {
	switch cfg.Engine {
	case speech.EngineGTTS:
		return NewGTTSEngine(cfg.GTTS), nil
	case speech.EnginePiper:
		return NewPiperEngine(cfg.Piper)
	case speech.EngineMock:
		return NewMockEngine(), nil
	case speech.EngineNone:
		return nil, speech.ErrNoEngineConfigured
	default:
		return nil, fmt.Errorf("%w: %s", speech.ErrInvalidEngine, cfg.Engine)
	}
}
