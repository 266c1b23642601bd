package speech

import (
	"fmt"
	"strings"
)

// ParseEngine normalizes an engine name. An empty name returns
// ErrNoEngineConfigured.
func ParseEngine(name string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return EngineNone, ErrNoEngineConfigured
	case "gtts", "google":
		return EngineGTTS, nil
	case "piper":
		return EnginePiper, nil
	case "mock":
		return EngineMock, nil
	default:
		return EngineNone, fmt.Errorf("%w: %s\n\nSupported engines:\n  - gtts (Google Translate TTS, online)\n  - piper (offline)\n  - mock (test tones)",
			ErrInvalidEngine, name)
	}
}

// ValidateSpeed checks a speed multiplier.
func ValidateSpeed(speed float64) error {
	if speed < 0.5 || speed > 2.0 {
		return fmt.Errorf("speed must be between 0.5 and 2.0, got %.2f", speed)
	}
	return nil
}

// ValidateLanguage does a shallow check of a language code.
func ValidateLanguage(lang string) error {
	if len(lang) < 2 || len(lang) > 5 {
		return fmt.Errorf("language code must be 2-5 characters, got %q", lang)
	}
	return nil
}
