package speech

import (
	"errors"
	"fmt"
	"testing"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		top, bottom, want string
	}{
		{"one does not simply", "walk into mordor", "one does not simply walk into mordor"},
		{"  top only ", "", "top only"},
		{"", "bottom only", "bottom only"},
		{" ", "\t", ""},
	}
	for _, tt := range tests {
		if got := ReadText(tt.top, tt.bottom); got != tt.want {
			t.Errorf("ReadText(%q, %q) = %q, want %q", tt.top, tt.bottom, got, tt.want)
		}
	}
}

func TestSelectVoice(t *testing.T) {
	voices := []Voice{
		{ID: "a", Name: "Alpha", Language: "en-US"},
		{ID: "b", Name: "Bravo", Language: "de-DE"},
		{ID: "c", Name: "Charlie", Language: "fr"},
	}
	tests := []struct {
		name, id, lang, want string
	}{
		{"by id", "c", "de", "c"},
		{"by language", "missing", "DE", "b"},
		{"first", "", "", "a"},
		{"unknown language", "", "ja", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := SelectVoice(voices, tt.id, tt.lang)
			if !ok || v.ID != tt.want {
				t.Errorf("SelectVoice() = %v, %v, want %q", v, ok, tt.want)
			}
		})
	}

	if _, ok := SelectVoice(nil, "a", "en"); ok {
		t.Error("SelectVoice(nil) should report no voice")
	}
}

func TestVoiceString(t *testing.T) {
	if got := (Voice{Name: "English", Language: "en"}).String(); got != "English (en)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Voice{Name: "en", Language: "en"}).String(); got != "en" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineType
		wantErr error
	}{
		{"gtts", EngineGTTS, nil},
		{" Google ", EngineGTTS, nil},
		{"PIPER", EnginePiper, nil},
		{"mock", EngineMock, nil},
		{"", EngineNone, ErrNoEngineConfigured},
		{"espeak", EngineNone, ErrInvalidEngine},
	}
	for _, tt := range tests {
		got, err := ParseEngine(tt.in)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("ParseEngine(%q) = %q, %v, want %q, %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestValidateSpeedAndLanguage(t *testing.T) {
	for _, s := range []float64{0.5, 1, 2} {
		if err := ValidateSpeed(s); err != nil {
			t.Errorf("ValidateSpeed(%v) error = %v", s, err)
		}
	}
	for _, s := range []float64{0, 0.49, 2.01} {
		if err := ValidateSpeed(s); err == nil {
			t.Errorf("ValidateSpeed(%v) should fail", s)
		}
	}
	if err := ValidateLanguage("en-US"); err != nil {
		t.Errorf("ValidateLanguage(en-US) error = %v", err)
	}
	if err := ValidateLanguage("e"); err == nil {
		t.Error("ValidateLanguage(e) should fail")
	}
}

func TestVolume(t *testing.T) {
	tests := []struct {
		v    Volume
		icon VolumeIcon
	}{
		{0, IconMuted},
		{1, IconLow},
		{33, IconLow},
		{34, IconMedium},
		{66, IconMedium},
		{67, IconHigh},
		{100, IconHigh},
	}
	for _, tt := range tests {
		if got := tt.v.Icon(); got != tt.icon {
			t.Errorf("Volume(%d).Icon() = %v, want %v", tt.v, got, tt.icon)
		}
	}

	if got := Volume(95).Up(); got != MaxVolume {
		t.Errorf("Up() = %d, want %d", got, MaxVolume)
	}
	if got := Volume(5).Down(); got != MinVolume {
		t.Errorf("Down() = %d, want %d", got, MinVolume)
	}
	if got := Volume(50).Level(); got != 0.5 {
		t.Errorf("Level() = %v, want 0.5", got)
	}
	if _, err := ParseVolume(101); err == nil {
		t.Error("ParseVolume(101) should fail")
	}
	if _, err := ParseVolume(-1); err == nil {
		t.Error("ParseVolume(-1) should fail")
	}
}

func TestError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := fmt.Errorf("read: %w", NewError(ErrorCodeTimeout, "synthesis timed out", cause))

	if CodeOf(err) != ErrorCodeTimeout {
		t.Errorf("CodeOf() = %q", CodeOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	var se *Error
	if !errors.As(err, &se) || !se.IsRetryable() {
		t.Error("timeouts should be retryable")
	}
	if CodeOf(cause) != "" {
		t.Error("CodeOf() of a plain error should be empty")
	}
	if got := NewError(ErrorCodeAudio, "play", nil).Error(); got != "AUDIO: play" {
		t.Errorf("Error() = %q", got)
	}
}
