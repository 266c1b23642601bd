package ui

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/dgnsrekt/memegen/internal/speech/engines"
	"github.com/dgnsrekt/memegen/internal/uistate"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close() //nolint:errcheck
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(path string) Config {
	return Config{
		Path:         path,
		GlamourStyle: "dark",
		Volume:       speech.DefaultVolume,
		Language:     "en",
	}
}

func newTestReader(t *testing.T) (*speech.Reader, *audio.MockPlayer) {
	t.Helper()
	player := audio.NewMockPlayer()
	r, err := speech.NewReader(engines.NewMockEngine(), player, speech.ReaderConfig{Volume: speech.DefaultVolume})
	if err != nil {
		t.Fatal(err)
	}
	return r, player
}

// loadedModel returns a model in the editor with an image loaded.
func loadedModel(t *testing.T, sp speaker) (model, string) {
	t.Helper()
	path := writePNG(t, t.TempDir(), "wide.png", 80, 40)
	m := newModel(testConfig(path), sp)
	if m.fatalErr != nil {
		t.Fatalf("newModel() error = %v", m.fatalErr)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, loadImage(path)())
	return m, path
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+g":
		return tea.KeyMsg{Type: tea.KeyCtrlG}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func assertControls(t *testing.T, m model, generated bool) {
	t.Helper()
	want := uistate.SetGenerated(generated)
	for _, c := range uistate.AllControls {
		if got := m.editor.enabled(c); got != want.Enabled(c) {
			t.Errorf("%v enabled = %v, want %v", c, got, want.Enabled(c))
		}
	}
	if m.editor.ctrl.Generated() != generated {
		t.Errorf("Generated() = %v, want %v", m.editor.ctrl.Generated(), generated)
	}
}

func TestStartsInEditorForImagePath(t *testing.T) {
	m, path := loadedModel(t, nil)
	if m.state != stateShowEditor {
		t.Fatalf("state = %v, want editor", m.state)
	}
	if m.editor.source == nil || m.editor.source.Path != path {
		t.Fatal("image was not loaded")
	}
	if !m.editor.canvas.HasImage() {
		t.Error("canvas has no image")
	}
	if m.editor.preview == "" {
		t.Error("preview was not rendered")
	}
	assertControls(t, m, false)
}

func TestStartsInPickerForDirectory(t *testing.T) {
	m := newModel(testConfig(t.TempDir()), nil)
	if m.state != stateShowPicker {
		t.Errorf("state = %v, want picker", m.state)
	}
	assertControls(t, m, false)
}

func TestMissingPathIsFatal(t *testing.T) {
	m := newModel(testConfig(filepath.Join(t.TempDir(), "nope")), nil)
	if m.fatalErr == nil {
		t.Fatal("expected a fatal error")
	}
	if !strings.Contains(m.View(), "ERROR") {
		t.Error("error view should be shown")
	}
}

func TestGenerateAndClear(t *testing.T) {
	r, _ := newTestReader(t)
	m, _ := loadedModel(t, r)

	m.editor.inputs[0].SetValue("one does not simply")
	m.editor.inputs[1].SetValue("write a meme generator")

	next, cmd := m.Update(keyMsg("ctrl+g"))
	m = next.(model)
	if cmd == nil {
		t.Fatal("generating should request voices")
	}
	assertControls(t, m, true)
	if !m.editor.canvas.Captioned() {
		t.Error("captions were not drawn")
	}
	if !m.editor.loadingVoices {
		t.Error("voices should be loading")
	}

	m = update(t, m, populateVoices(m.editor.speaker)())
	if m.editor.loadingVoices || len(m.editor.voices) != 3 {
		t.Fatalf("voices = %v, loading = %v", m.editor.voices, m.editor.loadingVoices)
	}

	m = update(t, m, keyMsg("ctrl+x"))
	assertControls(t, m, false)
	if m.editor.canvas.Captioned() {
		t.Error("captions should be cleared")
	}
	if top, bottom := m.editor.captions(); top != "" || bottom != "" {
		t.Errorf("captions = %q, %q, want empty", top, bottom)
	}
}

func TestVoicesPopulatedOncePerGeneration(t *testing.T) {
	r, _ := newTestReader(t)
	m, _ := loadedModel(t, r)

	m = update(t, m, keyMsg("ctrl+g"))
	m = update(t, m, populateVoices(m.editor.speaker)())

	// Generate is disabled while generated, so nothing is requested again.
	next, cmd := m.Update(keyMsg("ctrl+g"))
	m = next.(model)
	if cmd != nil || m.editor.loadingVoices {
		t.Error("a second submit should not populate voices again")
	}

	m = update(t, m, keyMsg("ctrl+x"))
	m = update(t, m, keyMsg("ctrl+g"))
	if !m.editor.loadingVoices {
		t.Error("voices should be requested again after clearing")
	}
}

func TestReadCaptions(t *testing.T) {
	r, player := newTestReader(t)
	m, _ := loadedModel(t, r)
	m.editor.inputs[0].SetValue("top")

	// Read is disabled until the meme is generated.
	next, cmd := m.Update(keyMsg("ctrl+r"))
	m = next.(model)
	if cmd != nil || m.editor.speaking {
		t.Fatal("read should be disabled while idle")
	}

	m = update(t, m, keyMsg("ctrl+g"))
	m = update(t, m, populateVoices(m.editor.speaker)())
	m = update(t, m, keyMsg("ctrl+r"))
	if !m.editor.speaking {
		t.Fatal("reading should have started")
	}

	voice, _ := m.editor.currentVoice()
	m = update(t, m, speak(m.editor.speaker, speech.ReadText(m.editor.captions()), voice)())
	if len(player.Plays()) != 1 {
		t.Errorf("played %d clips, want 1", len(player.Plays()))
	}
	if !m.editor.speaking {
		t.Error("still speaking while the player plays")
	}

	_ = player.Stop()
	m = update(t, m, playbackTickMsg{})
	if m.editor.speaking {
		t.Error("speaking should end with playback")
	}
}

func TestReadWithoutSpeech(t *testing.T) {
	m, _ := loadedModel(t, nil)
	m.editor.inputs[0].SetValue("top")
	m = update(t, m, keyMsg("ctrl+g"))
	m = update(t, m, populateVoices(m.editor.speaker)())
	if m.editor.voicesErr == nil {
		t.Error("voices should be unavailable without an engine")
	}

	m = update(t, m, keyMsg("ctrl+r"))
	if m.editor.speaking {
		t.Error("reading without an engine should not start")
	}
	if !m.editor.statusIsError || m.editor.statusMessage == "" {
		t.Error("an error should be shown")
	}
}

func TestVolumeKeys(t *testing.T) {
	r, player := newTestReader(t)
	m, _ := loadedModel(t, r)

	// Volume keys are text while a caption field is focused.
	m = update(t, m, keyMsg("-"))
	if m.editor.volume != speech.DefaultVolume {
		t.Fatal("volume changed while typing")
	}

	m = update(t, m, keyMsg("tab"))
	m = update(t, m, keyMsg("tab"))
	if m.editor.focus != focusGenerate {
		t.Fatalf("focus = %v, want generate", m.editor.focus)
	}
	state := m.editor.ctrl.State()
	m = update(t, m, keyMsg("-"))
	m = update(t, m, keyMsg("-"))
	if m.editor.volume != 80 || r.Volume() != 80 || player.Volume() != 0.8 {
		t.Errorf("volume = %d, reader = %d, player = %v", m.editor.volume, r.Volume(), player.Volume())
	}
	if m.editor.ctrl.State() != state {
		t.Error("volume changes should not change the UI state")
	}
	assertControls(t, m, false)

	m = update(t, m, keyMsg("+"))
	if m.editor.volume != 90 {
		t.Errorf("volume = %d, want 90", m.editor.volume)
	}
}

func TestFocusSkipsDisabledControls(t *testing.T) {
	m, _ := loadedModel(t, nil)
	e := m.editor

	if got := e.nextFocus(focusBottom, 1); got != focusGenerate {
		t.Errorf("next after bottom = %v, want generate", got)
	}
	if got := e.nextFocus(focusGenerate, 1); got != focusTop {
		t.Errorf("next after generate = %v, want top", got)
	}
	if got := e.nextFocus(focusTop, -1); got != focusGenerate {
		t.Errorf("prev before top = %v, want generate", got)
	}

	m = update(t, m, keyMsg("ctrl+g"))
	if m.editor.focus != focusRead {
		t.Errorf("focus after generate = %v, want read", m.editor.focus)
	}
	if got := m.editor.nextFocus(focusBottom, 1); got != focusClear {
		t.Errorf("next after bottom = %v, want clear", got)
	}
}

func TestEnterMovesThroughForm(t *testing.T) {
	m, _ := loadedModel(t, nil)
	m = update(t, m, keyMsg("enter"))
	if m.editor.focus != focusBottom {
		t.Fatalf("focus = %v, want bottom", m.editor.focus)
	}
	m = update(t, m, keyMsg("enter"))
	assertControls(t, m, true)
}

func TestNewImageResetsForm(t *testing.T) {
	m, path := loadedModel(t, nil)
	m.editor.inputs[0].SetValue("top")
	m = update(t, m, keyMsg("ctrl+g"))

	// Reloading the same file keeps the text but wipes the drawn captions.
	m = update(t, m, loadImage(path)())
	assertControls(t, m, false)
	if m.editor.canvas.Captioned() {
		t.Error("reloading should wipe captions")
	}
	if top, _ := m.editor.captions(); top != "top" {
		t.Errorf("top = %q, want kept", top)
	}

	other := writePNG(t, filepath.Dir(path), "tall.png", 20, 60)
	m = update(t, m, loadImage(other)())
	if top, _ := m.editor.captions(); top != "" {
		t.Errorf("top = %q, want cleared for a new image", top)
	}
	if !m.editor.isCurrent(other) || m.editor.isCurrent(path) {
		t.Error("current image not updated")
	}
}

func TestBadImageShowsStatus(t *testing.T) {
	m, path := loadedModel(t, nil)
	bad := filepath.Join(filepath.Dir(path), "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, loadImage(bad)())
	if m.fatalErr != nil {
		t.Fatal("a bad image should not be fatal")
	}
	if !m.editor.statusIsError {
		t.Error("status should show the error")
	}
	if !m.editor.isCurrent(path) {
		t.Error("the previous image should stay loaded")
	}
}

func TestEscReturnsToPicker(t *testing.T) {
	m, _ := loadedModel(t, nil)
	m = update(t, m, keyMsg("esc"))
	if m.state != stateShowPicker {
		t.Errorf("state = %v, want picker", m.state)
	}
}

func TestQuitOnlyOutsideTextFields(t *testing.T) {
	m, _ := loadedModel(t, nil)
	next, _ := m.Update(keyMsg("q"))
	m = next.(model)
	if top, _ := m.editor.captions(); top != "q" {
		t.Errorf("top = %q, want the typed q", top)
	}

	m = update(t, m, keyMsg("tab"))
	m = update(t, m, keyMsg("tab"))
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Error("q should quit outside text fields")
	}
}

func TestEditorView(t *testing.T) {
	m, _ := loadedModel(t, nil)
	v := m.View()
	for _, want := range []string{"wide.png", "Generate", "Read Text", "Voice", "Volume"} {
		if !strings.Contains(v, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}
