package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/canvas"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/dgnsrekt/memegen/internal/uistate"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
)

const (
	panelWidth     = 44
	minPreviewCols = 8
	// lines used by the header, status bar and key help
	editorChrome = 5
	// lines used by the controls panel when stacked under the preview
	panelHeight = 10
)

// focusTarget is an element of the editor in tab order.
type focusTarget int

const (
	focusTop focusTarget = iota
	focusBottom
	focusGenerate
	focusClear
	focusRead
	focusVoice
	focusCount
)

func (f focusTarget) control() (uistate.Control, bool) {
	switch f {
	case focusGenerate:
		return uistate.ControlGenerate, true
	case focusClear:
		return uistate.ControlClear, true
	case focusRead:
		return uistate.ControlRead, true
	case focusVoice:
		return uistate.ControlVoiceSelect, true
	default:
		return 0, false
	}
}

func (f focusTarget) isInput() bool {
	return f == focusTop || f == focusBottom
}

// buttonBar receives control updates from the uistate controller.
type buttonBar struct {
	enabled  uistate.Controls
	populate bool
}

func newButtonBar() *buttonBar {
	return &buttonBar{enabled: uistate.Controls{}}
}

func (b *buttonBar) SetEnabled(c uistate.Control, enabled bool) {
	b.enabled[c] = enabled
}

func (b *buttonBar) PopulateVoices() {
	b.populate = true
}

// takePopulate reports and resets a pending voice population request.
func (b *buttonBar) takePopulate() bool {
	p := b.populate
	b.populate = false
	return p
}

type editorModel struct {
	common   *commonModel
	keys     editorKeyMap
	help     help.Model
	showHelp bool

	canvas  *canvas.Canvas
	source  *canvas.Source
	preview string

	inputs [2]textinput.Model
	focus  focusTarget

	buttons *buttonBar
	ctrl    *uistate.Controller

	speaker       speaker
	voices        []speech.Voice
	voice         int
	voicesErr     error
	loadingVoices bool
	speaking      bool
	volume        speech.Volume
	spinner       spinner.Model

	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer

	watcher    *fsnotify.Watcher
	watchedDir string
}

func newEditorModel(common *commonModel, sp speaker) (editorModel, error) {
	cfg := common.cfg
	var opts []canvas.Option
	if cfg.CanvasWidth > 0 || cfg.CanvasHeight > 0 {
		opts = append(opts, canvas.WithSize(cfg.CanvasWidth, cfg.CanvasHeight))
	}
	opts = append(opts, canvas.WithFastScaling(cfg.FastScaling))
	c, err := canvas.New(opts...)
	if err != nil {
		return editorModel{}, fmt.Errorf("unable to create canvas: %w", err)
	}

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(fuchsia)

	m := editorModel{
		common:  common,
		keys:    newEditorKeyMap(),
		help:    help.New(),
		canvas:  c,
		buttons: newButtonBar(),
		speaker: sp,
		volume:  cfg.Volume,
		spinner: s,
	}
	m.ctrl = uistate.NewController(m.buttons)

	for i, placeholder := range []string{"Top text", "Bottom text"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = ""
		ti.CharLimit = 120
		ti.Cursor.Style = selectedStyle
		m.inputs[i] = ti
	}
	m.inputs[0].SetValue(cfg.TopText)
	m.inputs[1].SetValue(cfg.BottomText)
	m.inputs[0].Focus()

	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}

	m.render()
	return m, nil
}

func (m editorModel) enabled(c uistate.Control) bool {
	return m.buttons.enabled.Enabled(c)
}

func (m editorModel) inputFocused() bool {
	return m.focus.isInput()
}

func (m editorModel) captions() (top, bottom string) {
	return m.inputs[0].Value(), m.inputs[1].Value()
}

func (m editorModel) currentVoice() (speech.Voice, bool) {
	if m.voice < 0 || m.voice >= len(m.voices) {
		return speech.Voice{}, false
	}
	return m.voices[m.voice], true
}

func (m *editorModel) setSize(w, h int) {
	inputWidth := panelWidth - lipgloss.Width(labelStyle.Render("")) - 2
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}
	m.help.Width = w
	m.render()
}

// dispatch runs a UI action through the controller and turns a voice
// population request into a command.
func (m *editorModel) dispatch(a uistate.Action) tea.Cmd {
	m.ctrl.Dispatch(a)
	log.Debug("ui action", "action", a, "state", m.ctrl.State())

	if c, ok := m.focus.control(); ok && !m.enabled(c) {
		m.setFocus(m.nextFocus(m.focus, 1))
	}
	if !m.buttons.takePopulate() {
		return nil
	}
	m.loadingVoices = true
	m.voicesErr = nil
	return tea.Batch(populateVoices(m.speaker), m.spinner.Tick)
}

// setImage draws a newly loaded image. Picking a different image clears the
// form; reloading the same file keeps the typed captions.
func (m *editorModel) setImage(src *canvas.Source) tea.Cmd {
	if _, err := m.canvas.SetImage(src.Image); err != nil {
		return m.showStatusMessage(err.Error(), true)
	}
	if m.source != nil && m.source.Path != src.Path {
		m.resetForm()
	}
	m.source = src
	m.watch(src.Path)
	m.stopSpeaking()
	m.render()

	cmd := m.dispatch(uistate.ActionImageLoaded)
	m.setFocus(focusTop)
	return cmd
}

func (m *editorModel) generate() tea.Cmd {
	if !m.enabled(uistate.ControlGenerate) {
		return nil
	}
	top, bottom := m.captions()
	m.canvas.DrawCaptions(top, bottom)
	m.render()
	cmd := m.dispatch(uistate.ActionSubmit)
	m.setFocus(focusRead)
	return cmd
}

func (m *editorModel) clear() tea.Cmd {
	if !m.enabled(uistate.ControlClear) {
		return nil
	}
	m.canvas.ClearCaptions()
	m.resetForm()
	m.stopSpeaking()
	m.render()
	cmd := m.dispatch(uistate.ActionClear)
	m.setFocus(focusTop)
	return cmd
}

func (m *editorModel) read() tea.Cmd {
	if !m.enabled(uistate.ControlRead) {
		return nil
	}
	if m.speaker == nil {
		return m.showStatusMessage(speech.ErrNoEngineConfigured.Error(), true)
	}
	text := speech.ReadText(m.captions())
	if text == "" {
		return m.showStatusMessage("Nothing to read", true)
	}
	voice, _ := m.currentVoice()
	m.speaking = true
	log.Info("reading captions", "voice", voice.ID, "length", len(text))
	return tea.Batch(m.spinner.Tick, speak(m.speaker, text, voice))
}

func (m *editorModel) stopSpeaking() {
	if m.speaker == nil || !m.speaking {
		return
	}
	if err := m.speaker.Stop(); err != nil {
		log.Debug("unable to stop speech", "error", err)
	}
	m.speaking = false
}

func (m *editorModel) changeVolume(v speech.Volume) tea.Cmd {
	if v == m.volume {
		return nil
	}
	m.volume = v
	cmd := m.dispatch(uistate.ActionVolumeChanged)
	if m.speaker != nil {
		if err := m.speaker.SetVolume(v); err != nil {
			return m.showStatusMessage(err.Error(), true)
		}
	}
	return cmd
}

func (m *editorModel) cycleVoice(delta int) {
	if !m.enabled(uistate.ControlVoiceSelect) || len(m.voices) == 0 {
		return
	}
	m.voice = (m.voice + delta + len(m.voices)) % len(m.voices)
}

func (m *editorModel) setVoices(voices []speech.Voice, err error) {
	m.loadingVoices = false
	m.voicesErr = err
	if err != nil {
		log.Warn("unable to list voices", "error", err)
		return
	}
	m.voices = voices
	m.voice = 0
	if v, ok := speech.SelectVoice(voices, m.common.cfg.Voice, m.common.cfg.Language); ok {
		for i := range voices {
			if voices[i].ID == v.ID {
				m.voice = i
				break
			}
		}
	}
	log.Debug("voices populated", "count", len(voices))
}

func (m *editorModel) resetForm() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
}

// copyCaptions copies the captions via OSC 52 and the system clipboard.
func (m *editorModel) copyCaptions() tea.Cmd {
	text := speech.ReadText(m.captions())
	if text == "" {
		return m.showStatusMessage("Nothing to copy", true)
	}
	termenv.Copy(text)
	_ = clipboard.WriteAll(text)
	return m.showStatusMessage("Copied captions", false)
}

// nextFocus returns the next focus target in direction dir that can take
// focus. Disabled controls are skipped; the inputs always accept focus.
func (m editorModel) nextFocus(from focusTarget, dir int) focusTarget {
	f := from
	for i := focusTarget(0); i < focusCount; i++ {
		f = (f + focusTarget(dir) + focusCount) % focusCount
		if c, ok := f.control(); !ok || m.enabled(c) {
			return f
		}
	}
	return focusTop
}

func (m *editorModel) setFocus(f focusTarget) {
	m.focus = f
	for i := range m.inputs {
		if focusTarget(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *editorModel) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func (m *editorModel) watch(path string) {
	if m.watcher == nil {
		return
	}
	dir := filepath.Dir(path)
	if dir == m.watchedDir {
		return
	}
	m.unwatch()
	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return
	}
	m.watchedDir = dir
	log.Info("fsnotify watching dir", "dir", dir)
}

func (m *editorModel) unwatch() {
	if m.watcher == nil || m.watchedDir == "" {
		return
	}
	if err := m.watcher.Remove(m.watchedDir); err != nil {
		log.Error("fsnotify fail to unwatch dir", "dir", m.watchedDir, "error", err)
	} else {
		log.Debug("fsnotify dir unwatched", "dir", m.watchedDir)
	}
	m.watchedDir = ""
}

// isCurrent reports whether path is the loaded image.
func (m editorModel) isCurrent(path string) bool {
	return m.source != nil && filepath.Clean(path) == filepath.Clean(m.source.Path)
}

func (m editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.showHelp = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Generate):
			return m, m.generate()
		case key.Matches(msg, m.keys.Clear):
			return m, m.clear()
		case key.Matches(msg, m.keys.Read):
			return m, m.read()
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyCaptions()
		case key.Matches(msg, m.keys.Next):
			m.setFocus(m.nextFocus(m.focus, 1))
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.setFocus(m.nextFocus(m.focus, -1))
			return m, nil
		case key.Matches(msg, m.keys.Press):
			return m, m.press()
		}

		if m.inputFocused() {
			var cmd tea.Cmd
			i := int(m.focus)
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		case key.Matches(msg, m.keys.VolumeUp):
			cmds = append(cmds, m.changeVolume(m.volume.Up()))
		case key.Matches(msg, m.keys.VolumeDown):
			cmds = append(cmds, m.changeVolume(m.volume.Down()))
		case key.Matches(msg, m.keys.PrevVoice):
			if m.focus == focusVoice {
				m.cycleVoice(-1)
			} else {
				m.setFocus(m.nextFocus(m.focus, -1))
			}
		case key.Matches(msg, m.keys.NextVoice):
			if m.focus == focusVoice {
				m.cycleVoice(1)
			} else {
				m.setFocus(m.nextFocus(m.focus, 1))
			}
		}

	case voicesMsg:
		m.setVoices(msg.voices, msg.err)
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage("Voices unavailable: "+msg.err.Error(), true))
		}

	case speakMsg:
		if msg.err != nil {
			m.speaking = false
			cmds = append(cmds, m.showStatusMessage(msg.err.Error(), true))
		} else {
			cmds = append(cmds, pollPlayback())
		}

	case playbackTickMsg:
		if m.speaking {
			if m.speaker != nil && m.speaker.IsSpeaking() {
				cmds = append(cmds, pollPlayback())
			} else {
				m.speaking = false
			}
		}

	case spinner.TickMsg:
		if m.loadingVoices || m.speaking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		m.statusIsError = false

	default:
		if m.inputFocused() {
			var cmd tea.Cmd
			i := int(m.focus)
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// press activates the focused element.
func (m *editorModel) press() tea.Cmd {
	switch m.focus {
	case focusTop:
		m.setFocus(focusBottom)
	case focusBottom:
		return m.generate()
	case focusGenerate:
		return m.generate()
	case focusClear:
		return m.clear()
	case focusRead:
		return m.read()
	case focusVoice:
		m.cycleVoice(1)
	}
	return nil
}

// previewCols returns the width of the canvas preview in columns.
func (m editorModel) previewCols() int {
	cfg := m.common.cfg
	if cfg.PreviewWidth > 0 {
		return cfg.PreviewWidth
	}
	w, h := m.common.width, m.common.height
	if w <= 0 || h <= 0 {
		return 40
	}

	box := m.canvas.Box()
	rows := h - editorChrome
	cols := w - 4
	if m.sideBySide() {
		cols = w - panelWidth - 4
	} else {
		rows -= panelHeight
	}
	byHeight := int(float64(rows*2) * box.Width / box.Height)
	return max(min(cols, byHeight), minPreviewCols)
}

func (m editorModel) sideBySide() bool {
	return m.common.width >= 80
}

// render refreshes the cached terminal rendering of the canvas.
func (m *editorModel) render() {
	m.preview = canvas.RenderHalfBlocks(m.canvas.Image(), m.previewCols(), lipgloss.ColorProfile())
}

func (m editorModel) view() string {
	if m.showHelp {
		return m.helpView()
	}

	var b strings.Builder
	name := "no image"
	if m.source != nil {
		name = m.source.Name
	}
	fmt.Fprintf(&b, "\n  %s %s\n", logoView(), dimStyle.Render(name))

	preview := lipgloss.NewStyle().Padding(0, 2).Render(m.preview)
	if m.sideBySide() {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, preview, m.panelView()))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, preview, m.panelView()))
	}
	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	b.WriteString("\n  " + m.help.View(m.keys))
	return b.String()
}

func (m editorModel) panelView() string {
	var rows []string

	for i, label := range []string{"Top", "Bottom"} {
		ls := labelStyle
		if m.focus == focusTarget(i) {
			ls = focusedLabelStyle
		}
		rows = append(rows, ls.Render(label)+m.inputs[i].View())
	}
	rows = append(rows, "")

	var buttons []string
	for _, b := range []struct {
		label string
		focus focusTarget
	}{
		{"Generate", focusGenerate},
		{"Clear", focusClear},
		{"Read Text", focusRead},
	} {
		buttons = append(buttons, m.buttonView(b.label, b.focus))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, buttons...), "")
	rows = append(rows, m.voiceView(), m.volumeView())

	return lipgloss.NewStyle().Width(panelWidth).PaddingTop(1).Render(strings.Join(rows, "\n"))
}

func (m editorModel) buttonView(label string, f focusTarget) string {
	c, _ := f.control()
	switch {
	case !m.enabled(c):
		return disabledButtonStyle.Render(label)
	case m.focus == f:
		return focusedButtonStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

func (m editorModel) voiceView() string {
	ls := labelStyle
	if m.focus == focusVoice {
		ls = focusedLabelStyle
	}

	var v string
	switch {
	case m.loadingVoices:
		v = m.spinner.View() + " loading voices"
	case m.voicesErr != nil:
		v = subtleStyle.Render("unavailable")
	case len(m.voices) == 0:
		v = subtleStyle.Render("none")
	default:
		voice, _ := m.currentVoice()
		name := runewidth.Truncate(voice.String(), panelWidth-14, ellipsis)
		v = fmt.Sprintf("‹ %s ›", name)
	}
	if !m.enabled(uistate.ControlVoiceSelect) {
		v = disabledStyle(v)
	} else if m.focus == focusVoice {
		v = selectedStyle.Render(v)
	}
	return ls.Render("Voice") + v
}

func disabledStyle(s string) string {
	return lipgloss.NewStyle().Foreground(midGray).Render(s)
}

func (m editorModel) volumeView() string {
	const steps = 10
	filled := int(m.volume) * steps / int(speech.MaxVolume)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", steps-filled)
	return labelStyle.Render("Volume") + fmt.Sprintf("%s %s %3d", m.volume.Icon(), bar, m.volume)
}

func (m editorModel) statusBarView() string {
	logo := logoView()
	vol := statusBarVolumeStyle(fmt.Sprintf(" %s %d ", m.volume.Icon(), m.volume))

	var note string
	switch {
	case m.statusMessage != "":
		note = m.statusMessage
	case m.speaking:
		note = m.spinner.View() + " Reading…"
	case m.source != nil:
		note = fmt.Sprintf("%s · %dx%d %s", m.source.Name,
			m.source.Image.Bounds().Dx(), m.source.Image.Bounds().Dy(), m.source.Format)
	default:
		note = "Pick an image to start"
	}
	note = " " + m.ctrl.State().String() + " · " + note + " "

	width := max(0, m.common.width-ansi.PrintableRuneWidth(logo)-ansi.PrintableRuneWidth(vol))
	note = truncate.StringWithTail(note, uint(width), ellipsis) //nolint:gosec
	padding := strings.Repeat(" ", max(0, width-ansi.PrintableRuneWidth(note)))

	style := statusBarNoteStyle
	switch {
	case m.statusMessage != "" && m.statusIsError:
		style = statusBarErrorStyle
	case m.statusMessage != "":
		style = statusBarMessageStyle
	}
	return logo + style(note+padding) + vol
}
