// Package ui provides the interactive meme editor.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/canvas"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
)

// NewProgram returns a new Tea program. reader may be nil, in which case
// reading captions aloud is unavailable.
func NewProgram(cfg Config, reader *speech.Reader) *tea.Program {
	log.Debug("Starting memegen", "path", cfg.Path, "speech", reader != nil)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	var sp speaker
	if reader != nil {
		sp = reader
	}
	return tea.NewProgram(newModel(cfg, sp), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	initLocalFileSearchMsg struct {
		cwd string
		ch  chan gitcha.SearchResult
	}
	foundLocalFileMsg       gitcha.SearchResult
	localFileSearchFinished struct{}
	statusMessageTimeoutMsg struct{}
	imageLoadedMsg          struct{ src *canvas.Source }
	fileChangedMsg          struct{ path string }
)

// state is the top-level application state.
type state int

const (
	stateShowPicker state = iota
	stateShowEditor
)

func (s state) String() string {
	return map[state]string{
		stateShowPicker: "showing image listing",
		stateShowEditor: "showing editor",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	cwd    string
	width  int
	height int
}

func (c commonModel) cwdNote() string {
	return shortenPath(c.cwd, c.cfg.HomeDir)
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Sub-models
	picker pickerModel
	editor editorModel

	// Channel that receives paths to local images
	// (via the github.com/muesli/gitcha package)
	localFileFinder chan gitcha.SearchResult
}

func newModel(cfg Config, sp speaker) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	common := &commonModel{cfg: cfg}
	m := model{
		common: common,
		state:  stateShowPicker,
		picker: newPickerModel(common),
	}

	editor, err := newEditorModel(common, sp)
	if err != nil {
		m.fatalErr = err
		return m
	}
	m.editor = editor

	path := cfg.Path
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Error("unable to stat file", "file", path, "error", err)
		m.fatalErr = err
		return m
	}
	if info.IsDir() {
		common.cwd = path
	} else {
		common.cwd = filepath.Dir(path)
		m.state = stateShowEditor
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.fatalErr != nil {
		return nil
	}
	cmds := []tea.Cmd{m.picker.spinner.Tick, findLocalFiles(*m.common)}
	if m.state == stateShowEditor {
		cmds = append(cmds, loadImage(m.common.cfg.Path))
	}
	if m.editor.watcher != nil {
		cmds = append(cmds, waitForFileChange(m.editor.watcher))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			return m, m.quit()

		case "ctrl+z":
			return m, tea.Suspend

		case "q":
			if m.capturingText() {
				break
			}
			return m, m.quit()

		case "esc":
			if m.state == stateShowEditor && !m.editor.showHelp {
				m.editor.stopSpeaking()
				m.state = stateShowPicker
				return m, nil
			}

		case "r":
			if m.state == stateShowPicker && m.picker.filterState != filtering {
				m.picker.reset()
				return m, tea.Batch(m.picker.spinner.Tick, findLocalFiles(*m.common))
			}
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.editor.setSize(msg.Width, msg.Height)
		m.picker.scroll()

	case errMsg:
		switch {
		case m.state == stateShowEditor:
			return m, m.editor.showStatusMessage(msg.Error(), true)
		case m.localFileFinder != nil:
			m.picker.err = msg.err
		default:
			m.fatalErr = msg.err
		}
		return m, nil

	case initLocalFileSearchMsg:
		m.localFileFinder = msg.ch
		m.common.cwd = msg.cwd
		cmds = append(cmds, findNextLocalFile(m))

	case foundLocalFileMsg:
		m.picker.addImages(localFileToImage(m.common.cwd, gitcha.SearchResult(msg)))
		cmds = append(cmds, findNextLocalFile(m))

	case localFileSearchFinished:
		// Always pass these to the picker so it stops spinning, even if the
		// user isn't currently viewing it.
		var cmd tea.Cmd
		m.picker, cmd = m.picker.update(msg)
		return m, cmd

	case imageLoadedMsg:
		log.Debug("image loaded", "path", msg.src.Path, "format", msg.src.Format)
		m.state = stateShowEditor
		return m, m.editor.setImage(msg.src)

	case fileChangedMsg:
		cmds = append(cmds, waitForFileChange(m.editor.watcher))
		if m.editor.isCurrent(msg.path) {
			log.Debug("reloading image", "path", msg.path)
			cmds = append(cmds, loadImage(msg.path))
		}
		return m, tea.Batch(cmds...)

	case voicesMsg, speakMsg, playbackTickMsg, statusMessageTimeoutMsg:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.update(msg)
		return m, cmd
	}

	switch m.state {
	case stateShowPicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.update(msg)
		cmds = append(cmds, cmd)
	case stateShowEditor:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// capturingText reports whether key presses are going into a text field.
func (m model) capturingText() bool {
	switch m.state {
	case stateShowPicker:
		return m.picker.filterState == filtering
	default:
		return m.editor.inputFocused() && !m.editor.showHelp
	}
}

func (m model) quit() tea.Cmd {
	m.editor.stopSpeaking()
	m.editor.unwatch()
	return tea.Quit
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state {
	case stateShowEditor:
		return m.editor.view()
	default:
		return m.picker.view()
	}
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

// imagePatterns returns glob patterns for the image extensions gitcha
// should look for, in lower and upper case.
func imagePatterns() []string {
	patterns := make([]string, 0, 2*len(canvas.Extensions))
	for _, ext := range canvas.Extensions {
		patterns = append(patterns, "*"+ext, "*"+strings.ToUpper(ext))
	}
	return patterns
}

func ignorePatterns() []string {
	return []string{"node_modules", ".*"}
}

func findLocalFiles(m commonModel) tea.Cmd {
	return func() tea.Msg {
		log.Info("findLocalFiles")
		cwd := m.cwd
		if cwd == "" {
			cwd = "."
		}
		cwd, err := filepath.Abs(cwd)
		if err != nil {
			log.Error("error finding local files", "error", err)
			return errMsg{err}
		}

		log.Debug("local directory is", "cwd", cwd)

		// Switch between FindFiles and FindAllFiles to bypass .gitignore rules
		var ch chan gitcha.SearchResult
		if m.cfg.ShowAllFiles {
			ch, err = gitcha.FindAllFilesExcept(cwd, imagePatterns(), nil)
		} else {
			ch, err = gitcha.FindFilesExcept(cwd, imagePatterns(), ignorePatterns())
		}
		if err != nil {
			log.Error("error finding local files", "error", err)
			return errMsg{err}
		}

		return initLocalFileSearchMsg{ch: ch, cwd: cwd}
	}
}

func findNextLocalFile(m model) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.localFileFinder

		if ok {
			// Okay now find the next one
			return foundLocalFileMsg(res)
		}
		// We're done
		log.Debug("local file search finished")
		return localFileSearchFinished{}
	}
}

func loadImage(path string) tea.Cmd {
	return func() tea.Msg {
		src, err := canvas.Load(path)
		if err != nil {
			log.Error("unable to load image", "path", path, "error", err)
			return errMsg{err}
		}
		return imageLoadedMsg{src}
	}
}

// waitForFileChange blocks until a file in a watched directory is written
// or created.
func waitForFileChange(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				return fileChangedMsg{path: event.Name}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "error", err)
			}
		}
	}
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
