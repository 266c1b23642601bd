package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/gitcha"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
)

// pickerChrome is the number of lines around the list.
const pickerChrome = 6

// imageFile is an image found on disk.
type imageFile struct {
	path    string
	note    string // path relative to the search root
	size    int64
	modtime time.Time

	matched []int // rune indexes matched by the filter
}

func localFileToImage(cwd string, res gitcha.SearchResult) *imageFile {
	return &imageFile{
		path:    res.Path,
		note:    stripAbsolutePath(res.Path, cwd),
		size:    res.Info.Size(),
		modtime: res.Info.ModTime(),
	}
}

type filterState int

const (
	unfiltered filterState = iota
	filtering
	filterApplied
)

type pickerModel struct {
	common *commonModel
	keys   pickerKeyMap
	help   help.Model

	spinner     spinner.Model
	loaded      bool
	err         error
	filterInput textinput.Model
	filterState filterState

	images   []*imageFile
	filtered []*imageFile
	cursor   int
	offset   int
}

func newPickerModel(common *commonModel) pickerModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Line))
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.PromptStyle = selectedStyle
	ti.Cursor.Style = selectedStyle
	ti.CharLimit = 256

	return pickerModel{
		common:      common,
		keys:        newPickerKeyMap(),
		help:        help.New(),
		spinner:     sp,
		filterInput: ti,
	}
}

func (m *pickerModel) reset() {
	m.images = nil
	m.filtered = nil
	m.cursor, m.offset = 0, 0
	m.loaded = false
}

func (m *pickerModel) addImages(imgs ...*imageFile) {
	m.images = append(m.images, imgs...)
	sort.SliceStable(m.images, func(i, j int) bool {
		return m.images[i].note < m.images[j].note
	})
	m.applyFilter()
}

// applyFilter recomputes the visible list. With an empty filter every image
// is shown in name order, otherwise fuzzy matches in score order.
func (m *pickerModel) applyFilter() {
	term := strings.TrimSpace(m.filterInput.Value())
	if term == "" || m.filterState == unfiltered {
		m.filtered = m.images
		for _, img := range m.images {
			img.matched = nil
		}
	} else {
		notes := make([]string, len(m.images))
		for i, img := range m.images {
			notes[i] = img.note
		}
		matches := fuzzy.Find(term, notes)
		m.filtered = make([]*imageFile, 0, len(matches))
		for _, match := range matches {
			img := m.images[match.Index]
			img.matched = match.MatchedIndexes
			m.filtered = append(m.filtered, img)
		}
	}
	m.cursor = min(m.cursor, max(len(m.filtered)-1, 0))
	m.scroll()
}

func (m pickerModel) selected() *imageFile {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

func (m pickerModel) perPage() int {
	return max(m.common.height-pickerChrome, 1)
}

func (m *pickerModel) scroll() {
	n := m.perPage()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
}

func (m pickerModel) update(msg tea.Msg) (pickerModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case localFileSearchFinished:
		m.loaded = true

	case spinner.TickMsg:
		if !m.loaded {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		m.err = nil
		if m.filterState == filtering {
			switch msg.String() {
			case "enter", "tab":
				m.filterInput.Blur()
				m.filterState = filterApplied
				if strings.TrimSpace(m.filterInput.Value()) == "" {
					m.filterState = unfiltered
				}
				m.applyFilter()
				return m, nil
			case "esc":
				m.resetFilter()
				return m, nil
			case "up", "down", "ctrl+p", "ctrl+n":
				// fall through to navigation
			default:
				var cmd tea.Cmd
				m.filterInput, cmd = m.filterInput.Update(msg)
				m.cursor = 0
				m.applyFilter()
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			} else if len(m.filtered) > 0 {
				m.cursor = len(m.filtered) - 1
			}
			m.scroll()
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			} else {
				m.cursor = 0
			}
			m.scroll()
		case key.Matches(msg, m.keys.Filter):
			m.filterState = filtering
			m.filterInput.CursorEnd()
			cmds = append(cmds, m.filterInput.Focus())
		case key.Matches(msg, m.keys.Reset):
			if m.filterState != unfiltered {
				m.resetFilter()
			}
		case key.Matches(msg, m.keys.Open):
			if img := m.selected(); img != nil {
				cmds = append(cmds, loadImage(img.path))
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *pickerModel) resetFilter() {
	m.filterInput.Blur()
	m.filterInput.Reset()
	m.filterState = unfiltered
	m.applyFilter()
}

func (m pickerModel) view() string {
	var b strings.Builder

	header := logoView() + " " + dimStyle.Render(m.common.cwdNote())
	if !m.loaded {
		header += " " + m.spinner.View()
	}
	fmt.Fprintf(&b, "\n  %s\n\n", header)

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "  %s\n", statusBarErrorStyle(" "+m.err.Error()+" "))
	case m.filterState == filtering || m.filterState == filterApplied:
		fmt.Fprintf(&b, "  %s\n", m.filterInput.View())
	default:
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(m.countNote()))
	}

	n := m.perPage()
	end := min(m.offset+n, len(m.filtered))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.itemView(m.filtered[i], i == m.cursor))
		b.WriteByte('\n')
	}
	if len(m.filtered) == 0 && m.loaded {
		b.WriteString("  " + subtleStyle.Render("No images found.") + "\n")
	}
	for i := end - m.offset; i < n; i++ {
		b.WriteByte('\n')
	}

	m.help.Width = m.common.width
	b.WriteString("  " + m.help.View(m.keys))
	return b.String()
}

func (m pickerModel) countNote() string {
	switch len(m.images) {
	case 0:
		return "Looking for images..."
	case 1:
		return "1 image"
	default:
		return fmt.Sprintf("%d images", len(m.images))
	}
}

func (m pickerModel) itemView(img *imageFile, selected bool) string {
	meta := fmt.Sprintf("%s  %s", humanize.Bytes(uint64(max(img.size, 0))), humanize.Time(img.modtime)) //nolint:gosec
	width := max(m.common.width-lipgloss.Width(meta)-8, 8)
	note := truncate.StringWithTail(img.note, uint(width), ellipsis) //nolint:gosec

	gutter := "  "
	if selected {
		gutter = selectedStyle.Render("│ ")
	}
	return "  " + gutter + highlightMatches(note, img.matched, selected) + "  " + dimStyle.Render(meta)
}

// highlightMatches styles the runes at the given indexes.
func highlightMatches(s string, matched []int, selected bool) string {
	base := lipgloss.NewStyle()
	if selected {
		base = selectedStyle
	}
	if len(matched) == 0 {
		return base.Render(s)
	}
	return lipgloss.StyleRunes(s, matched, matchStyle, base)
}

func stripAbsolutePath(fullPath, cwd string) string {
	fp, _ := filepath.EvalSymlinks(fullPath)
	cp, _ := filepath.EvalSymlinks(cwd)
	return strings.ReplaceAll(fp, cp+string(os.PathSeparator), "")
}
