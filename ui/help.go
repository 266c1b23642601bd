package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"
)

const helpMarkdown = `# memegen

Pick an image, type a top and a bottom caption, then **Generate**.

## Controls

| Key | Action |
|-----|--------|
| tab / shift+tab | move between fields and buttons |
| enter | next field, or press the focused button |
| ctrl+g | generate the meme |
| ctrl+x | clear captions |
| ctrl+r | read the captions aloud |
| ← / → | change voice (voice selector focused) |
| + / - | volume up / down |
| ctrl+y | copy the captions |
| esc | back to the image list |
| ? | toggle this help |
| q | quit |

Read Text and the voice selector become available once a meme has been
generated. Loading another image starts over.
`

// renderHelp renders the help screen with glamour.
func renderHelp(style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 20))}
	if _, ok := styles.DefaultStyles[style]; ok {
		opts = append(opts, glamour.WithStandardStyle(style))
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return "", fmt.Errorf("error rendering help: %w", err)
	}
	return out, nil
}

func (m editorModel) helpView() string {
	s, err := renderHelp(m.common.cfg.GlamourStyle, m.common.width)
	if err != nil {
		log.Error("unable to render help", "error", err)
		s = indent(helpMarkdown, 2)
	}

	// Fill up empty cells with spaces for background coloring
	if m.common.width > 0 {
		lines := strings.Split(s, "\n")
		for i := range lines {
			n := max(m.common.width-ansi.PrintableRuneWidth(lines[i]), 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}
	return helpViewStyle(s)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}

// shortenPath replaces the home directory prefix with ~.
func shortenPath(path, home string) string {
	if home == "" || !strings.HasPrefix(path, home) {
		return path
	}
	return "~" + strings.TrimPrefix(path, home)
}

