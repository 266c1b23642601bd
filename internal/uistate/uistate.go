// Package uistate holds the two-state toggle that gates the meme editor's
// controls. Idle means no caption has been committed; Generated means one
// has. Actions are dispatched against an explicit State and produce the next
// State plus the commands the UI layer must carry out.
package uistate

// Control names one of the gated controls.
type Control int

const (
	// ControlGenerate commits the captions.
	ControlGenerate Control = iota
	// ControlClear removes committed captions.
	ControlClear
	// ControlRead reads committed captions aloud.
	ControlRead
	// ControlVoiceSelect picks the speech voice.
	ControlVoiceSelect
)

// AllControls lists every gated control in display order.
var AllControls = []Control{ControlGenerate, ControlClear, ControlRead, ControlVoiceSelect}

func (c Control) String() string {
	switch c {
	case ControlGenerate:
		return "generate"
	case ControlClear:
		return "clear"
	case ControlRead:
		return "read"
	case ControlVoiceSelect:
		return "voice-select"
	default:
		return "unknown"
	}
}

// Controls is an enablement set keyed by control.
type Controls map[Control]bool

// Enabled reports whether c is enabled. Unknown controls are disabled.
func (cs Controls) Enabled(c Control) bool {
	return cs[c]
}

// SetGenerated returns the enablement set for the given generation status.
// When generated, Generate is disabled and the other controls are enabled;
// otherwise the reverse.
func SetGenerated(generated bool) Controls {
	return Controls{
		ControlGenerate:    !generated,
		ControlClear:       generated,
		ControlRead:        generated,
		ControlVoiceSelect: generated,
	}
}

// State is the UI state threaded through the dispatcher.
type State struct {
	Generated bool
}

// Idle is the initial state.
var Idle = State{}

func (s State) String() string {
	if s.Generated {
		return "generated"
	}
	return "idle"
}

// Action is a discrete UI event.
type Action int

const (
	// ActionImageLoaded fires once a new source image has been decoded.
	ActionImageLoaded Action = iota
	// ActionSubmit fires when the captions are committed.
	ActionSubmit
	// ActionClear fires when the captions are removed.
	ActionClear
	// ActionVolumeChanged fires when the volume is adjusted.
	ActionVolumeChanged
)

func (a Action) String() string {
	switch a {
	case ActionImageLoaded:
		return "image-loaded"
	case ActionSubmit:
		return "submit"
	case ActionClear:
		return "clear"
	case ActionVolumeChanged:
		return "volume-changed"
	default:
		return "unknown"
	}
}

// Command is a side effect requested by Dispatch.
type Command interface {
	isCommand()
}

// SetEnabled asks the UI to enable or disable a control.
type SetEnabled struct {
	Control Control
	Enabled bool
}

// PopulateVoices asks the UI to fill the voice selector.
type PopulateVoices struct{}

func (SetEnabled) isCommand()     {}
func (PopulateVoices) isCommand() {}

// Dispatch applies a to s. ImageLoaded and Clear move to Idle, Submit moves
// to Generated, and VolumeChanged leaves the state alone without commands.
// PopulateVoices is emitted only on an Idle to Generated transition.
func Dispatch(s State, a Action) (State, []Command) {
	var next State
	switch a {
	case ActionImageLoaded, ActionClear:
		next = State{Generated: false}
	case ActionSubmit:
		next = State{Generated: true}
	default:
		return s, nil
	}

	cmds := enableCommands(next.Generated)
	if !s.Generated && next.Generated {
		cmds = append(cmds, PopulateVoices{})
	}
	return next, cmds
}

func enableCommands(generated bool) []Command {
	controls := SetGenerated(generated)
	cmds := make([]Command, 0, len(AllControls)+1)
	for _, c := range AllControls {
		cmds = append(cmds, SetEnabled{Control: c, Enabled: controls[c]})
	}
	return cmds
}
