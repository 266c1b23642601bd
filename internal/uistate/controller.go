package uistate

// Sink carries out the commands produced by Dispatch.
type Sink interface {
	SetEnabled(c Control, enabled bool)
	PopulateVoices()
}

// Controller keeps the current State and forwards dispatch results to a
// Sink. It is not safe for concurrent use; callers run it from a single
// event loop.
type Controller struct {
	state State
	sink  Sink
}

// NewController returns a Controller in the Idle state. The sink is brought
// in line with Idle immediately.
func NewController(sink Sink) *Controller {
	c := &Controller{sink: sink}
	c.SetGenerated(false)
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Generated reports whether captions are committed.
func (c *Controller) Generated() bool {
	return c.state.Generated
}

// Dispatch applies an action and runs the resulting commands.
func (c *Controller) Dispatch(a Action) State {
	next, cmds := Dispatch(c.state, a)
	c.state = next
	c.run(cmds)
	return next
}

// SetGenerated forces the generation status and re-applies the control
// enablement. Voices are populated only when entering Generated.
func (c *Controller) SetGenerated(generated bool) {
	cmds := enableCommands(generated)
	if generated && !c.state.Generated {
		cmds = append(cmds, PopulateVoices{})
	}
	c.state = State{Generated: generated}
	c.run(cmds)
}

func (c *Controller) run(cmds []Command) {
	if c.sink == nil {
		return
	}
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case SetEnabled:
			c.sink.SetEnabled(cmd.Control, cmd.Enabled)
		case PopulateVoices:
			c.sink.PopulateVoices()
		}
	}
}
