// Package device is the boundary between the render graph and the graphics
// API. The graph only ever talks to a Device: transitions between nodes are
// played as Apply/Revert calls and passes submit their work as draw
// commands.
package device

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/rendergraph/internal/statechange"
)

// Device executes state changes and draw commands.
type Device interface {
	Apply(sc statechange.StateChange) error
	Revert(sc statechange.StateChange) error
	Draw(cmd DrawCommand) error
}

// DrawCommand is one unit of GPU work submitted by a pass.
type DrawCommand struct {
	Node   string
	Op     string
	Target string
	// Sources are the resources the draw samples from, in binding order.
	Sources []string
	Params  map[string]float64
}

func (c DrawCommand) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.Node, c.Op)
	if c.Target != "" {
		fmt.Fprintf(&b, " -> %s", c.Target)
	}
	if len(c.Sources) > 0 {
		fmt.Fprintf(&b, " <- [%s]", strings.Join(c.Sources, ", "))
	}
	return b.String()
}

// Op identifies a recorded device call.
type Op int

const (
	OpApply Op = iota
	OpRevert
	OpDraw
)

func (o Op) String() string {
	switch o {
	case OpApply:
		return "apply"
	case OpRevert:
		return "revert"
	case OpDraw:
		return "draw"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Command is a recorded device call.
type Command struct {
	Op     Op
	Change statechange.StateChange
	Draw   DrawCommand
}

func (c Command) String() string {
	if c.Op == OpDraw {
		return "draw " + c.Draw.String()
	}
	return c.Op.String() + " " + c.Change.String()
}

// Recorder is a Device that logs and records every call and tracks the
// resulting GPU state. It stands in for a real graphics backend.
type Recorder struct {
	logger   *slog.Logger
	commands []Command
	state    *statechange.Set
}

// NewRecorder creates a recorder logging through logger at debug level.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger, state: statechange.NewSet()}
}

func (r *Recorder) Apply(sc statechange.StateChange) error {
	if !r.state.Add(sc) {
		return fmt.Errorf("state change %s is already active", sc)
	}
	r.commands = append(r.commands, Command{Op: OpApply, Change: sc})
	r.logger.Debug("Applied state change.", "change", sc.String())
	return nil
}

func (r *Recorder) Revert(sc statechange.StateChange) error {
	if !r.state.Remove(sc) {
		return fmt.Errorf("state change %s is not active", sc)
	}
	r.commands = append(r.commands, Command{Op: OpRevert, Change: sc})
	r.logger.Debug("Reverted state change.", "change", sc.String())
	return nil
}

func (r *Recorder) Draw(cmd DrawCommand) error {
	r.commands = append(r.commands, Command{Op: OpDraw, Draw: cmd})
	r.logger.Debug("Draw.", "command", cmd.String())
	return nil
}

// Commands returns the calls recorded since the last Reset.
func (r *Recorder) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Draws returns only the recorded draw commands.
func (r *Recorder) Draws() []DrawCommand {
	var out []DrawCommand
	for _, c := range r.commands {
		if c.Op == OpDraw {
			out = append(out, c.Draw)
		}
	}
	return out
}

// State returns the state changes currently in effect.
func (r *Recorder) State() *statechange.Set {
	return r.state.Clone()
}

// Reset forgets recorded commands. The tracked state is kept.
func (r *Recorder) Reset() {
	r.commands = nil
}
