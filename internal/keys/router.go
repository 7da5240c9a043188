// Package keys routes key presses through a prioritised handler chain. The
// mounted page owns one Router; the first active layer that claims a key
// wins, so a focused text input never leaks keystrokes to shortcuts and
// media controls shadow list movement while a track is open.
package keys

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Action int

const (
	None Action = iota
	Type        // forward to the focused text input
	Submit
	Cancel

	TogglePlay
	ToggleMute
	VolumeUp
	VolumeDown

	Prev
	Next
	ToggleRun
	OpenBrowser
	Close

	CursorUp
	CursorDown
	OpenFile
	CycleFilter
	Search
	Import
	Quit
)

var actionNames = map[Action]string{
	None: "none", Type: "type", Submit: "submit", Cancel: "cancel",
	TogglePlay: "play", ToggleMute: "mute", VolumeUp: "volume-up", VolumeDown: "volume-down",
	Prev: "prev", Next: "next", ToggleRun: "run", OpenBrowser: "browser", Close: "close",
	CursorUp: "up", CursorDown: "down", OpenFile: "open", CycleFilter: "filter",
	Search: "search", Import: "import", Quit: "quit",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Context describes what the page currently shows.
type Context struct {
	Typing bool // a text input has focus
	Media  bool // the viewer has a playback sub-state
	Viewer bool // the viewer is open
}

// Binding pairs a key binding with the action it triggers.
type Binding struct {
	Key    key.Binding
	Action Action
}

// Layer is one handler in the chain.
type Layer struct {
	Name     string
	Active   func(Context) bool
	Bindings []Binding
	// Capture claims every key the layer does not bind, as Type.
	Capture bool
}

func (l Layer) handle(msg tea.KeyMsg) (Action, bool) {
	for _, b := range l.Bindings {
		if b.Key.Enabled() && key.Matches(msg, b.Key) {
			return b.Action, true
		}
	}
	if l.Capture {
		return Type, true
	}
	return None, false
}

// Router holds the layers in priority order.
type Router struct {
	layers []Layer
}

func NewRouter(layers ...Layer) *Router {
	return &Router{layers: layers}
}

// Route returns the action of the first active layer that claims msg, and
// the layer's name. Unclaimed keys yield None.
func (r *Router) Route(ctx Context, msg tea.KeyMsg) (Action, string) {
	for _, l := range r.layers {
		if l.Active != nil && !l.Active(ctx) {
			continue
		}
		if a, ok := l.handle(msg); ok {
			return a, l.Name
		}
	}
	return None, ""
}

// Hints lists the bindings reachable in ctx, in priority order. A key
// shadowed by a higher layer is listed once.
func (r *Router) Hints(ctx Context) []key.Binding {
	var out []key.Binding
	seen := map[string]bool{}
	for _, l := range r.layers {
		if l.Active != nil && !l.Active(ctx) {
			continue
		}
		for _, b := range l.Bindings {
			h := b.Key.Help()
			if !b.Key.Enabled() || h.Key == "" || seen[h.Key] {
				continue
			}
			seen[h.Key] = true
			out = append(out, b.Key)
		}
		if l.Capture {
			break
		}
	}
	return out
}
