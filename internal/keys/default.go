package keys

import "github.com/charmbracelet/bubbles/key"

func bind(a Action, help string, keys ...string) Binding {
	label := keys[0]
	if label == " " {
		label = "space"
	}
	return Binding{
		Key:    key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, help)),
		Action: a,
	}
}

// Default returns the archive page's chain: text entry, media controls,
// viewer, list, then global keys.
func Default() *Router {
	return NewRouter(
		Layer{
			Name:    "input",
			Active:  func(c Context) bool { return c.Typing },
			Capture: true,
			Bindings: []Binding{
				bind(Submit, "confirm", "enter"),
				bind(Cancel, "cancel", "esc"),
				bind(Quit, "quit", "ctrl+c"),
			},
		},
		Layer{
			Name:   "media",
			Active: func(c Context) bool { return c.Viewer && c.Media },
			Bindings: []Binding{
				bind(TogglePlay, "play/pause", " ", "space"),
				bind(ToggleMute, "mute", "m"),
				bind(VolumeUp, "volume up", "up", "+"),
				bind(VolumeDown, "volume down", "down", "-"),
			},
		},
		Layer{
			Name:   "viewer",
			Active: func(c Context) bool { return c.Viewer },
			Bindings: []Binding{
				bind(Prev, "prev", "left", "h"),
				bind(Next, "next", "right", "l"),
				bind(ToggleRun, "run/source", "r"),
				bind(OpenBrowser, "open in browser", "o"),
				bind(Close, "close", "esc", "backspace"),
			},
		},
		Layer{
			Name:   "grid",
			Active: func(c Context) bool { return !c.Viewer },
			Bindings: []Binding{
				bind(CursorUp, "up", "up", "k"),
				bind(CursorDown, "down", "down", "j"),
				bind(OpenFile, "open", "enter"),
				bind(CycleFilter, "filter", "tab"),
				bind(Search, "search", "/"),
				bind(Import, "import", "i"),
			},
		},
		Layer{
			Name: "global",
			Bindings: []Binding{
				bind(Quit, "quit", "q", "ctrl+c"),
			},
		},
	)
}
