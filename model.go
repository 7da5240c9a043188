package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/config"
	"github.com/zackbart/trove/internal/keys"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/runner"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/viewer"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputImport
)

// Chrome rows: top bar, status line, key hints.
const chromeRows = 3

type (
	textLoadedMsg struct {
		ticket   viewer.Ticket
		text     string
		rendered string
		err      error
	}
	imageRenderedMsg struct {
		gen uint64
		out string
		err error
	}
	toastHideMsg struct{ seq uint64 }
	frameMsg     struct{ token uint64 }
	slideMsg     struct{ token uint64 }
	browserMsg   struct{ err error }
)

type model struct {
	cfg     *config.Config
	log     logging.Logger
	baseURL string
	open    func(url string) error

	coll    *archive.Collection
	session *viewer.Session
	router  *keys.Router
	help    help.Model

	group  archive.Group
	query  string
	files  []*archive.File
	cursor int

	mode  inputMode
	input textinput.Model

	vp       viewport.Model
	ticket   viewer.Ticket
	image    string
	launched string // last surface URL handed to the browser
	status   string
	width    int
	height   int
	quitting bool
}

func newModel(cfg *config.Config, log logging.Logger, baseURL string, coll *archive.Collection, session *viewer.Session) model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 4096

	m := model{
		cfg:     cfg,
		log:     log,
		baseURL: baseURL,
		open:    sandbox.OpenBrowser,
		coll:    coll,
		session: session,
		router:  keys.Default(),
		help:    help.New(),
		input:   ti,
		vp:      viewport.New(0, 0),
		status:  "ready",
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) keyContext() keys.Context {
	open := m.session.State() == viewer.Open
	return keys.Context{
		Typing: m.mode != inputNone,
		Viewer: open,
		Media:  open && m.session.Kind().Category.Media(),
	}
}

func (m model) style() sourceStyle {
	return sourceStyle{highlight: m.cfg.HighlightStyle, markdown: m.cfg.MarkdownStyle}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-4)
		m.vp.Width = msg.Width
		m.vp.Height = m.viewerBodyHeight()
		if m.session.State() != viewer.Open {
			return m, nil
		}
		if m.session.TextState() == viewer.TextReady {
			m.vp.SetContent(renderSource(m.session.File().Name, m.session.Text(), m.width, m.style()))
		}
		if m.session.Kind().Category == classify.Image {
			return m, m.imageCmd(m.ticket)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.session.State() == viewer.Open {
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		return m, nil

	case importedMsg:
		added := 0
		for _, f := range msg.files {
			if m.coll.Add(f) {
				added++
			}
		}
		m.refresh()
		m.status = fmt.Sprintf("imported %d file(s)", added)
		if msg.err != nil {
			m.log.Warn(context.Background(), "import failed", "err", msg.err)
			m.status = "import: " + msg.err.Error()
		}
		return m, nil

	case textLoadedMsg:
		if !m.session.CommitText(msg.ticket, msg.text, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.vp.SetContent(m.session.Text())
		} else {
			m.vp.SetContent(msg.rendered)
		}
		cmd := m.surfaceCmd()
		return m, cmd

	case imageRenderedMsg:
		if msg.gen != m.ticket.Gen {
			return m, nil
		}
		if msg.err != nil {
			m.image = "preview unavailable: " + msg.err.Error()
		} else {
			m.image = msg.out
		}
		return m, nil

	case toastHideMsg:
		m.session.Media().HideToast(msg.seq)
		return m, nil

	case frameMsg:
		if m.session.Frame(msg.token, m.cfg.FrameInterval) {
			return m, frameTick(m.cfg.FrameInterval, msg.token)
		}
		return m, nil

	case slideMsg:
		t, ok := m.session.Slide(msg.token, m.files)
		if !ok {
			return m, nil
		}
		cmd := m.afterOpen(t)
		return m, cmd

	case browserMsg:
		if msg.err != nil {
			m.log.Warn(context.Background(), "open browser failed", "err", msg.err)
			m.status = "could not open browser; visit the URL shown"
		}
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, _ := m.router.Route(m.keyContext(), msg)
	s := m.session

	switch action {
	case keys.Quit:
		m.quitting = true
		return m, tea.Quit

	case keys.Type:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.mode == inputSearch {
			m.query = m.input.Value()
			m.refresh()
		}
		return m, cmd

	case keys.Submit:
		mode := m.mode
		value := m.input.Value()
		m.endInput()
		if mode == inputImport && value != "" {
			m.status = "importing " + value
			return m, importCmd(value)
		}
		return m, nil

	case keys.Cancel:
		if m.mode == inputSearch {
			m.query = ""
			m.refresh()
		}
		m.endInput()
		return m, nil

	case keys.TogglePlay:
		s.TogglePlay()
		return m, m.loopCmd()

	case keys.ToggleMute:
		seq, _ := s.ToggleMute()
		return m, toastTick(m.cfg.ToastDuration, seq)

	case keys.VolumeUp, keys.VolumeDown:
		delta := viewer.VolumeStep
		if action == keys.VolumeDown {
			delta = -delta
		}
		seq, _ := s.AdjustVolume(delta)
		return m, toastTick(m.cfg.ToastDuration, seq)

	case keys.Prev, keys.Next:
		dir := viewer.Next
		if action == keys.Prev {
			dir = viewer.Prev
		}
		if t, ok := s.Navigate(dir, m.files); ok {
			cmd := m.afterOpen(t)
			return m, cmd
		}
		return m, nil

	case keys.ToggleRun:
		if !s.ToggleRun() {
			m.status = "nothing to run for " + s.Kind().Category.String()
			return m, nil
		}
		if s.Mode() == viewer.Run {
			m.status = runner.Describe(s.Kind(), s.Text())
		} else {
			m.status = "source"
		}
		cmd := m.surfaceCmd()
		return m, cmd

	case keys.OpenBrowser:
		if sf := s.Surface(); sf != nil {
			return m, m.browserCmd(sf.URL)
		}
		if u, ok := s.PreviewURL(); ok {
			return m, m.browserCmd(u)
		}
		return m, nil

	case keys.Close:
		s.Close()
		m.ticket = viewer.Ticket{}
		m.image = ""
		m.launched = ""
		m.vp.SetContent("")
		m.status = "ready"
		return m, nil

	case keys.CursorUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case keys.CursorDown:
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
		return m, nil

	case keys.OpenFile:
		if len(m.files) == 0 {
			return m, nil
		}
		cmd := m.afterOpen(s.OpenFile(m.files[m.cursor]))
		return m, cmd

	case keys.CycleFilter:
		m.group = m.group.Next()
		m.refresh()
		return m, nil

	case keys.Search:
		m.mode = inputSearch
		m.input.Placeholder = "filter by name"
		m.input.SetValue(m.query)
		cmd := m.input.Focus()
		return m, cmd

	case keys.Import:
		m.mode = inputImport
		m.input.Placeholder = "path to a file or folder"
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd

	case keys.None:
		if s.State() == viewer.Open {
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *model) endInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.Reset()
}

// refresh recomputes the filtered ordering and clamps the cursor.
func (m *model) refresh() {
	m.files = m.coll.Filter(m.group, m.query)
	if m.cursor >= len(m.files) {
		m.cursor = max(0, len(m.files)-1)
	}
}

// afterOpen resets per-file view state after t became the active file and
// returns the work the file needs.
func (m *model) afterOpen(t viewer.Ticket) tea.Cmd {
	m.ticket = t
	m.image = ""
	m.launched = ""
	m.vp.SetContent("")
	m.vp.GotoTop()
	for i, f := range m.files {
		if f == t.File {
			m.cursor = i
			break
		}
	}
	m.status = "viewing " + t.File.Name

	var cmds []tea.Cmd
	if t.NeedsText {
		cmds = append(cmds, decodeCmd(t, m.width, m.style()))
	}
	if m.session.Kind().Category == classify.Image {
		cmds = append(cmds, m.imageCmd(t))
	}
	cmds = append(cmds, m.loopCmd())
	return tea.Batch(cmds...)
}

// loopCmd schedules the first tick of the running frame loop, if any.
func (m model) loopCmd() tea.Cmd {
	token, ok := m.session.LoopToken()
	if !ok {
		return nil
	}
	switch m.session.Kind().Category {
	case classify.Audio:
		return frameTick(m.cfg.FrameInterval, token)
	case classify.Image:
		return tea.Tick(m.cfg.SlideInterval, func(time.Time) tea.Msg { return slideMsg{token: token} })
	}
	return nil
}

// surfaceCmd hands a newly presented surface to the browser once.
func (m *model) surfaceCmd() tea.Cmd {
	sf := m.session.Surface()
	if sf == nil || sf.URL == m.launched || !m.cfg.OpenBrowser {
		return nil
	}
	m.launched = sf.URL
	return m.browserCmd(sf.URL)
}

func (m model) browserCmd(url string) tea.Cmd {
	open := m.open
	m.log.Info(context.Background(), "opening browser", "url", url)
	return func() tea.Msg {
		return browserMsg{err: open(url)}
	}
}

func (m model) imageCmd(t viewer.Ticket) tea.Cmd {
	if t.File == nil {
		return nil
	}
	w, h := m.width, m.viewerBodyHeight()-mediaPanelRows
	return func() tea.Msg {
		out, err := imagePreview(t.File, w, h)
		return imageRenderedMsg{gen: t.Gen, out: out, err: err}
	}
}

func decodeCmd(t viewer.Ticket, width int, st sourceStyle) tea.Cmd {
	return func() tea.Msg {
		text, err := viewer.Decode(context.Background(), t)
		msg := textLoadedMsg{ticket: t, text: text, err: err}
		if err == nil {
			msg.rendered = renderSource(t.File.Name, text, width, st)
		}
		return msg
	}
}

func frameTick(d time.Duration, token uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return frameMsg{token: token} })
}

func toastTick(d time.Duration, seq uint64) tea.Cmd {
	if seq == 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return toastHideMsg{seq: seq} })
}

func (m model) viewerBodyHeight() int {
	// header + divider
	return max(1, m.height-chromeRows-2)
}
