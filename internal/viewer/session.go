// Package viewer is the per-file view state machine: Closed, Open(Source)
// and Open(Run), with navigation across a caller-supplied ordering and the
// playback sub-state for media.
//
// A Session is driven from a single goroutine (the UI loop). Decodes run
// elsewhere and come back through CommitText, which drops results for files
// that are no longer active.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/content"
	"github.com/zackbart/trove/internal/lifecycle"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
	"github.com/zackbart/trove/internal/runner"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/terminal"
	"github.com/zackbart/trove/internal/visual"
)

type State int

const (
	Closed State = iota
	Open
)

type Mode int

const (
	Source Mode = iota
	Run
)

func (m Mode) String() string {
	if m == Run {
		return "run"
	}
	return "source"
}

// TextState tracks the decoded text of the active file.
type TextState int

const (
	TextNone TextState = iota
	TextPending
	TextReady
	TextFailed
)

type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Ticket identifies one open. A decode started for a ticket may only be
// committed while the ticket is current.
type Ticket struct {
	Gen       uint64
	File      *archive.File
	NeedsText bool
}

// Presenter embeds references in isolated browsing surfaces.
type Presenter interface {
	Present(target objref.Ref, markup bool, name string) sandbox.Surface
	PreviewURL(ref objref.Ref, cat classify.Category, name string) string
}

// Options configures a Session.
type Options struct {
	Loader     *content.Loader
	Slots      *lifecycle.Manager
	Classifier *classify.Classifier
	Host       Presenter
	Engine     *visual.Engine
	Log        logging.Logger
	Autoplay   bool
}

// Session is the view state of the file currently open.
type Session struct {
	opts Options

	state State
	mode  Mode
	gen   uint64

	file    *archive.File
	kind    classify.Kind
	display objref.Ref

	text      string
	textState TextState

	surface    *sandbox.Surface
	transcript *terminal.Transcript
	runErr     string

	media      Media
	frames     lifecycle.Loop
	signalGen  uint64
	signalLive bool
}

func New(opts Options) *Session {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.Engine == nil {
		opts.Engine = &visual.Engine{}
	}
	return &Session{opts: opts, media: newMedia()}
}

func (s *Session) State() State { return s.state }
func (s *Session) Mode() Mode { return s.mode }
func (s *Session) File() *archive.File { return s.file }
func (s *Session) Kind() classify.Kind { return s.kind }
func (s *Session) Text() string { return s.text }
func (s *Session) TextState() TextState { return s.textState }
func (s *Session) Surface() *sandbox.Surface { return s.surface }
func (s *Session) Media() *Media { return &s.media }
func (s *Session) Engine() *visual.Engine { return s.opts.Engine }

// Transcript returns the simulated run output for plain code.
func (s *Session) Transcript() *terminal.Transcript { return s.transcript }

// Display returns the live reference of the active file.
func (s *Session) Display() objref.Ref { return s.display }

// RunError explains why Run mode has nothing to show, if so.
func (s *Session) RunError() string { return s.runErr }

// PreviewURL returns the native browser preview for media and PDF files.
func (s *Session) PreviewURL() (string, bool) {
	if s.state != Open || s.opts.Host == nil {
		return "", false
	}
	switch s.kind.Category {
	case classify.Video, classify.Audio, classify.Image, classify.PDF:
		return s.opts.Host.PreviewURL(s.display, s.kind.Category, s.file.Name), true
	}
	return "", false
}

// OpenFile makes f the active file in Source mode. A new display reference
// is created before the previous one is revoked. The returned ticket must
// accompany the decode result.
func (s *Session) OpenFile(f *archive.File) Ticket {
	ctx := context.Background()
	kind := s.opts.Classifier.Classify(f.Name, f.MediaType)
	slideshow := s.state == Open && s.kind.Category == classify.Image &&
		kind.Category == classify.Image && s.media.Playing

	s.stopRun()
	s.frames.Cancel()

	s.gen++
	s.state = Open
	s.mode = Source
	s.file = f
	s.kind = kind
	s.text = ""
	s.textState = TextNone
	if kind.Category.NeedsText() {
		s.textState = TextPending
	}
	s.media.reset()
	s.signalLive = false

	s.display = s.opts.Loader.Acquire(f)
	s.opts.Slots.Assign(lifecycle.SlotDisplay, s.display)

	s.opts.Log.Info(ctx, "file opened", "name", f.Name, "kind", kind.String(), "gen", s.gen)

	switch {
	case slideshow:
		s.media.Playing = true
		s.frames.Start()
	case kind.Category == classify.Audio && s.opts.Autoplay:
		if err := s.play(); err != nil {
			s.opts.Log.Warn(ctx, "autoplay rejected", "name", f.Name, "err", err)
		}
	}

	return Ticket{Gen: s.gen, File: f, NeedsText: kind.Category.NeedsText()}
}

// Decode runs the text decode for t. It is safe to call off the UI goroutine.
func Decode(ctx context.Context, t Ticket) (string, error) {
	return content.DecodeText(ctx, t.File)
}

// CommitText applies a decode result. Results for a ticket that is no longer
// current are discarded and CommitText reports false.
func (s *Session) CommitText(t Ticket, text string, err error) bool {
	if s.state != Open || t.Gen != s.gen {
		s.opts.Log.Debug(context.Background(), "stale decode discarded", "gen", t.Gen, "current", s.gen)
		return false
	}
	if err != nil {
		s.opts.Log.Warn(context.Background(), "decode failed", "name", s.file.Name, "err", err)
		s.text = content.DecodeFailedPlaceholder
		s.textState = TextFailed
	} else {
		s.text = text
		s.textState = TextReady
	}
	if s.mode == Run {
		s.startRun()
	}
	return true
}

// ToggleRun flips between Source and Run for runnable files. It is a no-op
// when closed or for categories without a Run mode.
func (s *Session) ToggleRun() bool {
	if s.state != Open || !s.kind.Category.Runnable() {
		return false
	}
	if s.mode == Source {
		s.mode = Run
		s.startRun()
	} else {
		s.stopRun()
		s.mode = Source
	}
	return true
}

func (s *Session) startRun() {
	s.runErr = ""
	switch s.kind.Category {
	case classify.Markup:
		surface := s.opts.Host.Present(s.display, true, s.file.Name)
		s.surface = &surface
	case classify.Script:
		switch s.textState {
		case TextPending:
			return
		case TextFailed:
			s.runErr = "cannot run: " + content.DecodeFailedPlaceholder
			return
		}
		doc, ok := runner.Synthesize(s.text, s.kind, s.file.Name)
		if !ok {
			s.runErr = fmt.Sprintf("no runner for %s", s.kind)
			return
		}
		ref := s.opts.Loader.Registry().CreateBytes(doc.Bytes(), runner.ContentType)
		s.opts.Slots.Assign(lifecycle.SlotRunner, ref)
		surface := s.opts.Host.Present(ref, false, s.file.Name)
		s.surface = &surface
	case classify.PlainCode:
		if s.textState != TextReady {
			if s.textState == TextFailed {
				s.runErr = "cannot run: " + content.DecodeFailedPlaceholder
			}
			return
		}
		tr := terminal.Simulate(s.file.Name, s.text)
		s.transcript = &tr
	}
}

// stopRun drops the surface and releases the runner document.
func (s *Session) stopRun() {
	s.surface = nil
	s.transcript = nil
	s.runErr = ""
	s.opts.Slots.Release(lifecycle.SlotRunner)
}

// Close ends the session, releasing its references and cancelling the
// frame loop. Pending decodes become stale.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.stopRun()
	s.frames.Cancel()
	s.opts.Slots.Release(lifecycle.SlotDisplay)
	s.gen++
	s.state = Closed
	s.mode = Source
	s.file = nil
	s.kind = classify.Kind{}
	s.display = objref.Ref{}
	s.text = ""
	s.textState = TextNone
	s.media.reset()
	s.signalLive = false
}

// Shutdown is the final teardown when the host page unmounts.
func (s *Session) Shutdown() {
	s.Close()
	s.opts.Slots.ReleaseAll()
	s.opts.Engine.Teardown()
}

// Navigate opens the previous or next entry of ordering, wrapping at both
// ends. With fewer than two entries it does nothing and reports false.
func (s *Session) Navigate(dir Direction, ordering []*archive.File) (Ticket, bool) {
	if s.state != Open || len(ordering) <= 1 {
		return Ticket{}, false
	}
	idx := -1
	for i, f := range ordering {
		if f == s.file || (f.ID != "" && f.ID == s.file.ID) {
			idx = i
			break
		}
	}
	n := len(ordering)
	var next int
	switch {
	case idx < 0 && dir == Prev:
		next = n - 1
	case idx < 0:
		next = 0
	default:
		next = ((idx+int(dir))%n + n) % n
	}
	return s.OpenFile(ordering[next]), true
}

// ── playback ─────────────────────────────────────────────────────────────

// TogglePlay starts or pauses playback. It returns false when the active
// file has no playback sub-state.
func (s *Session) TogglePlay() bool {
	if s.state != Open || !s.kind.Category.Media() {
		return false
	}
	if s.media.Playing {
		s.media.Playing = false
		s.frames.Cancel()
		return true
	}
	if err := s.play(); err != nil {
		s.opts.Log.Warn(context.Background(), "playback rejected", "name", s.file.Name, "err", err)
	}
	return true
}

func (s *Session) play() error {
	if s.kind.Category == classify.Audio && (!s.signalLive || s.signalGen != s.gen) {
		s.opts.Engine.Init()
		rc, err := s.file.Open()
		if err != nil {
			return err
		}
		err = s.opts.Engine.Load(rc, s.file.Size)
		rc.Close()
		if err != nil {
			return err
		}
		s.signalGen, s.signalLive = s.gen, true
	}
	s.media.Playing = true
	s.frames.Start()
	return nil
}

// ToggleMute and AdjustVolume return the toast sequence to hide later, and
// false when the file has no playback sub-state.
func (s *Session) ToggleMute() (uint64, bool) {
	if s.state != Open || !s.kind.Category.Media() {
		return 0, false
	}
	return s.media.ToggleMute(), true
}

func (s *Session) AdjustVolume(delta float64) (uint64, bool) {
	if s.state != Open || !s.kind.Category.Media() {
		return 0, false
	}
	return s.media.AdjustVolume(delta), true
}

// LoopToken returns the token of the running frame loop.
func (s *Session) LoopToken() (uint64, bool) {
	if !s.frames.Running() {
		return 0, false
	}
	return s.frames.Current(), true
}

// Frame advances audio playback by dt for the loop identified by token. It
// reports whether the loop should schedule another frame.
func (s *Session) Frame(token uint64, dt time.Duration) bool {
	if !s.frames.Alive(token) || !s.media.Playing || s.kind.Category != classify.Audio {
		return false
	}
	s.media.Position += dt
	return true
}

// Slide advances an image slideshow for the loop identified by token.
func (s *Session) Slide(token uint64, ordering []*archive.File) (Ticket, bool) {
	if !s.frames.Alive(token) || !s.media.Playing || s.kind.Category != classify.Image {
		return Ticket{}, false
	}
	return s.Navigate(Next, ordering)
}

// Bars returns the visualisation for the active audio file.
func (s *Session) Bars(n, height int) []int {
	if s.kind.Category != classify.Audio || !s.signalLive || s.signalGen != s.gen {
		return make([]int, max(0, n))
	}
	return s.opts.Engine.Bars(s.media.Position, n, height)
}
