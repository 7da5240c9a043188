package viewer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/content"
	"github.com/zackbart/trove/internal/lifecycle"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/visual"
)

type fakeHost struct {
	presented []objref.Ref
}

func (h *fakeHost) Present(target objref.Ref, markup bool, name string) sandbox.Surface {
	h.presented = append(h.presented, target)
	return sandbox.Surface{URL: "http://sandbox/frame/" + target.ID, Target: target, Markup: markup}
}

func (h *fakeHost) PreviewURL(ref objref.Ref, cat classify.Category, name string) string {
	return "http://sandbox/preview/" + ref.ID + "?kind=" + cat.String()
}

type fixture struct {
	s      *Session
	reg    *objref.Registry
	host   *fakeHost
	engine *visual.Engine
}

func newFixture(t *testing.T, autoplay bool) *fixture {
	t.Helper()
	reg := objref.NewRegistry("http://sandbox")
	host := &fakeHost{}
	engine := &visual.Engine{}
	s := New(Options{
		Loader:     content.NewLoader(reg),
		Slots:      lifecycle.NewManager(reg, logging.Discard()),
		Classifier: classify.Default(),
		Host:       host,
		Engine:     engine,
		Log:        logging.Discard(),
		Autoplay:   autoplay,
	})
	return &fixture{s: s, reg: reg, host: host, engine: engine}
}

// open opens f and completes its decode synchronously.
func (fx *fixture) open(t *testing.T, f *archive.File) {
	t.Helper()
	tk := fx.s.OpenFile(f)
	if tk.NeedsText {
		text, err := Decode(context.Background(), tk)
		require.True(t, fx.s.CommitText(tk, text, err))
	}
}

func js(name, src string) *archive.File { return archive.FromBytes(name, "", []byte(src)) }

func TestOpenFile_StartsInSource(t *testing.T) {
	fx := newFixture(t, false)
	tk := fx.s.OpenFile(js("a.js", "console.log(1)"))

	assert.Equal(t, Open, fx.s.State())
	assert.Equal(t, Source, fx.s.Mode())
	assert.True(t, tk.NeedsText)
	assert.Equal(t, TextPending, fx.s.TextState())
	assert.Equal(t, classify.Kind{Category: classify.Script, Dialect: classify.JS}, fx.s.Kind())
	assert.True(t, fx.reg.Live(fx.s.Display().ID))
}

func TestReferenceUniqueness(t *testing.T) {
	fx := newFixture(t, false)
	const n = 6
	for i := 0; i < n; i++ {
		fx.s.OpenFile(archive.FromBytes("p.png", "image/png", []byte{byte(i)}))
		assert.LessOrEqual(t, fx.reg.Stats().Live, 1)
		assert.True(t, fx.reg.Live(fx.s.Display().ID))
	}
	fx.s.Close()
	assert.Equal(t, objref.Stats{Created: n, Revoked: n, Live: 0}, fx.reg.Stats())
}

func TestStaleDecodeDiscarded(t *testing.T) {
	fx := newFixture(t, false)
	a := js("a.txt", "AAA")
	b := js("b.txt", "BBB")

	ta := fx.s.OpenFile(a)
	tb := fx.s.OpenFile(b)

	assert.False(t, fx.s.CommitText(ta, "AAA", nil), "A resolves after the switch")
	assert.NotEqual(t, "AAA", fx.s.Text())
	assert.Equal(t, TextPending, fx.s.TextState())

	assert.True(t, fx.s.CommitText(tb, "BBB", nil))
	assert.Equal(t, "BBB", fx.s.Text())

	assert.False(t, fx.s.CommitText(ta, "AAA", nil))
	assert.Equal(t, "BBB", fx.s.Text())
}

func TestStaleDecodeAfterClose(t *testing.T) {
	fx := newFixture(t, false)
	tk := fx.s.OpenFile(js("a.txt", "x"))
	fx.s.Close()
	assert.False(t, fx.s.CommitText(tk, "x", nil))
	assert.Equal(t, Closed, fx.s.State())
}

func TestDecodeFailureShowsPlaceholder(t *testing.T) {
	fx := newFixture(t, false)
	f := archive.FromReader("broken.js", "", 3, func() (io.ReadCloser, error) {
		return nil, errors.New("unreadable")
	})
	tk := fx.s.OpenFile(f)
	_, err := Decode(context.Background(), tk)
	require.Error(t, err)

	assert.True(t, fx.s.CommitText(tk, "", err))
	assert.Equal(t, TextFailed, fx.s.TextState())
	assert.Equal(t, content.DecodeFailedPlaceholder, fx.s.Text())

	assert.True(t, fx.s.ToggleRun())
	assert.Nil(t, fx.s.Surface())
	assert.NotEmpty(t, fx.s.RunError())
}

func TestToggleRun_Script(t *testing.T) {
	fx := newFixture(t, false)
	fx.open(t, js("a.js", "console.log('hi')"))

	require.True(t, fx.s.ToggleRun())
	assert.Equal(t, Run, fx.s.Mode())
	surface := fx.s.Surface()
	require.NotNil(t, surface)
	assert.False(t, surface.Markup)
	assert.NotEqual(t, fx.s.Display().ID, surface.Target.ID, "runs the synthesized document")
	assert.True(t, fx.reg.Live(surface.Target.ID))
	assert.Equal(t, 2, fx.reg.Stats().Live)

	rc, ct, err := fx.reg.Open(surface.Target.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "text/html; charset=utf-8", ct)
	assert.Contains(t, string(body), `id="console"`)

	require.True(t, fx.s.ToggleRun())
	assert.Equal(t, Source, fx.s.Mode())
	assert.Nil(t, fx.s.Surface())
	assert.False(t, fx.reg.Live(surface.Target.ID), "leaving Run releases the runner document")
	assert.Equal(t, 1, fx.reg.Stats().Live)
}

func TestToggleRun_WaitsForText(t *testing.T) {
	fx := newFixture(t, false)
	tk := fx.s.OpenFile(js("a.css", "body{}"))

	require.True(t, fx.s.ToggleRun())
	assert.Nil(t, fx.s.Surface())

	require.True(t, fx.s.CommitText(tk, "body{}", nil))
	require.NotNil(t, fx.s.Surface())
}

func TestToggleRun_Markup(t *testing.T) {
	fx := newFixture(t, false)
	fx.open(t, archive.FromBytes("index.html", "text/html", []byte("<p>x</p>")))

	require.True(t, fx.s.ToggleRun())
	surface := fx.s.Surface()
	require.NotNil(t, surface)
	assert.True(t, surface.Markup)
	assert.Equal(t, fx.s.Display().ID, surface.Target.ID, "markup runs the original file")
	assert.Equal(t, 1, fx.reg.Stats().Live)
}

func TestToggleRun_PlainCodeSimulates(t *testing.T) {
	fx := newFixture(t, false)
	fx.open(t, js("main.py", "print('hello')"))

	require.True(t, fx.s.ToggleRun())
	assert.Nil(t, fx.s.Surface(), "plain code never reaches the sandbox")
	tr := fx.s.Transcript()
	require.NotNil(t, tr)
	assert.True(t, tr.Simulated)
	assert.Equal(t, []string{"hello"}, tr.Lines)
	assert.Empty(t, fx.host.presented)
}

func TestToggleRun_NoOps(t *testing.T) {
	fx := newFixture(t, false)
	assert.False(t, fx.s.ToggleRun(), "closed")

	fx.open(t, archive.FromBytes("p.png", "image/png", []byte("x")))
	assert.False(t, fx.s.ToggleRun(), "images have no run mode")
	assert.Equal(t, Source, fx.s.Mode())
}

func TestNavigate_Wraparound(t *testing.T) {
	fx := newFixture(t, false)
	files := []*archive.File{
		archive.FromBytes("1.png", "image/png", nil),
		archive.FromBytes("2.png", "image/png", nil),
		archive.FromBytes("3.png", "image/png", nil),
	}

	fx.s.OpenFile(files[2])
	_, ok := fx.s.Navigate(Next, files)
	require.True(t, ok)
	assert.Same(t, files[0], fx.s.File())

	_, ok = fx.s.Navigate(Prev, files)
	require.True(t, ok)
	assert.Same(t, files[2], fx.s.File())

	fx.s.Navigate(Prev, files)
	assert.Same(t, files[1], fx.s.File())
}

func TestNavigate_SingleOrEmptyIsNoop(t *testing.T) {
	fx := newFixture(t, false)
	only := archive.FromBytes("1.png", "image/png", nil)
	fx.s.OpenFile(only)
	created := fx.reg.Stats().Created

	_, ok := fx.s.Navigate(Next, []*archive.File{only})
	assert.False(t, ok)
	_, ok = fx.s.Navigate(Prev, nil)
	assert.False(t, ok)
	assert.Same(t, only, fx.s.File())
	assert.Equal(t, created, fx.reg.Stats().Created)
}

func TestNavigate_ActiveFileFilteredOut(t *testing.T) {
	fx := newFixture(t, false)
	fx.s.OpenFile(archive.FromBytes("x.txt", "text/plain", nil))
	files := []*archive.File{
		archive.FromBytes("1.png", "image/png", nil),
		archive.FromBytes("2.png", "image/png", nil),
	}
	fx.s.Navigate(Prev, files)
	assert.Same(t, files[1], fx.s.File())
}

func TestNavigate_ClosedIsNoop(t *testing.T) {
	fx := newFixture(t, false)
	_, ok := fx.s.Navigate(Next, []*archive.File{js("a.js", ""), js("b.js", "")})
	assert.False(t, ok)
}

func TestNavigate_ResetsToSource(t *testing.T) {
	fx := newFixture(t, false)
	files := []*archive.File{js("a.js", "1"), js("b.js", "2")}
	fx.open(t, files[0])
	require.True(t, fx.s.ToggleRun())
	runner := fx.s.Surface().Target

	tk, ok := fx.s.Navigate(Next, files)
	require.True(t, ok)
	assert.Equal(t, Source, fx.s.Mode())
	assert.Nil(t, fx.s.Surface())
	assert.False(t, fx.reg.Live(runner.ID))

	require.True(t, fx.s.CommitText(tk, "2", nil))
	assert.Equal(t, Source, fx.s.Mode())
}

func TestClose_ReleasesEverything(t *testing.T) {
	fx := newFixture(t, false)
	fx.open(t, js("a.jsx", "function App(){ return null }"))
	require.True(t, fx.s.ToggleRun())
	require.Equal(t, 2, fx.reg.Stats().Live)

	fx.s.Close()
	assert.Equal(t, Closed, fx.s.State())
	assert.Equal(t, 0, fx.reg.Stats().Live)
	assert.Equal(t, fx.reg.Stats().Created, fx.reg.Stats().Revoked)

	fx.s.Close()
	assert.Equal(t, fx.reg.Stats().Created, fx.reg.Stats().Revoked)
}

func TestClose_ForgetsKind(t *testing.T) {
	fx := newFixture(t, false)
	fx.s.OpenFile(archive.FromBytes("p.png", "image/png", nil))
	require.Equal(t, classify.Image, fx.s.Kind().Category)

	fx.s.Close()
	assert.Equal(t, classify.Kind{}, fx.s.Kind())
	assert.Nil(t, fx.s.File())
}

func TestPreviewURL(t *testing.T) {
	fx := newFixture(t, false)
	_, ok := fx.s.PreviewURL()
	assert.False(t, ok)

	fx.s.OpenFile(archive.FromBytes("doc.pdf", "application/pdf", nil))
	u, ok := fx.s.PreviewURL()
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(u, "kind=pdf"))

	fx.open(t, js("a.js", ""))
	_, ok = fx.s.PreviewURL()
	assert.False(t, ok)
}

// ── media ────────────────────────────────────────────────────────────────

func audio(name string, data []byte) *archive.File {
	return archive.FromBytes(name, "audio/mpeg", data)
}

func TestAudio_AutoplayAndFrames(t *testing.T) {
	fx := newFixture(t, true)
	fx.s.OpenFile(audio("song.mp3", []byte(strings.Repeat("\x10\x90", 512))))

	assert.True(t, fx.s.Media().Playing)
	assert.Equal(t, 1, fx.engine.Inits())

	tok, ok := fx.s.LoopToken()
	require.True(t, ok)
	assert.True(t, fx.s.Frame(tok, 100*time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, fx.s.Media().Position)
	assert.Len(t, fx.s.Bars(8, 4), 8)

	require.True(t, fx.s.TogglePlay())
	assert.False(t, fx.s.Media().Playing)
	assert.False(t, fx.s.Frame(tok, time.Second), "pausing stops the loop")
	assert.Equal(t, 100*time.Millisecond, fx.s.Media().Position)
}

func TestAudio_AutoplayRejectedStaysPaused(t *testing.T) {
	fx := newFixture(t, true)
	fx.s.OpenFile(audio("empty.mp3", nil))
	assert.False(t, fx.s.Media().Playing)
	_, ok := fx.s.LoopToken()
	assert.False(t, ok)
}

func TestAudio_FileChangeCancelsLoop(t *testing.T) {
	fx := newFixture(t, true)
	files := []*archive.File{audio("a.mp3", []byte("abc")), audio("b.mp3", []byte("def"))}
	fx.s.OpenFile(files[0])
	tok, ok := fx.s.LoopToken()
	require.True(t, ok)

	fx.s.Navigate(Next, files)
	assert.False(t, fx.s.Frame(tok, time.Second), "old loop token is dead after the switch")
	assert.Equal(t, 1, fx.engine.Inits(), "engine is shared across files")

	fx.s.Close()
	_, ok = fx.s.LoopToken()
	assert.False(t, ok)

	fx.s.Shutdown()
	assert.False(t, fx.engine.Active())
}

func TestMedia_VolumeAndMute(t *testing.T) {
	fx := newFixture(t, false)
	fx.s.OpenFile(audio("a.mp3", []byte("x")))
	m := fx.s.Media()

	_, ok := fx.s.AdjustVolume(VolumeStep)
	require.True(t, ok)
	assert.Equal(t, 1.0, m.Volume, "clamped at 1")

	for i := 0; i < 12; i++ {
		fx.s.AdjustVolume(-VolumeStep)
	}
	assert.Equal(t, 0.0, m.Volume, "clamped at 0")

	fx.s.ToggleMute()
	assert.True(t, m.Muted)
	fx.s.AdjustVolume(-VolumeStep)
	assert.True(t, m.Muted, "lowering keeps mute")
	fx.s.AdjustVolume(VolumeStep)
	assert.False(t, m.Muted, "raising unmutes")
	assert.InDelta(t, 0.1, m.Volume, 1e-9)
}

func TestMedia_ToastTimerResets(t *testing.T) {
	m := newMedia()
	first := m.ToggleMute()
	second := m.AdjustVolume(-VolumeStep)

	assert.False(t, m.HideToast(first), "older timer must not hide the newer toast")
	text, visible := m.Toast()
	assert.True(t, visible)
	assert.Equal(t, "volume 90%", text)

	assert.True(t, m.HideToast(second))
	_, visible = m.Toast()
	assert.False(t, visible)
	assert.False(t, m.HideToast(second))
}

func TestMedia_NotForOtherCategories(t *testing.T) {
	fx := newFixture(t, false)
	fx.open(t, js("a.js", ""))
	assert.False(t, fx.s.TogglePlay())
	_, ok := fx.s.ToggleMute()
	assert.False(t, ok)
	_, ok = fx.s.AdjustVolume(VolumeStep)
	assert.False(t, ok)
}

func TestImage_Slideshow(t *testing.T) {
	fx := newFixture(t, false)
	files := []*archive.File{
		archive.FromBytes("1.png", "image/png", nil),
		archive.FromBytes("2.png", "image/png", nil),
	}
	fx.s.OpenFile(files[0])
	require.True(t, fx.s.TogglePlay())
	tok, ok := fx.s.LoopToken()
	require.True(t, ok)

	_, ok = fx.s.Slide(tok, files)
	require.True(t, ok)
	assert.Same(t, files[1], fx.s.File())
	assert.True(t, fx.s.Media().Playing, "slideshow keeps playing across images")

	_, ok = fx.s.Slide(tok, files)
	assert.False(t, ok, "each slide gets a fresh token")

	next, ok := fx.s.LoopToken()
	require.True(t, ok)
	fx.s.TogglePlay()
	_, ok = fx.s.Slide(next, files)
	assert.False(t, ok)
}
