package main

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/config"
	"github.com/zackbart/trove/internal/content"
	"github.com/zackbart/trove/internal/lifecycle"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/viewer"
	"github.com/zackbart/trove/internal/visual"
)

type harness struct {
	m      model
	reg    *objref.Registry
	opened []string
}

func newHarness(t *testing.T, files ...*archive.File) *harness {
	t.Helper()
	host, err := sandbox.Listen("127.0.0.1:0", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = host.Close(context.Background()) })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Autoplay = false

	reg := objref.NewRegistry(host.BaseURL())
	cls := classify.Default()
	session := viewer.New(viewer.Options{
		Loader:     content.NewLoader(reg),
		Slots:      lifecycle.NewManager(reg, logging.Discard()),
		Classifier: cls,
		Host:       host,
		Engine:     &visual.Engine{},
		Log:        logging.Discard(),
	})
	coll := archive.NewCollection(cls)
	for _, f := range files {
		coll.Add(f)
	}

	h := &harness{reg: reg}
	h.m = newModel(cfg, logging.Discard(), host.BaseURL(), coll, session)
	h.m.open = func(url string) error {
		h.opened = append(h.opened, url)
		return nil
	}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 30})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(model)
	return cmd
}

func (h *harness) key(k tea.KeyType) tea.Cmd { return h.send(tea.KeyMsg{Type: k}) }

func (h *harness) runes(s string) tea.Cmd {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// decode completes the pending decode of the active file.
func (h *harness) decode(t *testing.T) {
	t.Helper()
	msg := decodeCmd(h.m.ticket, h.m.width, h.m.style())()
	h.send(msg)
}

func TestModel_OpenRunClose(t *testing.T) {
	h := newHarness(t, archive.FromBytes("app.js", "text/javascript", []byte("console.log('hi')")))

	h.key(tea.KeyEnter)
	require.Equal(t, viewer.Open, h.m.session.State())
	assert.Equal(t, viewer.TextPending, h.m.session.TextState())

	h.decode(t)
	assert.Equal(t, "console.log('hi')", h.m.session.Text())

	h.runes("r")
	require.Equal(t, viewer.Run, h.m.session.Mode())
	sf := h.m.session.Surface()
	require.NotNil(t, sf)
	assert.Contains(t, h.m.View(), sf.URL)
	assert.Equal(t, "runs the script with console capture", h.m.status)

	h.runes("o")
	h.key(tea.KeyEsc)
	assert.Equal(t, viewer.Closed, h.m.session.State())
	assert.Equal(t, 0, h.reg.Stats().Live)
}

func TestModel_RunOpensBrowserOnce(t *testing.T) {
	h := newHarness(t, archive.FromBytes("page.html", "text/html", []byte("<p>hi</p>")))
	h.key(tea.KeyEnter)
	h.decode(t)

	cmd := h.runes("r")
	require.NotNil(t, cmd)
	h.send(cmd())
	require.Len(t, h.opened, 1)
	assert.Equal(t, h.m.session.Surface().URL, h.opened[0])

	assert.Nil(t, h.m.surfaceCmd(), "the same surface is not reopened")
}

func TestModel_StaleDecodeIgnored(t *testing.T) {
	h := newHarness(t,
		archive.FromBytes("a.py", "", []byte("print('a')")),
		archive.FromBytes("b.py", "", []byte("print('b')")),
	)
	h.key(tea.KeyEnter)
	first := h.m.ticket

	h.key(tea.KeyRight)
	assert.Equal(t, "b.py", h.m.session.File().Name)
	assert.Equal(t, 1, h.m.cursor, "cursor follows navigation")

	h.send(decodeCmd(first, 80, h.m.style())())
	assert.Equal(t, viewer.TextPending, h.m.session.TextState())

	h.decode(t)
	assert.Equal(t, "print('b')", h.m.session.Text())
}

func TestModel_FilterAndSearch(t *testing.T) {
	h := newHarness(t,
		archive.FromBytes("song.mp3", "audio/mpeg", []byte("x")),
		archive.FromBytes("main.go", "", []byte("package main")),
		archive.FromBytes("notes.txt", "text/plain", []byte("n")),
	)
	require.Len(t, h.m.files, 3)

	h.key(tea.KeyTab)
	assert.Equal(t, archive.GroupMedia, h.m.group)
	require.Len(t, h.m.files, 1)
	assert.Equal(t, "song.mp3", h.m.files[0].Name)

	for h.m.group != archive.GroupAll {
		h.key(tea.KeyTab)
	}

	h.runes("/")
	require.Equal(t, inputSearch, h.m.mode)
	h.runes("q")
	assert.False(t, h.m.quitting, "typing never triggers shortcuts")
	h.runes("uit")
	assert.Equal(t, "quit", h.m.query)
	assert.Empty(t, h.m.files)

	h.key(tea.KeyEsc)
	assert.Equal(t, inputNone, h.m.mode)
	assert.Empty(t, h.m.query)
	assert.Len(t, h.m.files, 3)
}

func TestModel_ImportPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte("body{}"), 0o644))

	h := newHarness(t)
	h.runes("i")
	require.Equal(t, inputImport, h.m.mode)
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(dir)})

	cmd := h.key(tea.KeyEnter)
	require.NotNil(t, cmd)
	h.send(cmd())
	assert.Equal(t, 1, h.m.coll.Len())
	assert.Equal(t, "imported 1 file(s)", h.m.status)
}

func TestModel_MediaKeysAndToast(t *testing.T) {
	h := newHarness(t, archive.FromBytes("song.mp3", "audio/mpeg", []byte(strings.Repeat("ab", 100))))
	h.key(tea.KeyEnter)

	h.key(tea.KeyDown)
	assert.InDelta(t, 0.9, h.m.session.Media().Volume, 1e-9, "down is volume inside the player")

	h.runes("m")
	text, visible := h.m.session.Media().Toast()
	require.True(t, visible)
	assert.Equal(t, "muted", text)
	assert.Contains(t, h.m.View(), "muted")

	h.send(toastHideMsg{seq: 1})
	_, visible = h.m.session.Media().Toast()
	assert.True(t, visible, "a stale hide leaves the newer toast up")
	h.send(toastHideMsg{seq: 2})
	_, visible = h.m.session.Media().Toast()
	assert.False(t, visible)

	h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.True(t, h.m.session.Media().Playing)
	token, ok := h.m.session.LoopToken()
	require.True(t, ok)
	assert.NotNil(t, h.send(frameMsg{token: token}), "frames reschedule while playing")

	h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Nil(t, h.send(frameMsg{token: token}), "paused loop stops")
}

func TestModel_ClosedImageIgnoresResizeAndLateRenders(t *testing.T) {
	h := newHarness(t, archive.FromBytes("p.png", "image/png", nil))
	h.key(tea.KeyEnter)
	gen := h.m.ticket.Gen
	require.NotZero(t, gen)

	h.key(tea.KeyEsc)
	require.Equal(t, viewer.Closed, h.m.session.State())

	assert.Nil(t, h.send(tea.WindowSizeMsg{Width: 90, Height: 20}), "no image work after close")
	h.send(imageRenderedMsg{gen: gen, out: "@@@"})
	assert.Empty(t, h.m.image)
}

func TestImportPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("1"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.js"), []byte("1"), 0o644))

	files, err := importPaths([]string{dir, filepath.Join(dir, "sub", "b.js"), filepath.Join(dir, "missing"), "  "})
	require.Error(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.js", files[0].Name)
	assert.Equal(t, "b.js", files[1].Name)
}

func TestRenderJSONPreview(t *testing.T) {
	out := renderJSONPreview(`{"b": [true, null], "a": 1.50, "big": 12345678901234567890}`, "nord")
	a, b := strings.Index(out, `"a"`), strings.Index(out, `"b"`)
	require.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, b, "keys are sorted")
	assert.Contains(t, out, "1.50", "numbers keep their spelling")
	assert.Contains(t, out, "12345678901234567890")
	assert.Contains(t, out, "null")

	bad := renderJSONPreview(`{oops`, "nord")
	assert.Contains(t, bad, "invalid JSON")
}

func TestRenderJSONPreview_CapsArrays(t *testing.T) {
	items := make([]string, maxJSONItems+5)
	for i := range items {
		items[i] = "0"
	}
	out := renderJSONPreview("["+strings.Join(items, ",")+"]", "nord")
	assert.Contains(t, out, "… 5 more items")
}

func TestRenderSource_Truncates(t *testing.T) {
	out := renderSource("big.txt", strings.Repeat("x", maxRenderBytes+10), 80, sourceStyle{highlight: "nord"})
	assert.True(t, strings.HasSuffix(out, truncatedNote))
}

func TestRenderImageASCII(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4)) // black
	out := renderImageASCII(img, 20, 11)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 8)
	for _, l := range lines {
		assert.Equal(t, strings.Repeat(" ", 18), l)
	}
	assert.Empty(t, renderImageASCII(image.NewGray(image.Rect(0, 0, 0, 0)), 20, 11))
}

func TestRenderBars(t *testing.T) {
	out := renderBars([]int{0, 1, 2}, 2)
	assert.Equal(t, "  █\n ██", out)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KB", humanSize(1536))
	assert.Equal(t, "2.0 MB", humanSize(2*1024*1024))
}

func TestVisibleWindow(t *testing.T) {
	start, end := visibleWindow(0, 3, 10)
	assert.Equal(t, [2]int{0, 3}, [2]int{start, end})
	start, end = visibleWindow(50, 100, 10)
	assert.Equal(t, [2]int{45, 55}, [2]int{start, end})
	start, end = visibleWindow(99, 100, 10)
	assert.Equal(t, [2]int{90, 100}, [2]int{start, end})
}
