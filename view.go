package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/viewer"
)

// mediaPanelRows is the height of the playback panel under an image.
const mediaPanelRows = 4

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return lipgloss.NewStyle().Foreground(clrLoading).Render("loading…")
	}

	bodyH := max(1, m.height-chromeRows)
	var body string
	if m.session.State() == viewer.Open {
		body = m.renderViewer(m.width, bodyH)
	} else {
		body = m.renderGrid(m.width, bodyH)
	}
	body = lipgloss.NewStyle().Width(m.width).Height(bodyH).MaxHeight(bodyH).Render(body)

	return m.renderTopBar(m.width) + "\n" + body + "\n" + m.renderBottomBar(m.width)
}

func (m model) renderTopBar(width int) string {
	title := lipgloss.NewStyle().Foreground(clrTitle).Bold(true).Render("trove")
	count := lipgloss.NewStyle().Foreground(clrMuted).Render(
		fmt.Sprintf("%d files  %s", m.coll.Len(), m.baseURL))
	return bar(spread(title, count, width-2), width)
}

// ── grid ──────────────────────────────────────────────────────────────────────

func (m model) renderGrid(w, h int) string {
	mutedStyle := lipgloss.NewStyle().Foreground(clrMuted)
	dimStyle := lipgloss.NewStyle().Foreground(clrDim)

	lines := []string{m.renderTabs(w), dimStyle.Render(strings.Repeat("─", max(1, w)))}

	listH := h - len(lines)
	if m.mode != inputNone {
		listH--
	}

	switch {
	case m.coll.Len() == 0:
		lines = append(lines, mutedStyle.Render("  (archive is empty: press i to import a file or folder)"))
	case len(m.files) == 0:
		lines = append(lines, mutedStyle.Render("  (no files match)"))
	default:
		lines = append(lines, m.renderFileList(w, max(1, listH))...)
	}

	out := lipgloss.NewStyle().Height(h - boolRows(m.mode != inputNone)).Render(strings.Join(lines, "\n"))
	if m.mode != inputNone {
		out += "\n" + m.input.View()
	}
	return out
}

func boolRows(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (m model) renderTabs(w int) string {
	active := lipgloss.NewStyle().Foreground(clrAccentFg).Background(clrAccent).Bold(true).Padding(0, 1)
	idle := lipgloss.NewStyle().Foreground(clrSize).Padding(0, 1)

	var tabs []string
	for _, g := range archive.Groups {
		if g == m.group {
			tabs = append(tabs, active.Render(g.String()))
		} else {
			tabs = append(tabs, idle.Render(g.String()))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.query != "" && m.mode != inputSearch {
		row += lipgloss.NewStyle().Foreground(clrMuted).Render("  /" + m.query)
	}
	return trimVisual(row, w)
}

func (m model) renderFileList(w, h int) []string {
	const sizeW = 9
	nameW := max(8, w-sizeW-1)
	scrollStyle := lipgloss.NewStyle().Foreground(clrScrollbar)

	start, end := visibleWindow(m.cursor, len(m.files), h)
	var lines []string
	if start > 0 {
		lines = append(lines, scrollStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
		start++
	}
	more := end < len(m.files)
	if more {
		end--
	}

	for i := start; i < end; i++ {
		f := m.files[i]
		cat := m.coll.Kind(f).Category
		entry := categoryIcon(cat) + f.Name
		size := fmt.Sprintf("%*s", sizeW, humanSize(f.Size))

		if i == m.cursor {
			sel := lipgloss.NewStyle().Foreground(clrAccentFg).Background(clrAccent).Bold(true)
			lines = append(lines, sel.Render(padRight(entry, w-sizeW)+size))
			continue
		}
		lines = append(lines,
			categoryStyle(cat).Render(padRight(entry, nameW+1))+
				lipgloss.NewStyle().Foreground(clrSize).Render(size))
	}

	if more {
		lines = append(lines, scrollStyle.Render(fmt.Sprintf("  ↓ %d more", len(m.files)-end)))
	}
	return lines
}

// ── viewer ────────────────────────────────────────────────────────────────────

func (m model) renderViewer(w, h int) string {
	s := m.session
	f := s.File()
	kind := s.Kind()

	left := categoryStyle(kind.Category).Bold(true).Render(trimVisual(categoryIcon(kind.Category)+f.Name, w/2))
	meta := kind.String() + "  " + humanSize(f.Size)
	if kind.Category.Runnable() {
		meta += "  " + s.Mode().String()
	}
	if s.TextState() == viewer.TextPending {
		meta = lipgloss.NewStyle().Foreground(clrLoading).Render("loading…")
	}
	header := bar(spread(left, lipgloss.NewStyle().Foreground(clrMuted).Render(meta), w-2), w)
	divider := lipgloss.NewStyle().Foreground(clrDim).Render(strings.Repeat("─", max(1, w)))

	bodyH := max(1, h-2)
	var body string
	switch {
	case s.Mode() == viewer.Run:
		body = m.renderRun(w)
	case kind.Category == classify.Audio:
		body = m.renderAudio(w, bodyH)
	case kind.Category == classify.Image:
		body = m.renderImage(bodyH)
	case kind.Category == classify.Video, kind.Category == classify.PDF:
		body = m.renderExternal()
	case kind.Category.NeedsText():
		body = m.renderSourceView()
	default:
		body = lipgloss.NewStyle().Foreground(clrMuted).Render(fmt.Sprintf(
			"  no preview for %s\n  declared type: %q\n  modified: %s",
			f.Name, f.MediaType, f.ModTime.Format("Jan 02 15:04")))
	}
	return header + "\n" + divider + "\n" + body
}

func (m model) renderSourceView() string {
	if m.session.TextState() == viewer.TextPending {
		return lipgloss.NewStyle().Foreground(clrLoading).Render("  decoding…")
	}
	return m.vp.View()
}

func (m model) renderRun(w int) string {
	s := m.session
	muted := lipgloss.NewStyle().Foreground(clrMuted)
	label := lipgloss.NewStyle().Foreground(clrTitle).Bold(true)

	if e := s.RunError(); e != "" {
		return lipgloss.NewStyle().Foreground(clrError).Render("  " + e)
	}
	if tr := s.Transcript(); tr != nil {
		return lipgloss.NewStyle().Foreground(clrCode).Width(w).Render(tr.String())
	}
	sf := s.Surface()
	if sf == nil {
		return lipgloss.NewStyle().Foreground(clrLoading).Render("  waiting for source…")
	}

	what := "document runs as-is"
	if !sf.Markup {
		what = "synthesized runner document"
	}
	lines := []string{
		label.Render("  running in sandbox"),
		"",
		"  " + lipgloss.NewStyle().Foreground(clrScript).Underline(true).Render(sf.URL),
		"",
		muted.Render("  " + what),
		muted.Render("  sandbox: " + sandbox.Flags),
		"",
		muted.Render("  press o to open in the browser, r to return to source"),
	}
	return strings.Join(lines, "\n")
}

func (m model) renderAudio(w, h int) string {
	s := m.session
	media := s.Media()

	barsH := max(1, h-mediaPanelRows)
	bars := renderBars(s.Bars(max(1, w-4), barsH), barsH)
	return lipgloss.NewStyle().PaddingLeft(2).Render(bars) + "\n\n" + m.renderTransport(media)
}

func (m model) renderImage(h int) string {
	out := m.image
	if out == "" {
		out = lipgloss.NewStyle().Foreground(clrLoading).Render("  rendering…")
	}
	out = lipgloss.NewStyle().Height(max(1, h-mediaPanelRows)).MaxHeight(max(1, h-mediaPanelRows)).Render(out)
	return out + "\n\n" + m.renderTransport(m.session.Media())
}

// renderTransport is the playback line shared by audio and the slideshow.
func (m model) renderTransport(media *viewer.Media) string {
	state := "▶ play"
	if media.Playing {
		state = "❚❚ pause"
	}
	vol := fmt.Sprintf("vol %d%%", int(media.Volume*100+0.5))
	if media.Muted {
		vol = "muted"
	}
	parts := []string{state, vol}
	if m.session.Kind().Category == classify.Audio {
		parts = append(parts, formatPosition(media.Position))
	} else if media.Playing {
		parts = append(parts, "slideshow")
	}
	line := "  " + lipgloss.NewStyle().Foreground(clrMedia).Render(strings.Join(parts, "   "))
	if text, ok := media.Toast(); ok {
		line += "   " + lipgloss.NewStyle().Foreground(clrAccentFg).Background(clrAccent).Padding(0, 1).Render(text)
	}
	return line
}

func (m model) renderExternal() string {
	u, _ := m.session.PreviewURL()
	return strings.Join([]string{
		lipgloss.NewStyle().Foreground(clrMuted).Render("  plays natively in the browser"),
		"",
		"  " + lipgloss.NewStyle().Foreground(clrMedia).Underline(true).Render(u),
		"",
		lipgloss.NewStyle().Foreground(clrMuted).Render("  press o to open"),
	}, "\n")
}

// ── bottom bar ────────────────────────────────────────────────────────────────

func (m model) renderBottomBar(width int) string {
	statusStyle := lipgloss.NewStyle().Foreground(clrStatus)
	icon := "●"
	if m.status == "ready" {
		icon = "◆"
		statusStyle = lipgloss.NewStyle().Foreground(clrScript)
	}
	status := bar(statusStyle.Render(icon+" "+trimVisual(m.status, max(1, width-3))), width)
	hints := bar(m.help.ShortHelpView(m.router.Hints(m.keyContext())), width)
	return status + "\n" + hints
}
