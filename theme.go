package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zackbart/trove/internal/classify"
)

// ── color palette ──────────────────────────────────────────────────────────────
// A dark theme built around deep indigo / slate tones.
var (
	clrAccent    = lipgloss.Color("105") // soft violet – selected bg accent
	clrAccentFg  = lipgloss.Color("231") // near-white text on accent bg
	clrScript    = lipgloss.Color("114") // sage green – runnable code
	clrMedia     = lipgloss.Color("215") // warm amber – images / media
	clrDoc       = lipgloss.Color("189") // light lavender – documents
	clrMarkup    = lipgloss.Color("75")  // sky blue – html
	clrCode      = lipgloss.Color("222") // pale gold – plain code
	clrUnknown   = lipgloss.Color("203") // coral – unknown
	clrSize      = lipgloss.Color("244") // medium grey – file sizes
	clrMuted     = lipgloss.Color("240") // dark grey – decorative / dividers
	clrDim       = lipgloss.Color("238") // very dark grey – subtle bg hints
	clrTitle     = lipgloss.Color("147") // periwinkle – panel titles
	clrStatus    = lipgloss.Color("189") // lavender – status messages
	clrLoading   = lipgloss.Color("214") // orange – loading indicator
	clrScrollbar = lipgloss.Color("99")  // muted violet – scroll indicator
	clrError     = lipgloss.Color("203")
)

func categoryIcon(c classify.Category) string {
	switch c {
	case classify.Video:
		return "▶ "
	case classify.Audio:
		return "♪ "
	case classify.Image:
		return "⬡ "
	case classify.PDF:
		return "≡ "
	case classify.Markup:
		return "◇ "
	case classify.Script:
		return "⚡ "
	case classify.PlainCode:
		return "⟨⟩ "
	default:
		return "· "
	}
}

func categoryStyle(c classify.Category) lipgloss.Style {
	switch c {
	case classify.Video, classify.Audio, classify.Image:
		return lipgloss.NewStyle().Foreground(clrMedia)
	case classify.PDF:
		return lipgloss.NewStyle().Foreground(clrDoc)
	case classify.Markup:
		return lipgloss.NewStyle().Foreground(clrMarkup)
	case classify.Script:
		return lipgloss.NewStyle().Foreground(clrScript)
	case classify.PlainCode:
		return lipgloss.NewStyle().Foreground(clrCode)
	default:
		return lipgloss.NewStyle().Foreground(clrUnknown)
	}
}

// bar renders s as a full-width chrome row.
func bar(s string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(clrDim).
		PaddingLeft(1).
		Render(s)
}

// spread places left and right on one line of the given width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// trimVisual truncates s to at most n visible terminal columns, appending "…"
// if truncated.
func trimVisual(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	var sb strings.Builder
	used := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if used+rw > n-1 { // leave 1 cell for the ellipsis
			sb.WriteRune('…')
			break
		}
		sb.WriteRune(r)
		used += rw
	}
	return sb.String()
}

// padRight pads or truncates s to exactly n visible terminal columns.
func padRight(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return trimVisual(s, n)
	}
	return s + strings.Repeat(" ", n-w)
}

func humanSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	idx := 0
	for v >= 1024 && idx < len(units)-1 {
		v /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d %s", n, units[idx])
	}
	return fmt.Sprintf("%.1f %s", v, units[idx])
}

// visibleWindow returns [start, end) range of entries to show given height.
func visibleWindow(selected, total, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	// Keep selected roughly centred
	start := max(0, selected-height/2)
	end := start + height
	if end > total {
		end = total
		start = max(0, end-height)
	}
	return start, end
}
