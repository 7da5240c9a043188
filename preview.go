package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
)

const maxRenderBytes = 256 * 1024

const truncatedNote = "\n\n... preview truncated ..."

// sourceStyle selects the chroma and glamour themes of the source view.
type sourceStyle struct {
	highlight string
	markdown  string
}

// renderSource renders decoded text for the source view.
func renderSource(name, text string, width int, st sourceStyle) string {
	truncated := len(text) > maxRenderBytes
	if truncated {
		text = text[:maxRenderBytes]
	}

	var out string
	switch classify.Extension(name) {
	case "md", "markdown", "mdx":
		out = renderMarkdownPreview(text, width, st.markdown)
	case "json":
		out = renderJSONPreview(text, st.highlight)
	default:
		out = highlight(name, text, st.highlight)
		if out == "" {
			out = text
		}
	}
	if truncated {
		out += truncatedNote
	}
	return out
}

func highlight(name, text, styleName string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return ""
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return ""
	}
	return buf.String()
}

func renderMarkdownPreview(markdown string, width int, styleName string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styleName),
		glamour.WithWordWrap(max(24, width-3)),
		glamour.WithTableWrap(true),
		glamour.WithPreservedNewLines(),
		glamour.WithEmoji(),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// ── JSON renderer ─────────────────────────────────────────────────────────────

const maxJSONItems = 100

// jsonTheme colours JSON values with the token colours of a chroma style, so
// the tree view matches the highlighted source view.
type jsonTheme struct {
	key, str, num, constant, punct lipgloss.Style
}

func newJSONTheme(styleName string) jsonTheme {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	pick := func(tt chroma.TokenType) lipgloss.Style {
		e := style.Get(tt)
		st := lipgloss.NewStyle()
		if e.Colour.IsSet() {
			st = st.Foreground(lipgloss.Color(e.Colour.String()))
		}
		if e.Bold == chroma.Yes {
			st = st.Bold(true)
		}
		return st
	}
	return jsonTheme{
		key:      pick(chroma.NameTag),
		str:      pick(chroma.LiteralString),
		num:      pick(chroma.LiteralNumber),
		constant: pick(chroma.KeywordConstant),
		punct:    pick(chroma.Punctuation),
	}
}

// renderJSONPreview prints text as an indented tree with sorted keys.
// Numbers keep their source spelling. Invalid JSON falls back to plain
// highlighting under an error line.
func renderJSONPreview(text, styleName string) string {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		errStyle := lipgloss.NewStyle().Foreground(clrError)
		body := highlight("data.json", text, styleName)
		if body == "" {
			body = text
		}
		return errStyle.Render("  invalid JSON: "+err.Error()) + "\n\n" + body
	}

	var sb strings.Builder
	newJSONTheme(styleName).write(&sb, v, 0)
	return sb.String()
}

func (th jsonTheme) write(sb *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	childIndent := strings.Repeat("  ", depth+1)

	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			sb.WriteString(th.punct.Render("{}"))
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(th.punct.Render("{") + "\n")
		for i, k := range keys {
			sb.WriteString(childIndent + th.key.Render(strconv.Quote(k)) + th.punct.Render(": "))
			th.write(sb, val[k], depth+1)
			if i < len(keys)-1 {
				sb.WriteString(th.punct.Render(","))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(indent + th.punct.Render("}"))

	case []any:
		if len(val) == 0 {
			sb.WriteString(th.punct.Render("[]"))
			return
		}
		sb.WriteString(th.punct.Render("[") + "\n")
		shown := min(len(val), maxJSONItems)
		for i, item := range val[:shown] {
			sb.WriteString(childIndent)
			th.write(sb, item, depth+1)
			if i < len(val)-1 {
				sb.WriteString(th.punct.Render(","))
			}
			sb.WriteString("\n")
		}
		if rest := len(val) - shown; rest > 0 {
			sb.WriteString(childIndent + th.punct.Render(fmt.Sprintf("… %d more items", rest)) + "\n")
		}
		sb.WriteString(indent + th.punct.Render("]"))

	case string:
		sb.WriteString(th.str.Render(strconv.Quote(val)))
	case json.Number:
		sb.WriteString(th.num.Render(val.String()))
	case bool:
		sb.WriteString(th.constant.Render(strconv.FormatBool(val)))
	case nil:
		sb.WriteString(th.constant.Render("null"))
	default:
		sb.WriteString(fmt.Sprint(val))
	}
}

// ── images ────────────────────────────────────────────────────────────────────

// imagePreview decodes f and renders it as ASCII art. Formats without a
// decoder (svg among them) report an error.
func imagePreview(f *archive.File, width, height int) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", f.Name, err)
	}
	out := renderImageASCII(img, width, height)
	if out == "" {
		return "", fmt.Errorf("decode %s: empty image", f.Name)
	}
	return out, nil
}

func renderImageASCII(img image.Image, width, height int) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}

	chars := []rune(" .:-=+*#%@")
	outW := max(16, width-2)
	outH := max(8, height-3)

	var sb strings.Builder
	for y := 0; y < outH; y++ {
		sy := b.Min.Y + (y*(b.Dy()-1))/max(1, outH-1)
		for x := 0; x < outW; x++ {
			sx := b.Min.X + (x*(b.Dx()-1))/max(1, outW-1)
			idx := int(luminance(img.At(sx, sy)) * float64(len(chars)-1) / 255.0)
			idx = max(0, min(len(chars)-1, idx))
			sb.WriteRune(chars[idx])
		}
		if y < outH-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	rf := float64(r>>8) * 0.299
	gf := float64(g>>8) * 0.587
	bf := float64(b>>8) * 0.114
	return rf + gf + bf
}

// ── audio ─────────────────────────────────────────────────────────────────────

// renderBars draws bar heights as columns, tallest at the bottom row.
func renderBars(bars []int, height int) string {
	style := lipgloss.NewStyle().Foreground(clrMedia)
	rows := make([]string, height)
	for r := 0; r < height; r++ {
		level := height - r
		var sb strings.Builder
		for _, b := range bars {
			if b >= level {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		rows[r] = style.Render(sb.String())
	}
	return strings.Join(rows, "\n")
}

func formatPosition(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
