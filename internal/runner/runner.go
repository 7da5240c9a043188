// Package runner synthesizes the self-contained documents that run web code
// inside the sandboxed frame.
//
// The synthesizer only stitches strings. User code is embedded as a JSON
// string literal and evaluated by the document itself, so nothing here
// executes it, and a "</script>" inside user code cannot close the block.
// Output is a pure function of (text, dialect, file name).
package runner

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"

	"github.com/zackbart/trove/internal/classify"
)

// Pinned runtime for JSX documents. The sandboxed frame fetches these, not
// the host process.
const (
	ReactURL    = "https://unpkg.com/react@18.2.0/umd/react.development.js"
	ReactDOMURL = "https://unpkg.com/react-dom@18.2.0/umd/react-dom.development.js"
	BabelURL    = "https://unpkg.com/@babel/standalone@7.23.5/babel.min.js"
)

// ContentType of every synthesized document.
const ContentType = "text/html; charset=utf-8"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Document is a synthesized runner document.
type Document struct {
	Dialect  classify.Dialect
	FileName string
	HTML     string
}

// Bytes returns the document body.
func (d Document) Bytes() []byte { return []byte(d.HTML) }

type docData struct {
	Title    string
	FileName string
	Source   string
	Style    string
	Presets  string
	ReactURL string
	DOMURL   string
	BabelURL string
}

// Synthesize builds the runner document for a Script kind. Markup runs as the
// original file and plain code has no runner, so every other kind reports
// false.
func Synthesize(text string, kind classify.Kind, fileName string) (Document, bool) {
	if kind.Category != classify.Script {
		return Document{}, false
	}

	data := docData{
		Title:    html.EscapeString(fileName),
		FileName: jsString(sanitizeName(fileName)),
	}
	var name string
	switch kind.Dialect {
	case classify.JS:
		name = "js.html"
		data.Source = jsString(text + sourceURL(fileName))
	case classify.CSS:
		name = "css.html"
		data.Style = neutralizeStyleClose(text)
	case classify.JSX:
		name = "jsx.html"
		data.Source = jsString(StripModuleSyntax(text) + sourceURL(fileName))
		data.Presets = jsxPresets(fileName)
		data.ReactURL, data.DOMURL, data.BabelURL = ReactURL, ReactDOMURL, BabelURL
	default:
		return Document{}, false
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		// Templates are static and data is plain strings.
		panic(fmt.Sprintf("runner: execute %s: %v", name, err))
	}
	return Document{Dialect: kind.Dialect, FileName: fileName, HTML: buf.String()}, true
}

// jsString encodes s as a JavaScript string literal. encoding/json escapes
// <, > and & plus U+2028/U+2029, which keeps the literal safe inside an
// inline script.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail.
		panic(err)
	}
	return string(b)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)

func sanitizeName(name string) string {
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		return "untitled"
	}
	return name
}

func sourceURL(fileName string) string {
	return "\n//# sourceURL=" + sanitizeName(fileName)
}

var styleClose = regexp.MustCompile(`(?i)</style`)

func neutralizeStyleClose(css string) string {
	return styleClose.ReplaceAllString(css, `<\/style`)
}

func jsxPresets(fileName string) string {
	if classify.Extension(fileName) == "tsx" {
		return `[["typescript",{"isTSX":true,"allExtensions":true}],"react"]`
	}
	return `["react"]`
}

// Describe summarises what a run of src will do, for status lines.
func Describe(kind classify.Kind, src string) string {
	switch kind.Dialect {
	case classify.JSX:
		if HasAppBinding(StripModuleSyntax(src)) {
			return "mounts <App /> into #root"
		}
		return "no top-level App; nothing will be mounted"
	case classify.CSS:
		return "applies the stylesheet to a sample page"
	case classify.JS:
		return "runs the script with console capture"
	}
	return strings.TrimSpace(kind.String())
}
