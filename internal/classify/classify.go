// Package classify maps an imported file to the single category that decides
// how it is previewed and whether it can run.
package classify

import "strings"

// Category is the broad render category of a file.
type Category int

const (
	Unknown Category = iota
	Video
	Audio
	Image
	PDF
	Markup
	Script
	PlainCode
)

func (c Category) String() string {
	switch c {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Image:
		return "image"
	case PDF:
		return "pdf"
	case Markup:
		return "markup"
	case Script:
		return "script"
	case PlainCode:
		return "code"
	default:
		return "unknown"
	}
}

// NeedsText reports whether the category shows decoded text.
func (c Category) NeedsText() bool {
	return c == Markup || c == Script || c == PlainCode
}

// Runnable reports whether the category has a Run mode, real or simulated.
func (c Category) Runnable() bool {
	return c == Markup || c == Script || c == PlainCode
}

// Media reports whether the category has a playback sub-state.
func (c Category) Media() bool {
	return c == Audio || c == Image
}

// Dialect is the runnable code kind of a Script file.
type Dialect int

const (
	DialectNone Dialect = iota
	JS
	CSS
	JSX
)

func (d Dialect) String() string {
	switch d {
	case JS:
		return "js"
	case CSS:
		return "css"
	case JSX:
		return "jsx"
	default:
		return ""
	}
}

// Kind is the full classification result.
type Kind struct {
	Category Category
	Dialect  Dialect
}

func (k Kind) String() string {
	if k.Category == Script {
		return "script(" + k.Dialect.String() + ")"
	}
	return k.Category.String()
}

// DefaultCodeExtensions are treated as plain code when nothing more specific
// matches.
var DefaultCodeExtensions = []string{
	"go", "ts", "py", "rb", "rs", "c", "cpp", "cc", "h", "hpp", "java", "cs",
	"php", "swift", "kt", "sh", "bash", "zsh", "fish", "lua", "ex", "exs",
	"hs", "ml", "clj", "scala", "sql", "r", "dart", "vue", "svelte",
	"md", "markdown", "txt", "rst", "json", "yaml", "yml", "toml", "ini",
	"xml", "csv", "env", "conf", "log", "dockerfile", "makefile",
}

// Classifier classifies files against a configured code-extension set.
type Classifier struct {
	codeExts map[string]struct{}
}

// New builds a Classifier. Extensions may be given with or without a
// leading dot and in any case.
func New(codeExts []string) *Classifier {
	set := make(map[string]struct{}, len(codeExts))
	for _, e := range codeExts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &Classifier{codeExts: set}
}

// Default returns a Classifier using DefaultCodeExtensions.
func Default() *Classifier {
	return New(DefaultCodeExtensions)
}

// Extension returns the lower-cased text after the final dot of name, or the
// whole lower-cased name when it has no dot.
func Extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return strings.ToLower(name[i+1:])
	}
	return strings.ToLower(name)
}

// Classify maps a file name and its declared media type to exactly one Kind.
// The declared type is trusted first for binary formats, the extension only
// for text-like formats.
func (c *Classifier) Classify(name, mediaType string) Kind {
	ext := Extension(name)
	switch {
	case strings.HasPrefix(mediaType, "video/"):
		return Kind{Category: Video}
	case strings.HasPrefix(mediaType, "audio/"):
		return Kind{Category: Audio}
	case strings.HasPrefix(mediaType, "image/"):
		return Kind{Category: Image}
	case mediaType == "application/pdf":
		return Kind{Category: PDF}
	case ext == "html" || ext == "htm":
		return Kind{Category: Markup}
	case ext == "jsx" || ext == "tsx":
		return Kind{Category: Script, Dialect: JSX}
	case ext == "js":
		return Kind{Category: Script, Dialect: JS}
	case ext == "css":
		return Kind{Category: Script, Dialect: CSS}
	}
	if _, ok := c.codeExts[ext]; ok || strings.HasPrefix(mediaType, "text/") {
		return Kind{Category: PlainCode}
	}
	return Kind{Category: Unknown}
}
