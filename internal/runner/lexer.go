package runner

import "strings"

// A small JavaScript lexer. It only knows enough to tell code apart from
// strings, template literals, comments, regex literals and JSX elements, and
// to track nesting depth, so module syntax can be rewritten without touching
// text that merely looks like it. A JSX element, children included, is one
// opaque token: its text may hold quotes or slashes that mean nothing to JS.

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokComment
	tokString
	tokTemplate
	tokRegex
	tokJSX
	tokNumber
	tokIdent
	tokPunct
)

type token struct {
	kind       tokenKind
	start, end int
	// depth is the bracket nesting level the token starts at.
	depth int
}

func (t token) text(src string) string { return src[t.start:t.end] }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// keywords after which a slash starts a regex literal.
var regexAfter = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

func tokenize(src string) []token {
	var toks []token
	depth := 0
	prevSignificant := -1
	regexAllowed := func() bool {
		if prevSignificant < 0 {
			return true
		}
		p := toks[prevSignificant]
		switch p.kind {
		case tokIdent:
			return regexAfter[p.text(src)]
		case tokPunct:
			// "</" is far more often a JSX closing tag than a regex.
			c := src[p.start]
			return c != ')' && c != ']' && c != '}' && c != '<'
		case tokString, tokTemplate, tokRegex, tokJSX, tokNumber:
			return false
		}
		return true
	}

	for i := 0; i < len(src); {
		c := src[i]
		start := i
		var kind tokenKind
		tokDepth := depth

		switch {
		case isSpace(c):
			for i < len(src) && isSpace(src[i]) {
				i++
			}
			kind = tokSpace
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLineComment(src, i)
			kind = tokComment
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i)
			kind = tokComment
		case c == '\'' || c == '"':
			i = skipString(src, i)
			kind = tokString
		case c == '`':
			i = skipTemplate(src, i)
			kind = tokTemplate
		case c == '<' && regexAllowed() && jsxStartAt(src, i):
			i = skipJSX(src, i)
			kind = tokJSX
		case c == '/' && regexAllowed():
			i = skipRegex(src, i)
			kind = tokRegex
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			i++
			for i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			kind = tokNumber
		case isIdentStart(c):
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			kind = tokIdent
		default:
			switch c {
			case '{', '(', '[':
				depth++
			case '}', ')', ']':
				if depth > 0 {
					depth--
				}
				tokDepth = depth
			}
			i++
			kind = tokPunct
		}

		toks = append(toks, token{kind: kind, start: start, end: i, depth: tokDepth})
		if kind != tokSpace && kind != tokComment {
			prevSignificant = len(toks) - 1
		}
	}
	return toks
}

func skipLineComment(src string, i int) int {
	if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(src)
}

func skipBlockComment(src string, i int) int {
	if j := strings.Index(src[i+2:], "*/"); j >= 0 {
		return i + 2 + j + 2
	}
	return len(src)
}

func skipString(src string, i int) int {
	quote := src[i]
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			// Unterminated; stop at the line end like a parser would.
			return i
		}
		i++
	}
	return len(src)
}

func skipTemplate(src string, i int) int {
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
			continue
		case src[i] == '`':
			return i + 1
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			i = skipSubstitution(src, i+2)
			continue
		}
		i++
	}
	return len(src)
}

// skipSubstitution scans a ${...} body starting after "${" and returns the
// index after its closing brace.
func skipSubstitution(src string, i int) int {
	depth := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			i = skipString(src, i)
			continue
		case c == '`':
			i = skipTemplate(src, i)
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLineComment(src, i)
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i)
			continue
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return i + 1
			}
			depth--
		}
		i++
	}
	return len(src)
}

func skipRegex(src string, i int) int {
	i++
	inClass := false
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(src) && isIdentPart(src[i]) {
					i++
				}
				return i
			}
		case '\n':
			return i
		}
		i++
	}
	return len(src)
}

// jsxStartAt reports whether the '<' at i opens a JSX element: a fragment
// "<>" or a tag name followed by whitespace, '>' or '/'. "<T,>" and
// comparisons such as "< b" do not qualify.
func jsxStartAt(src string, i int) bool {
	j := i + 1
	if j < len(src) && src[j] == '>' {
		return true
	}
	if j >= len(src) || !isIdentStart(src[j]) {
		return false
	}
	for j < len(src) && (isIdentPart(src[j]) || src[j] == '.' || src[j] == '-' || src[j] == ':') {
		j++
	}
	return j < len(src) && (isSpace(src[j]) || src[j] == '>' || src[j] == '/')
}

// skipJSX scans the element opened at i, children and closing tag
// included, and returns the index after it.
func skipJSX(src string, i int) int {
	open := 0
	for i < len(src) && src[i] == '<' {
		closing := i+1 < len(src) && src[i+1] == '/'
		var selfClosing bool
		i, selfClosing = skipTag(src, i)
		switch {
		case closing:
			open--
		case !selfClosing:
			open++
		}
		if open <= 0 {
			return i
		}
		// Children are text up to the next tag; only braces hold code.
		for i < len(src) && src[i] != '<' {
			if src[i] == '{' {
				i = skipJSXExpr(src, i+1)
				continue
			}
			i++
		}
	}
	return len(src)
}

// skipTag scans one tag starting at '<' and returns the index after its
// '>' and whether it was self-closing.
func skipTag(src string, i int) (int, bool) {
	i++
	for i < len(src) {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			// Attribute strings have no escapes and may span lines.
			if j := strings.IndexByte(src[i+1:], c); j >= 0 {
				i += j + 2
				continue
			}
			return len(src), false
		case c == '{':
			i = skipJSXExpr(src, i+1)
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '>':
			return i + 2, true
		case c == '>':
			return i + 1, false
		}
		i++
	}
	return len(src), false
}

// jsxAfter holds the characters after which '<' inside an embedded
// expression starts an element rather than a comparison.
const jsxAfter = "(,=?:&|{[!>;"

// skipJSXExpr scans an embedded {...} expression starting after its '{'
// and returns the index after the closing brace. Elements nested in the
// expression are skipped whole.
func skipJSXExpr(src string, i int) int {
	depth := 0
	var prev byte = '{'
	prevWord := ""
	for i < len(src) {
		c := src[i]
		switch {
		case isSpace(c):
			i++
			continue
		case c == '\'' || c == '"':
			i = skipString(src, i)
			prev, prevWord = '"', ""
			continue
		case c == '`':
			i = skipTemplate(src, i)
			prev, prevWord = '`', ""
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLineComment(src, i)
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i)
			continue
		case c == '<' && (strings.IndexByte(jsxAfter, prev) >= 0 || prevWord == "return") && jsxStartAt(src, i):
			i = skipJSX(src, i)
			prev, prevWord = ')', ""
			continue
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			prev, prevWord = 'a', src[i:j]
			i = j
			continue
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return i + 1
			}
			depth--
		}
		prev, prevWord = c, ""
		i++
	}
	return len(src)
}
