package runner

import "strings"

// nextSignificant returns the index of the first token after i that is not
// whitespace or a comment, or -1.
func nextSignificant(toks []token, i int) int {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].kind != tokSpace && toks[j].kind != tokComment {
			return j
		}
	}
	return -1
}

func prevSignificant(toks []token, i int) int {
	for j := i - 1; j >= 0; j-- {
		if toks[j].kind != tokSpace && toks[j].kind != tokComment {
			return j
		}
	}
	return -1
}

var exportedDecl = map[string]bool{
	"function": true, "class": true, "const": true, "let": true, "var": true, "async": true,
}

// statementStart reports whether token i can begin a top-level statement.
func statementStart(src string, toks []token, i int) bool {
	p := prevSignificant(toks, i)
	if p < 0 {
		return true
	}
	if t := toks[p]; t.kind == tokPunct {
		switch src[t.start] {
		case ';', '}':
			return true
		case '.':
			return false
		}
	}
	return strings.ContainsRune(src[toks[p].end:toks[i].start], '\n')
}

// StripModuleSyntax adapts module-style source to a classic script: at the
// top level it drops "export default", the "export" keyword in front of
// declarations, and whole static import statements (the runtime provides
// React and ReactDOM as globals). Removed text keeps its line breaks so
// error line numbers still match the original file. Occurrences inside
// strings, template literals, comments and nested blocks are left alone.
func StripModuleSyntax(src string) string {
	toks := tokenize(src)
	type cut struct{ start, end int }
	var cuts []cut

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent || t.depth != 0 {
			continue
		}
		switch t.text(src) {
		case "export":
			n := nextSignificant(toks, i)
			if n < 0 || toks[n].kind != tokIdent {
				continue
			}
			word := toks[n].text(src)
			switch {
			case word == "default":
				end := toks[n].end
				if s := n + 1; s < len(toks) && toks[s].kind == tokSpace {
					end = toks[s].start + leadingBlanks(toks[s].text(src))
				}
				cuts = append(cuts, cut{t.start, end})
				i = n
			case exportedDecl[word]:
				cuts = append(cuts, cut{t.start, toks[n].start})
				i = n - 1
			}
		case "import":
			if !statementStart(src, toks, i) {
				continue
			}
			n := nextSignificant(toks, i)
			if n < 0 {
				continue
			}
			if nt := toks[n]; nt.kind == tokPunct && (src[nt.start] == '(' || src[nt.start] == '.') {
				continue
			}
			end := -1
			for j := n; j < len(toks); j++ {
				if toks[j].kind == tokString && toks[j].depth == 0 {
					end = j
					break
				}
			}
			if end < 0 {
				continue
			}
			stop := toks[end].end
			if s := nextSignificant(toks, end); s >= 0 && toks[s].kind == tokPunct && src[toks[s].start] == ';' &&
				!strings.ContainsRune(src[toks[end].end:toks[s].start], '\n') {
				stop = toks[s].end
			}
			cuts = append(cuts, cut{t.start, stop})
			for i < len(toks) && toks[i].end <= stop {
				i++
			}
			i--
		}
	}

	if len(cuts) == 0 {
		return src
	}
	var sb strings.Builder
	sb.Grow(len(src))
	last := 0
	for _, c := range cuts {
		sb.WriteString(src[last:c.start])
		sb.WriteString(strings.Repeat("\n", strings.Count(src[c.start:c.end], "\n")))
		last = c.end
	}
	sb.WriteString(src[last:])
	return sb.String()
}

func leadingBlanks(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

// HasAppBinding reports whether src declares a top-level binding named App
// (function, class, const, let or var). The run document mounts App only
// when it exists.
func HasAppBinding(src string) bool {
	toks := tokenize(src)
	for i, t := range toks {
		if t.kind != tokIdent || t.depth != 0 {
			continue
		}
		switch t.text(src) {
		case "function", "class", "const", "let", "var":
		default:
			continue
		}
		n := nextSignificant(toks, i)
		// function* App
		if n >= 0 && toks[n].kind == tokPunct && src[toks[n].start] == '*' {
			n = nextSignificant(toks, n)
		}
		if n >= 0 && toks[n].kind == tokIdent && toks[n].text(src) == "App" {
			return true
		}
	}
	return false
}
