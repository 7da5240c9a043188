// Package terminal fabricates the run transcript for languages trove cannot
// execute. It is a simulation: nothing is compiled or run, and every
// transcript says so.
package terminal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zackbart/trove/internal/classify"
)

// Banner heads every simulated transcript.
const Banner = "[simulation] no code was executed; output below is synthesized from the source"

// Transcript is a fabricated terminal session.
type Transcript struct {
	Command   string
	Lines     []string
	ExitCode  int
	Simulated bool
}

// String renders the transcript as terminal text.
func (t Transcript) String() string {
	var sb strings.Builder
	sb.WriteString(Banner)
	sb.WriteString("\n\n$ ")
	sb.WriteString(t.Command)
	sb.WriteByte('\n')
	for _, l := range t.Lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nProcess exited with code ")
	sb.WriteString(strconv.Itoa(t.ExitCode))
	return sb.String()
}

type language struct {
	name    string
	command func(file string) string
}

var languages = map[string]language{
	"go":    {"Go", func(f string) string { return "go run " + f }},
	"py":    {"Python", func(f string) string { return "python3 " + f }},
	"rb":    {"Ruby", func(f string) string { return "ruby " + f }},
	"rs":    {"Rust", func(f string) string { return "rustc " + f + " -o main && ./main" }},
	"c":     {"C", func(f string) string { return "cc " + f + " -o main && ./main" }},
	"cpp":   {"C++", func(f string) string { return "c++ " + f + " -o main && ./main" }},
	"cc":    {"C++", func(f string) string { return "c++ " + f + " -o main && ./main" }},
	"java":  {"Java", func(f string) string { return "java " + f }},
	"cs":    {"C#", func(f string) string { return "dotnet run " + f }},
	"php":   {"PHP", func(f string) string { return "php " + f }},
	"swift": {"Swift", func(f string) string { return "swift " + f }},
	"kt":    {"Kotlin", func(f string) string { return "kotlinc " + f + " -include-runtime -d main.jar && java -jar main.jar" }},
	"sh":    {"Shell", func(f string) string { return "sh " + f }},
	"bash":  {"Bash", func(f string) string { return "bash " + f }},
	"lua":   {"Lua", func(f string) string { return "lua " + f }},
	"ts":    {"TypeScript", func(f string) string { return "npx tsx " + f }},
	"dart":  {"Dart", func(f string) string { return "dart run " + f }},
	"r":     {"R", func(f string) string { return "Rscript " + f }},
}

// printCall matches the string literal argument of common print statements.
var printCall = regexp.MustCompile(
	`(?:fmt\.Print(?:ln|f)?|print(?:ln|f)?|puts|echo|console\.log|System\.out\.print(?:ln)?|Console\.WriteLine|println!|print!)\s*\(?\s*("(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*')`)

// Simulate builds a deterministic transcript for fileName. Output lines are
// the literals passed to print-like calls, in source order.
func Simulate(fileName, text string) Transcript {
	ext := classify.Extension(fileName)
	lang, ok := languages[ext]
	cmd := "./" + fileName
	if ok {
		cmd = lang.command(fileName)
	}

	var lines []string
	for _, m := range printCall.FindAllStringSubmatch(text, -1) {
		lines = append(lines, unquote(m[1]))
	}
	if len(lines) == 0 {
		name := "program"
		if ok {
			name = lang.name + " program"
		}
		lines = []string{name + " finished with no output"}
	}
	return Transcript{Command: cmd, Lines: lines, Simulated: true}
}

func unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	body := lit[1 : len(lit)-1]
	quoted := lit
	if lit[0] == '\'' {
		// Re-quote with double quotes: \' needs no escape there, " does.
		inner := strings.ReplaceAll(body, `\'`, `'`)
		quoted = `"` + strings.ReplaceAll(inner, `"`, `\"`) + `"`
	}
	if s, err := strconv.Unquote(quoted); err == nil {
		body = s
	}
	// Format verbs and trailing newlines are artifacts of the call, not output.
	body = strings.TrimRight(body, "\n")
	return strings.NewReplacer("%s", "…", "%d", "0", "%v", "…", "\\n", "").Replace(body)
}
