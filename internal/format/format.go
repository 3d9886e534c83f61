// Package format normalises backend JSON-line output into sink updates.
//
// Each backend CLI speaks its own streaming dialect. A Formatter consumes
// raw lines in order, renders tool invocations, assistant text and
// statistics through a sink.Sink, and accumulates the assistant text for
// a final summary. Malformed JSON lines are dropped.
package format

import (
	"fmt"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// Formatter consumes one backend's output stream. Line is called once
// per complete output line, in arrival order, from a single goroutine.
// Close flushes any unresolved tool calls as successes.
type Formatter interface {
	Line(line string)
	Close()
	Summary() string
}

// New returns the formatter for the named backend. Unknown names get
// the codex formatter, matching backend selection fallback.
func New(cli string, s sink.Sink) Formatter {
	switch cli {
	case "claude":
		return newClaude(s)
	case "opencode":
		return newOpencode(s)
	case "gemini":
		return newGemini(s)
	case "pi":
		return newPi(s)
	default:
		return newCodex(s)
	}
}

const maxDetailCols = 80

var toolAliases = map[string]string{
	"read":                "read",
	"read_file":           "read",
	"open":                "read",
	"click":               "read",
	"screenshot":          "read",
	"write":               "write",
	"write_file":          "write",
	"edit":                "edit",
	"replace":             "edit",
	"apply_patch":         "edit",
	"bash":                "bash",
	"run_shell_command":   "bash",
	"exec_command":        "bash",
	"write_stdin":         "bash",
	"glob":                "glob",
	"find":                "glob",
	"grep":                "grep",
	"search_file_content": "grep",
	"search":              "search",
	"image_query":         "search",
	"search_query":        "search",
	"task":                "task",
	"parallel":            "task",
}

// canonicalTool maps a vendor tool name to its canonical form. Names
// with dots are reduced to the segment after the last dot before
// lowercasing. Unknown names pass through unchanged with known=false.
func canonicalTool(name string) (string, bool) {
	if strings.HasPrefix(name, "mcp__") {
		return "task", true
	}
	reduced := name
	if i := strings.LastIndex(reduced, "."); i >= 0 {
		reduced = reduced[i+1:]
	}
	reduced = strings.ToLower(reduced)
	if canon, ok := toolAliases[reduced]; ok {
		return canon, true
	}
	return name, false
}

// summarizeShell reduces a shell command to a one-line detail string.
func summarizeShell(cmd string) string {
	cmd = unwrapShell(strings.TrimSpace(cmd))
	lines := strings.Split(cmd, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "set -euo pipefail" {
		lines = lines[1:]
	}
	var body []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			body = append(body, strings.TrimSpace(l))
		}
	}
	if len(body) == 0 {
		return ""
	}
	first := stripLeadingCD(body[0])
	if len(body) > 1 {
		first = fmt.Sprintf("%s (+%d more lines)", first, len(body)-1)
	}
	return truncate(first, maxDetailCols)
}

// unwrapShell strips the `<shell> -lc '<inner>'` wrapper some backends
// put around commands.
func unwrapShell(cmd string) string {
	fields := strings.SplitN(cmd, " ", 3)
	if len(fields) != 3 {
		return cmd
	}
	prog := fields[0]
	if !strings.HasSuffix(prog, "shell") && prog != "bash" && prog != "sh" {
		return cmd
	}
	if fields[1] != "-lc" && fields[1] != "-c" {
		return cmd
	}
	inner := strings.TrimSpace(fields[2])
	if len(inner) >= 2 && inner[0] == '\'' && inner[len(inner)-1] == '\'' {
		inner = inner[1 : len(inner)-1]
	}
	return inner
}

func stripLeadingCD(line string) string {
	if !strings.HasPrefix(line, "cd ") {
		return line
	}
	if i := strings.Index(line, " && "); i >= 0 {
		return line[i+4:]
	}
	return line
}

func truncate(s string, cols int) string {
	runes := []rune(s)
	if len(runes) <= cols {
		return s
	}
	return string(runes[:cols-1]) + "…"
}

// toolDetail extracts a short human detail from a tool's input object.
func toolDetail(canon string, input map[string]any) string {
	if input == nil {
		return ""
	}
	if canon == "bash" {
		if cmd, ok := input["command"].(string); ok {
			return summarizeShell(cmd)
		}
	}
	for _, key := range []string{"file_path", "path", "pattern", "query", "command", "description", "prompt", "url"} {
		if v, ok := input[key].(string); ok && v != "" {
			return truncate(strings.TrimSpace(v), maxDetailCols)
		}
	}
	return ""
}

// toolCall is a tool invocation awaiting its result event.
type toolCall struct {
	name   string
	detail string
	known  bool
}

// toolTracker buffers pending tool calls and dedups by event id so a
// call seen both as a partial stream and as a consolidated message
// renders once.
type toolTracker struct {
	sink    sink.Sink
	order   []string
	pending map[string]*toolCall
	done    map[string]bool
}

func newToolTracker(s sink.Sink) *toolTracker {
	return &toolTracker{sink: s, pending: map[string]*toolCall{}, done: map[string]bool{}}
}

func (t *toolTracker) begin(id, rawName, detail string) {
	if t.done[id] {
		return
	}
	if p, ok := t.pending[id]; ok {
		if detail != "" {
			p.detail = detail
		}
		return
	}
	canon, known := canonicalTool(rawName)
	t.pending[id] = &toolCall{name: canon, detail: detail, known: known}
	t.order = append(t.order, id)
}

func (t *toolTracker) finish(id string, ok bool) {
	if t.done[id] {
		return
	}
	p, exists := t.pending[id]
	if !exists {
		return
	}
	delete(t.pending, id)
	t.done[id] = true
	t.emit(p, ok)
}

// direct renders a consolidated tool event that carries both the call
// and its outcome in one record.
func (t *toolTracker) direct(id, rawName, detail string, ok bool) {
	if id != "" {
		if t.done[id] {
			return
		}
		if _, exists := t.pending[id]; exists {
			t.finish(id, ok)
			return
		}
		t.done[id] = true
	}
	canon, known := canonicalTool(rawName)
	t.emit(&toolCall{name: canon, detail: detail, known: known}, ok)
}

// flush renders remaining pendings as successes, in begin order.
func (t *toolTracker) flush() {
	for _, id := range t.order {
		p, exists := t.pending[id]
		if !exists {
			continue
		}
		delete(t.pending, id)
		t.done[id] = true
		t.emit(p, true)
	}
	t.order = nil
}

func (t *toolTracker) emit(p *toolCall, ok bool) {
	if p.known {
		t.sink.Tool(p.name, p.detail, ok)
		return
	}
	line := p.name
	if p.detail != "" {
		line += " " + p.detail
	}
	t.sink.Line(line, sink.StyleDim)
}

// textAccum collects assistant text across deltas and whole messages.
type textAccum struct {
	b strings.Builder
}

func (a *textAccum) delta(s string) {
	a.b.WriteString(s)
}

func (a *textAccum) whole(s string) {
	if a.b.Len() > 0 && !strings.HasSuffix(a.b.String(), "\n") {
		a.b.WriteByte('\n')
	}
	a.b.WriteString(s)
}

func (a *textAccum) String() string {
	return strings.TrimSpace(a.b.String())
}

// usageStats builds the statistics map vendors report at stream end.
type usageStats struct {
	fields map[string]string
}

func (u *usageStats) set(key, val string) {
	if u.fields == nil {
		u.fields = map[string]string{}
	}
	u.fields[key] = val
}

func (u *usageStats) setDurationSec(sec float64) {
	if sec > 0 {
		u.set("duration", fmt.Sprintf("%.1fs", sec))
	}
}

func (u *usageStats) setCostUSD(usd float64) {
	if usd > 0 {
		u.set("cost", fmt.Sprintf("$%.4f", usd))
	}
}

func (u *usageStats) setTokens(n int64) {
	if n > 0 {
		u.set("tokens", fmt.Sprintf("%d", n))
	}
}

func (u *usageStats) emit(s sink.Sink) {
	if len(u.fields) == 0 {
		return
	}
	s.Stats(u.fields)
	u.fields = nil
}
