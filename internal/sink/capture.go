package sink

import "sync"

// Update is one recorded sink call.
type Update struct {
	Kind   string // panel, line, table, tool, text, stats, error
	Title  string
	Text   string
	Style  Style
	Rows   [][]string
	Tool   string
	Detail string
	OK     bool
	Delta  bool
	KV     map[string]string
}

// Capture records every update in order. Used by tests and by machine
// (--json) mode, where rendering is suppressed.
type Capture struct {
	mu      sync.Mutex
	updates []Update
}

// Updates returns a copy of everything recorded so far.
func (c *Capture) Updates() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Update(nil), c.updates...)
}

// Errors returns just the recorded error messages.
func (c *Capture) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, u := range c.updates {
		if u.Kind == "error" {
			out = append(out, u.Text)
		}
	}
	return out
}

func (c *Capture) record(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *Capture) Panel(title, body string, style Style) {
	c.record(Update{Kind: "panel", Title: title, Text: body, Style: style})
}

func (c *Capture) Line(text string, style Style) {
	c.record(Update{Kind: "line", Text: text, Style: style})
}

func (c *Capture) Table(title string, rows [][]string) {
	c.record(Update{Kind: "table", Title: title, Rows: rows})
}

func (c *Capture) Tool(name, detail string, ok bool) {
	c.record(Update{Kind: "tool", Tool: name, Detail: detail, OK: ok})
}

func (c *Capture) Text(chunk string, delta bool) {
	c.record(Update{Kind: "text", Text: chunk, Delta: delta})
}

func (c *Capture) Stats(kv map[string]string) {
	copied := make(map[string]string, len(kv))
	for k, v := range kv {
		copied[k] = v
	}
	c.record(Update{Kind: "stats", KV: copied})
}

func (c *Capture) Error(msg string) {
	c.record(Update{Kind: "error", Text: msg})
}
