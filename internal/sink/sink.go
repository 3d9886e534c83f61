// Package sink defines the rendering surface the engine emits
// structured updates to. The core never prints directly; CLI and web
// frontends plug in their own Sink.
package sink

// Style names a semantic rendering class. Console sinks map styles to
// colors; machine sinks may ignore them.
type Style string

// Semantic styles
const (
	StyleNone   Style = ""
	StyleAccent Style = "accent"
	StylePass   Style = "pass"
	StyleWarn   Style = "warn"
	StyleFail   Style = "fail"
	StyleDim    Style = "dim"
)

// Sink receives structured updates from the runner and formatters.
// Implementations must tolerate being called from the streaming path:
// no blocking I/O beyond their own output device.
type Sink interface {
	// Panel renders a large titled message.
	Panel(title, body string, style Style)
	// Line renders one plain or styled line.
	Line(text string, style Style)
	// Table renders structured tabular data.
	Table(title string, rows [][]string)
	// Tool traces one tool invocation with its outcome.
	Tool(name, detail string, ok bool)
	// Text renders an assistant text chunk. delta marks incremental
	// stream fragments; whole messages arrive with delta=false.
	Text(chunk string, delta bool)
	// Stats renders key/value metrics.
	Stats(kv map[string]string)
	// Error renders an error line.
	Error(msg string)
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Panel(string, string, Style) {}
func (Discard) Line(string, Style)          {}
func (Discard) Table(string, [][]string)    {}
func (Discard) Tool(string, string, bool)   {}
func (Discard) Text(string, bool)           {}
func (Discard) Stats(map[string]string)     {}
func (Discard) Error(string)                {}
