package format

import (
	"encoding/json"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// geminiEvent is one line of the gemini CLI's JSON stream. Messages
// arrive whole; the stream never uses deltas.
type geminiEvent struct {
	Type    string         `json:"type"`
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Input   map[string]any `json:"input"`
	Content string         `json:"content"`
	Text    string         `json:"text"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Stats   *geminiStats   `json:"stats"`
}

type geminiStats struct {
	DurationMS  int64 `json:"duration_ms"`
	TotalTokens int64 `json:"total_tokens"`
}

type geminiFormatter struct {
	sink  sink.Sink
	tools *toolTracker
	text  textAccum
	stats usageStats
}

func newGemini(s sink.Sink) *geminiFormatter {
	return &geminiFormatter{sink: s, tools: newToolTracker(s)}
}

func (f *geminiFormatter) Line(line string) {
	var ev geminiEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	switch ev.Type {
	case "tool_use":
		canon, _ := canonicalTool(ev.Name)
		f.tools.begin(ev.ID, ev.Name, toolDetail(canon, ev.Input))
	case "tool_result":
		ok := ev.Status != "error" && ev.Status != "failed"
		f.tools.finish(ev.ID, ok)
	case "message":
		text := ev.Content
		if text == "" {
			text = ev.Text
		}
		if strings.TrimSpace(text) != "" {
			f.sink.Text(text, false)
			f.text.whole(text)
		}
	case "result":
		// the status label passes through verbatim
		if ev.Status != "" {
			f.stats.set("status", ev.Status)
		}
		if ev.Stats != nil {
			f.stats.setDurationSec(float64(ev.Stats.DurationMS) / 1000)
			f.stats.setTokens(ev.Stats.TotalTokens)
		}
		f.stats.emit(f.sink)
	case "error":
		if ev.Message != "" {
			f.sink.Error(ev.Message)
		}
	}
}

func (f *geminiFormatter) Close() {
	f.tools.flush()
	f.stats.emit(f.sink)
}

func (f *geminiFormatter) Summary() string {
	return f.text.String()
}
