package format

import (
	"encoding/json"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// opencodeEvent is one line of the opencode CLI's JSON stream. Tool
// events carry their lifecycle in a nested state object; errors nest
// the message under data.
type opencodeEvent struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Text  string          `json:"text"`
	State *opencodeState  `json:"state"`
	Data  *opencodeDetail `json:"data"`
}

type opencodeState struct {
	Status string         `json:"status"`
	Input  map[string]any `json:"input"`
}

type opencodeDetail struct {
	Message string `json:"message"`
}

type opencodeFormatter struct {
	sink  sink.Sink
	tools *toolTracker
	text  textAccum
}

func newOpencode(s sink.Sink) *opencodeFormatter {
	return &opencodeFormatter{sink: s, tools: newToolTracker(s)}
}

func (f *opencodeFormatter) Line(line string) {
	var ev opencodeEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	switch ev.Type {
	case "tool_use":
		f.toolUse(&ev)
	case "text":
		if ev.Text != "" {
			f.sink.Text(ev.Text, false)
			f.text.whole(ev.Text)
		}
	case "error":
		if ev.Data != nil && ev.Data.Message != "" {
			f.sink.Error(ev.Data.Message)
		}
	}
}

func (f *opencodeFormatter) toolUse(ev *opencodeEvent) {
	status := ""
	detail := ""
	if ev.State != nil {
		status = ev.State.Status
		canon, _ := canonicalTool(ev.Name)
		detail = toolDetail(canon, ev.State.Input)
	}
	switch status {
	case "completed":
		f.tools.direct(ev.ID, ev.Name, detail, true)
	case "error", "failed":
		f.tools.direct(ev.ID, ev.Name, detail, false)
	default:
		f.tools.begin(ev.ID, ev.Name, detail)
	}
}

func (f *opencodeFormatter) Close() {
	f.tools.flush()
}

func (f *opencodeFormatter) Summary() string {
	return f.text.String()
}
