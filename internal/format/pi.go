package format

import (
	"encoding/json"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// piEvent is one line of the pi CLI's JSON stream. Tool execution is
// bracketed by start/end events; assistant text streams through nested
// message_update deltas.
type piEvent struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args"`
	IsError  bool           `json:"isError"`

	AssistantMessageEvent *piAssistantEvent `json:"assistantMessageEvent"`

	StopReason   string `json:"stopReason"`
	ErrorMessage string `json:"errorMessage"`
}

type piAssistantEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type piFormatter struct {
	sink  sink.Sink
	tools *toolTracker
	text  textAccum
}

func newPi(s sink.Sink) *piFormatter {
	return &piFormatter{sink: s, tools: newToolTracker(s)}
}

func (f *piFormatter) Line(line string) {
	var ev piEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	switch ev.Type {
	case "tool_execution_start":
		canon, _ := canonicalTool(ev.ToolName)
		f.tools.begin(ev.ID, ev.ToolName, toolDetail(canon, ev.Args))
	case "tool_execution_end":
		f.tools.finish(ev.ID, !ev.IsError)
	case "message_update":
		if ev.AssistantMessageEvent != nil && ev.AssistantMessageEvent.Type == "text_delta" {
			f.sink.Text(ev.AssistantMessageEvent.Text, true)
			f.text.delta(ev.AssistantMessageEvent.Text)
		}
	case "message_end":
		switch ev.StopReason {
		case "error", "aborted":
			msg := ev.ErrorMessage
			if msg == "" {
				msg = "backend stopped: " + ev.StopReason
			}
			f.sink.Error(msg)
		}
	}
}

func (f *piFormatter) Close() {
	f.tools.flush()
}

func (f *piFormatter) Summary() string {
	return f.text.String()
}
