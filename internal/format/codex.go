package format

import (
	"encoding/json"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// codexEvent is one line of the codex CLI's experimental JSON stream.
type codexEvent struct {
	Type     string         `json:"type"`
	Item     *codexItem     `json:"item"`
	Response *codexResponse `json:"response"`
	Usage    *codexUsage    `json:"usage"`
	Message  string         `json:"message"`
}

type codexItem struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Command  string `json:"command"`
	Query    string `json:"query"`
	Text     string `json:"text"`
	Status   string `json:"status"`
	ExitCode *int   `json:"exit_code"`

	Arguments json.RawMessage `json:"arguments"`
}

type codexResponse struct {
	Usage *codexUsage `json:"usage"`
}

type codexUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type codexFormatter struct {
	sink  sink.Sink
	tools *toolTracker
	text  textAccum
	stats usageStats
}

func newCodex(s sink.Sink) *codexFormatter {
	return &codexFormatter{sink: s, tools: newToolTracker(s)}
}

func (f *codexFormatter) Line(line string) {
	var ev codexEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	switch ev.Type {
	case "item.started", "item.updated":
		f.itemStarted(ev.Item)
	case "item.completed":
		f.itemCompleted(ev.Item)
	case "response.completed", "turn.completed":
		usage := ev.Usage
		if usage == nil && ev.Response != nil {
			usage = ev.Response.Usage
		}
		if usage != nil {
			total := usage.TotalTokens
			if total == 0 {
				total = usage.InputTokens + usage.OutputTokens
			}
			f.stats.setTokens(total)
		}
		f.stats.emit(f.sink)
	case "error", "turn.failed":
		if ev.Message != "" {
			f.sink.Error(ev.Message)
		}
	}
}

func (f *codexFormatter) itemStarted(item *codexItem) {
	if item == nil {
		return
	}
	name, detail, ok := codexToolFields(item)
	if !ok {
		return
	}
	f.tools.begin(item.ID, name, detail)
}

func (f *codexFormatter) itemCompleted(item *codexItem) {
	if item == nil {
		return
	}
	switch item.Type {
	case "agent_message", "message":
		if item.Text != "" {
			f.sink.Text(item.Text, false)
			f.text.whole(item.Text)
		}
	case "reasoning":
		// thinking traces stay off the console
	case "error":
		if item.Text != "" {
			f.sink.Error(item.Text)
		}
	default:
		name, detail, isTool := codexToolFields(item)
		if !isTool {
			return
		}
		f.tools.begin(item.ID, name, detail)
		f.tools.finish(item.ID, codexOutcome(item))
	}
}

// codexToolFields maps an item to a tool name and detail, reporting
// whether the item represents a tool invocation at all.
func codexToolFields(item *codexItem) (name, detail string, ok bool) {
	switch item.Type {
	case "command_execution", "local_shell_call":
		return "bash", summarizeShell(item.Command), true
	case "tool_call", "function_call", "custom_tool_call":
		detail := ""
		if len(item.Arguments) > 0 {
			var input map[string]any
			if err := json.Unmarshal(item.Arguments, &input); err == nil {
				canon, _ := canonicalTool(item.Name)
				detail = toolDetail(canon, input)
			}
		}
		return item.Name, detail, true
	case "file_search_call", "web_search_call":
		return "search", truncate(strings.TrimSpace(item.Query), maxDetailCols), true
	case "patch_apply", "file_change":
		return "edit", "", true
	}
	return "", "", false
}

// codexOutcome: exit_code zero wins, otherwise status strings decide.
func codexOutcome(item *codexItem) bool {
	if item.ExitCode != nil {
		return *item.ExitCode == 0
	}
	switch item.Status {
	case "error", "failed", "aborted":
		return false
	}
	return true
}

func (f *codexFormatter) Close() {
	f.tools.flush()
	f.stats.emit(f.sink)
}

func (f *codexFormatter) Summary() string {
	return f.text.String()
}
