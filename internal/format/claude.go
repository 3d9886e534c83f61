package format

import (
	"encoding/json"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

// claudeEvent is one line of the claude CLI's stream-json output.
// Fine-grained API events arrive wrapped in a stream_event envelope;
// consolidated assistant/user messages and the final result arrive as
// top-level records.
type claudeEvent struct {
	Type    string          `json:"type"`
	Event   *claudeAPIEvent `json:"event"`
	Message *claudeMessage  `json:"message"`

	// result record
	IsError     bool    `json:"is_error"`
	Result      string  `json:"result"`
	CostUSD     float64 `json:"cost_usd"`
	TotalCost   float64 `json:"total_cost_usd"`
	DurationMS  int64   `json:"duration_ms"`
	NumTurns    int     `json:"num_turns"`
	Subtype     string  `json:"subtype"`
	UsageTokens *claudeUsage `json:"usage"`
}

type claudeAPIEvent struct {
	Type         string             `json:"type"`
	Index        int                `json:"index"`
	ContentBlock *claudeBlockHeader `json:"content_block"`
	Delta        *claudeDelta       `json:"delta"`
}

type claudeBlockHeader struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type claudeDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	PartialJSON string `json:"partial_json"`
}

type claudeMessage struct {
	Role    string              `json:"role"`
	Content []claudeContentBlock `json:"content"`
	Usage   *claudeUsage        `json:"usage"`
}

type claudeContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
	IsError   bool           `json:"is_error"`
}

type claudeUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// claudeBlock tracks one in-flight content block by stream index.
type claudeBlock struct {
	kind   string
	toolID string
	name   string
	args   strings.Builder
}

type claudeFormatter struct {
	sink     sink.Sink
	tools    *toolTracker
	text     textAccum
	stats    usageStats
	blocks   map[int]*claudeBlock
	streamed bool
}

func newClaude(s sink.Sink) *claudeFormatter {
	return &claudeFormatter{sink: s, tools: newToolTracker(s), blocks: map[int]*claudeBlock{}}
}

func (f *claudeFormatter) Line(line string) {
	var ev claudeEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	switch ev.Type {
	case "stream_event":
		f.apiEvent(ev.Event)
	case "assistant":
		f.assistantMessage(ev.Message)
	case "user":
		f.userMessage(ev.Message)
	case "result":
		f.result(&ev)
	}
}

func (f *claudeFormatter) apiEvent(ev *claudeAPIEvent) {
	if ev == nil {
		return
	}
	switch ev.Type {
	case "content_block_start":
		if ev.ContentBlock == nil {
			return
		}
		b := &claudeBlock{kind: ev.ContentBlock.Type, toolID: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
		f.blocks[ev.Index] = b
		if b.kind == "thinking" {
			f.sink.Line("thinking...", sink.StyleDim)
		}
	case "content_block_delta":
		if ev.Delta == nil {
			return
		}
		b := f.blocks[ev.Index]
		switch ev.Delta.Type {
		case "text_delta":
			f.sink.Text(ev.Delta.Text, true)
			f.text.delta(ev.Delta.Text)
			f.streamed = true
		case "input_json_delta":
			if b != nil {
				b.args.WriteString(ev.Delta.PartialJSON)
			}
		}
	case "content_block_stop":
		b := f.blocks[ev.Index]
		delete(f.blocks, ev.Index)
		if b == nil || b.kind != "tool_use" {
			return
		}
		detail := ""
		var input map[string]any
		if json.Unmarshal([]byte(b.args.String()), &input) == nil {
			canon, _ := canonicalTool(b.name)
			detail = toolDetail(canon, input)
		}
		f.tools.begin(b.toolID, b.name, detail)
	}
}

// assistantMessage handles consolidated messages. Tool blocks dedup
// against the partial-stream path by tool id; text blocks are skipped
// when the same text already arrived as deltas.
func (f *claudeFormatter) assistantMessage(msg *claudeMessage) {
	if msg == nil {
		return
	}
	for i := range msg.Content {
		block := &msg.Content[i]
		switch block.Type {
		case "text":
			if f.streamed || block.Text == "" {
				continue
			}
			f.sink.Text(block.Text, false)
			f.text.whole(block.Text)
		case "tool_use":
			canon, _ := canonicalTool(block.Name)
			f.tools.begin(block.ID, block.Name, toolDetail(canon, block.Input))
		}
	}
	if msg.Usage != nil {
		f.stats.setTokens(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	}
}

func (f *claudeFormatter) userMessage(msg *claudeMessage) {
	if msg == nil {
		return
	}
	for i := range msg.Content {
		block := &msg.Content[i]
		if block.Type != "tool_result" {
			continue
		}
		f.tools.finish(block.ToolUseID, !block.IsError)
	}
}

func (f *claudeFormatter) result(ev *claudeEvent) {
	cost := ev.CostUSD
	if cost == 0 {
		cost = ev.TotalCost
	}
	f.stats.setCostUSD(cost)
	f.stats.setDurationSec(float64(ev.DurationMS) / 1000)
	if ev.UsageTokens != nil {
		f.stats.setTokens(ev.UsageTokens.InputTokens + ev.UsageTokens.OutputTokens)
	}
	if ev.Subtype != "" {
		f.stats.set("status", ev.Subtype)
	}
	f.stats.emit(f.sink)
	if ev.IsError && ev.Result != "" {
		f.sink.Error(ev.Result)
	}
}

func (f *claudeFormatter) Close() {
	f.tools.flush()
	f.stats.emit(f.sink)
}

func (f *claudeFormatter) Summary() string {
	return f.text.String()
}
