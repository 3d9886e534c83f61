package backend

import (
	"context"
	"fmt"
)

// cliRunner adapts one vendor CLI to the Runner interface. The args
// function builds the argv for a request; the prompt is delivered per
// promptMode.
type cliRunner struct {
	name       string
	exe        string
	promptMode string
	args       func(req Request) []string
}

func (c *cliRunner) Name() string { return c.name }

func (c *cliRunner) Run(ctx context.Context, req Request) (int, error) {
	inv := invocation{exe: c.exe, args: c.args(req), promptMode: c.promptMode}
	return stream(ctx, inv, req)
}

func newCodexRunner() Runner {
	return &cliRunner{
		name:       "codex",
		exe:        envOr("INSHALLAH_CODEX_PATH", "codex"),
		promptMode: "stdin",
		args: func(req Request) []string {
			args := []string{"exec", "--json", "--sandbox", "workspace-write", "-m", req.Model, "-C", req.Dir}
			if req.Reasoning != "" {
				args = append(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", req.Reasoning))
			}
			args = append(args, "-")
			return args
		},
	}
}

func newClaudeRunner() Runner {
	return &cliRunner{
		name:       "claude",
		exe:        envOr("INSHALLAH_CLAUDE_PATH", "claude"),
		promptMode: "arg",
		args: func(req Request) []string {
			return []string{"-p", "--output-format", "stream-json", "--include-partial-messages", "--verbose", "--model", req.Model}
		},
	}
}

func newOpencodeRunner() Runner {
	return &cliRunner{
		name:       "opencode",
		exe:        envOr("INSHALLAH_OPENCODE_PATH", "opencode"),
		promptMode: "arg",
		args: func(req Request) []string {
			return []string{"run", "--print-logs", "--format", "json", "--model", req.Model}
		},
	}
}

func newGeminiRunner() Runner {
	return &cliRunner{
		name:       "gemini",
		exe:        envOr("INSHALLAH_GEMINI_PATH", "gemini"),
		promptMode: "arg",
		args: func(req Request) []string {
			return []string{"-p", "--output-format", "stream-json", "--yolo", "--model", req.Model}
		},
	}
}

func newPiRunner() Runner {
	return &cliRunner{
		name:       "pi",
		exe:        envOr("INSHALLAH_PI_PATH", "pi"),
		promptMode: "stdin",
		args: func(req Request) []string {
			return []string{"--mode", "json", "--model", req.Model}
		},
	}
}
