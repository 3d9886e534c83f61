// Package backend launches coding-agent CLIs and streams their output.
package backend

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Request describes one backend invocation. OnLine is called once per
// complete output line, in order. TeePath, when set, receives an exact
// copy of every line, flushed line by line.
type Request struct {
	Prompt    string
	Model     string
	Reasoning string
	Dir       string
	OnLine    func(line string)
	TeePath   string
}

// Runner executes one backend CLI. Run blocks until the child exits
// and returns its exit code. A non-nil error means the process could
// not be launched or streamed, not that it exited non-zero.
type Runner interface {
	Name() string
	Run(ctx context.Context, req Request) (int, error)
}

// Registry maps backend names to runners.
type Registry struct {
	runners map[string]Runner
}

func NewRegistry() *Registry {
	return &Registry{runners: map[string]Runner{}}
}

func (r *Registry) Register(runner Runner) error {
	name := runner.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("backend name must not be empty")
	}
	if _, exists := r.runners[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	r.runners[name] = runner
	return nil
}

// Resolve returns the runner for name. Unknown names fall back to the
// codex runner when the registry holds one.
func (r *Registry) Resolve(name string) (Runner, error) {
	if runner, ok := r.runners[name]; ok {
		return runner, nil
	}
	if runner, ok := r.runners["codex"]; ok {
		return runner, nil
	}
	return nil, fmt.Errorf("unknown backend %q (registered: %s)", name, strings.Join(r.Names(), ", "))
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with all supported vendor CLIs.
func Default() *Registry {
	r := NewRegistry()
	for _, runner := range []Runner{
		newCodexRunner(),
		newClaudeRunner(),
		newOpencodeRunner(),
		newGeminiRunner(),
		newPiRunner(),
	} {
		if err := r.Register(runner); err != nil {
			panic(err)
		}
	}
	return r
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
