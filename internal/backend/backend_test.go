package backend

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&cliRunner{name: "codex"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&cliRunner{name: "codex"}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&cliRunner{name: "  "}); err == nil {
		t.Error("empty name should fail")
	}
}

func TestResolveFallsBackToCodex(t *testing.T) {
	r := Default()
	runner, err := r.Resolve("no-such-backend")
	if err != nil {
		t.Fatalf("Resolve(): %v", err)
	}
	if got := runner.Name(); got != "codex" {
		t.Errorf("fallback = %q, want codex", got)
	}
	runner, err = r.Resolve("gemini")
	if err != nil {
		t.Fatalf("Resolve(): %v", err)
	}
	if got := runner.Name(); got != "gemini" {
		t.Errorf("resolve gemini = %q", got)
	}
}

func TestResolveErrorsWithoutCodex(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&cliRunner{name: "claude"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve("no-such-backend"); err == nil {
		t.Error("Resolve() = nil error with no codex fallback registered")
	}
	runner, err := r.Resolve("claude")
	if err != nil {
		t.Fatalf("Resolve(): %v", err)
	}
	if runner.Name() != "claude" {
		t.Errorf("resolve claude = %q", runner.Name())
	}
}

func TestDefaultRegistryNames(t *testing.T) {
	want := []string{"claude", "codex", "gemini", "opencode", "pi"}
	got := Default().Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamLinesAndTee(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	tee := filepath.Join(t.TempDir(), "agent.jsonl")
	var lines []string
	req := Request{
		OnLine:  func(l string) { lines = append(lines, l) },
		TeePath: tee,
	}
	inv := invocation{exe: "sh", args: []string{"-c", `printf 'one\ntwo\n'`}, promptMode: "stdin"}
	exit, err := stream(context.Background(), inv, req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if exit != 0 {
		t.Errorf("exit = %d", exit)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v", lines)
	}
	b, err := os.ReadFile(tee)
	if err != nil {
		t.Fatalf("read tee: %v", err)
	}
	if string(b) != "one\ntwo\n" {
		t.Errorf("tee = %q", b)
	}
}

func TestStreamNonZeroExitIsNotError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	inv := invocation{exe: "sh", args: []string{"-c", "exit 3"}, promptMode: "stdin"}
	exit, err := stream(context.Background(), inv, Request{})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if exit != 3 {
		t.Errorf("exit = %d, want 3", exit)
	}
}

func TestStreamSpawnError(t *testing.T) {
	inv := invocation{exe: "/nonexistent/agent-cli", promptMode: "stdin"}
	if _, err := stream(context.Background(), inv, Request{}); err == nil {
		t.Error("spawn of missing binary should error")
	}
}

func TestStreamReadsPromptFromStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	var lines []string
	req := Request{
		Prompt: "fix the bug",
		OnLine: func(l string) { lines = append(lines, l) },
	}
	inv := invocation{exe: "sh", args: []string{"-c", "cat"}, promptMode: "stdin"}
	if _, err := stream(context.Background(), inv, req); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fix the bug" {
		t.Errorf("lines = %v", lines)
	}
}
