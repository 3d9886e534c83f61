package sink

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsolePlainPanel(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Panel("Step 1", "hello world", StyleAccent)
	got := buf.String()
	if !strings.Contains(got, "== Step 1 ==") {
		t.Errorf("missing panel title, got %q", got)
	}
	if !strings.Contains(got, "hello world") {
		t.Errorf("missing panel body, got %q", got)
	}
}

func TestConsoleDeltaTextClosesLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Text("partial", true)
	c.Line("next", StyleNone)
	got := buf.String()
	if got != "partial\nnext\n" {
		t.Errorf("delta line not closed before next output: %q", got)
	}
}

func TestConsoleToolIcons(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Tool("bash", "ls -la", true)
	c.Tool("edit", "main.go", false)
	got := buf.String()
	if !strings.Contains(got, "✓ bash ls -la") {
		t.Errorf("missing success tool line: %q", got)
	}
	if !strings.Contains(got, "✗ edit main.go") {
		t.Errorf("missing failure tool line: %q", got)
	}
}

func TestConsoleTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Table("issues", [][]string{
		{"inshallah-aaaa0001", "open", "first"},
		{"inshallah-bb02", "closed", "second"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected title plus 2 rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.Contains(lines[1], "inshallah-aaaa0001  open") {
		t.Errorf("row not padded to column width: %q", lines[1])
	}
	if !strings.Contains(lines[2], "inshallah-bb02      closed") {
		t.Errorf("row not padded to column width: %q", lines[2])
	}
}

func TestConsoleStatsSorted(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Stats(map[string]string{"tokens": "120", "elapsed": "3s"})
	got := strings.TrimSpace(buf.String())
	if got != "elapsed=3s  tokens=120" {
		t.Errorf("stats not sorted by key: %q", got)
	}
}

func TestCaptureRecordsInOrder(t *testing.T) {
	var c Capture
	c.Line("one", StyleNone)
	c.Tool("read", "a.go", true)
	c.Error("boom")
	ups := c.Updates()
	if len(ups) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(ups))
	}
	if ups[0].Kind != "line" || ups[0].Text != "one" {
		t.Errorf("unexpected first update: %+v", ups[0])
	}
	if ups[1].Kind != "tool" || ups[1].Tool != "read" || !ups[1].OK {
		t.Errorf("unexpected second update: %+v", ups[1])
	}
	if errs := c.Errors(); len(errs) != 1 || errs[0] != "boom" {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestCaptureCopiesStats(t *testing.T) {
	var c Capture
	kv := map[string]string{"steps": "1"}
	c.Stats(kv)
	kv["steps"] = "2"
	ups := c.Updates()
	if ups[0].KV["steps"] != "1" {
		t.Errorf("stats map aliased, got %q", ups[0].KV["steps"])
	}
}
