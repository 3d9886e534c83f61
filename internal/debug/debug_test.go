package debug

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func TestEnabled(t *testing.T) {
	oldEnabled, oldVerbose := enabled, verboseMode
	defer func() { enabled, verboseMode = oldEnabled, oldVerbose }()

	enabled, verboseMode = false, false
	if Enabled() {
		t.Error("Enabled() should be false by default")
	}
	SetVerbose(true)
	if !Enabled() {
		t.Error("verbose mode should enable debugging")
	}
}

func TestQuietMode(t *testing.T) {
	old := quietMode
	defer func() { quietMode = old }()

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("IsQuiet() = false after SetQuiet(true)")
	}
	SetQuiet(false)
	if IsQuiet() {
		t.Error("IsQuiet() = true after SetQuiet(false)")
	}
}

func TestLogfAppendsNewline(t *testing.T) {
	oldEnabled, oldVerbose := enabled, verboseMode
	defer func() { enabled, verboseMode = oldEnabled, oldVerbose }()
	enabled = true

	out := captureStderr(t, func() {
		Logf("claim lost for %s", "inshallah-12345678")
	})
	if out != "claim lost for inshallah-12345678\n" {
		t.Errorf("Logf output = %q", out)
	}
}

func TestLogfSilentWhenDisabled(t *testing.T) {
	oldEnabled, oldVerbose := enabled, verboseMode
	defer func() { enabled, verboseMode = oldEnabled, oldVerbose }()
	enabled, verboseMode = false, false

	out := captureStderr(t, func() {
		Logf("should not appear")
	})
	if out != "" {
		t.Errorf("Logf wrote while disabled: %q", out)
	}
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
