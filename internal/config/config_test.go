package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeWithoutFile(t *testing.T) {
	defer Reset()
	if err := Initialize(t.TempDir()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}
	if got := GetString(KeyActor); got != "orchestrator" {
		t.Errorf("default actor = %q", got)
	}
	if got := GetInt(KeyRunMaxSteps); got != 50 {
		t.Errorf("default max-steps = %d", got)
	}
}

func TestInitializeReadsConfigYAML(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	yaml := "actor: alice\nbackend:\n  cli: claude\n  model: opus\nrun:\n  max-steps: 7\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := GetString(KeyActor); got != "alice" {
		t.Errorf("actor = %q", got)
	}
	if got := GetString(KeyBackendCLI); got != "claude" {
		t.Errorf("backend.cli = %q", got)
	}
	if got := GetInt(KeyRunMaxSteps); got != 7 {
		t.Errorf("max-steps = %d", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("actor: alice\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("INSHALLAH_ACTOR", "bob")
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := GetString(KeyActor); got != "bob" {
		t.Errorf("actor = %q, want env to win", got)
	}
}

func TestSetOverridesEverything(t *testing.T) {
	defer Reset()
	t.Setenv("INSHALLAH_ACTOR", "bob")
	if err := Initialize(t.TempDir()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	Set(KeyActor, "carol")
	if got := GetString(KeyActor); got != "carol" {
		t.Errorf("actor = %q, want Set() to win", got)
	}
}

func TestNilSafety(t *testing.T) {
	Reset()
	if got := GetString(KeyActor); got != "" {
		t.Errorf("GetString with nil viper = %q, want \"\"", got)
	}
	if GetBool(KeyRunReview) {
		t.Error("GetBool with nil viper = true, want false")
	}
	if got := GetInt(KeyRunMaxSteps); got != 0 {
		t.Errorf("GetInt with nil viper = %d, want 0", got)
	}
}
