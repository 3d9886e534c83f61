package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootWalksToGit(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if got := FindRoot(nested); got != root {
		t.Errorf("FindRoot(%q) = %q, want %q", nested, got, root)
	}
}

func TestFindRootFallsBackToStart(t *testing.T) {
	dir := t.TempDir()
	if got := FindRoot(dir); got != dir {
		t.Errorf("FindRoot(%q) = %q, want the directory itself", dir, got)
	}
}

func TestSplitFrontmatter(t *testing.T) {
	raw := "---\ncli: claude\nmodel: opus\n---\n# Prompt\n\nbody text\n"
	fm, body, err := SplitFrontmatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontmatter() error: %v", err)
	}
	if fm.CLI != "claude" || fm.Model != "opus" || fm.Reasoning != "" {
		t.Errorf("frontmatter = %+v", fm)
	}
	if body != "# Prompt\n\nbody text\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatterAbsent(t *testing.T) {
	raw := "just a prompt\nwith lines\n"
	fm, body, err := SplitFrontmatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontmatter() error: %v", err)
	}
	if fm != (Frontmatter{}) {
		t.Errorf("frontmatter = %+v, want zero", fm)
	}
	if body != raw {
		t.Errorf("body = %q, want input unchanged", body)
	}
}

func TestSplitFrontmatterUnterminated(t *testing.T) {
	raw := "---\ncli: claude\nno terminator"
	fm, body, err := SplitFrontmatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontmatter() error: %v", err)
	}
	if fm != (Frontmatter{}) || body != raw {
		t.Errorf("unterminated block parsed as frontmatter: %+v %q", fm, body)
	}
}

func TestSplitFrontmatterExactDelimiterOnly(t *testing.T) {
	// Lines that merely start with --- do not close the block.
	for _, raw := range []string{
		"---\ncli: claude\n----\nbody\n",
		"---\ncli: claude\n---foo\nbody\n",
	} {
		fm, body, err := SplitFrontmatter(raw)
		if err != nil {
			t.Fatalf("SplitFrontmatter(%q) error: %v", raw, err)
		}
		if fm != (Frontmatter{}) || body != raw {
			t.Errorf("SplitFrontmatter(%q) = %+v, %q; want unterminated passthrough", raw, fm, body)
		}
	}

	raw := "---\ncli: claude\n---\n----\nbody\n"
	fm, body, err := SplitFrontmatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontmatter() error: %v", err)
	}
	if fm.CLI != "claude" {
		t.Errorf("frontmatter = %+v", fm)
	}
	if body != "----\nbody\n" {
		t.Errorf("body = %q", body)
	}
}

func TestRolesCatalog(t *testing.T) {
	root := t.TempDir()
	rolesDir := RolesDir(root)
	if err := os.MkdirAll(rolesDir, 0755); err != nil {
		t.Fatal(err)
	}
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(rolesDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("worker.md", "---\ncli: codex\nmodel: gpt-5.3-codex\n---\n\nImplements one leaf issue.\n")
	write("reviewer.md", "Checks finished work.\n")
	write("notes.txt", "ignored")

	roles, err := Roles(root)
	if err != nil {
		t.Fatalf("Roles() error: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("Roles() returned %d roles, want 2", len(roles))
	}
	// Sorted by name: reviewer before worker.
	if roles[0].Name != "reviewer" || roles[1].Name != "worker" {
		t.Errorf("role order = [%s %s]", roles[0].Name, roles[1].Name)
	}
	if roles[1].Meta.CLI != "codex" {
		t.Errorf("worker cli = %q", roles[1].Meta.CLI)
	}
	if roles[0].FirstLine != "Checks finished work." {
		t.Errorf("reviewer first line = %q", roles[0].FirstLine)
	}
}

func TestRolesMissingDir(t *testing.T) {
	roles, err := Roles(t.TempDir())
	if err != nil || roles != nil {
		t.Errorf("Roles() on missing dir = (%v, %v), want (nil, nil)", roles, err)
	}
}

func TestIssueLogPath(t *testing.T) {
	got := IssueLogPath("/repo", "inshallah-00c0ffee", ".review")
	want := filepath.Join("/repo", ".inshallah", "logs", "inshallah-00c0ffee.review.jsonl")
	if got != want {
		t.Errorf("IssueLogPath() = %q, want %q", got, want)
	}
}
