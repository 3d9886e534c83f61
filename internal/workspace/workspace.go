// Package workspace locates the repository root and the .inshallah/
// state directory, and parses the markdown-with-frontmatter files that
// configure orchestrator and role dispatch.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DirName is the state directory kept at the repository root.
const DirName = ".inshallah"

// FindRoot walks up from dir until it finds a directory containing
// .git, falling back to dir itself. Empty dir means the current
// working directory.
func FindRoot(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		dir = wd
	}
	for cur := dir; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

// Dir returns the state directory for a repo root.
func Dir(root string) string { return filepath.Join(root, DirName) }

// IssuesPath returns the issue store file for a repo root.
func IssuesPath(root string) string { return filepath.Join(Dir(root), "issues.jsonl") }

// ForumPath returns the forum store file for a repo root.
func ForumPath(root string) string { return filepath.Join(Dir(root), "forum.jsonl") }

// EventsPath returns the event log file for a repo root.
func EventsPath(root string) string { return filepath.Join(Dir(root), "events.jsonl") }

// LogsDir returns the backend tee log directory for a repo root.
func LogsDir(root string) string { return filepath.Join(Dir(root), "logs") }

// IssueLogPath returns the tee file for one backend invocation.
// suffix is "" for the primary pass or ".review" for the reviewer pass.
func IssueLogPath(root, issueID, suffix string) string {
	return filepath.Join(LogsDir(root), issueID+suffix+".jsonl")
}

// OrchestratorPath returns the orchestrator defaults file for a repo root.
func OrchestratorPath(root string) string { return filepath.Join(Dir(root), "orchestrator.md") }

// RolesDir returns the role template directory for a repo root.
func RolesDir(root string) string { return filepath.Join(Dir(root), "roles") }

// RolePath returns the template file for a named role.
func RolePath(root, role string) string {
	return filepath.Join(RolesDir(root), role+".md")
}

// Frontmatter holds the recognized keys of an orchestrator or role file
// header. Unknown keys are ignored.
type Frontmatter struct {
	CLI       string `yaml:"cli"`
	Model     string `yaml:"model"`
	Reasoning string `yaml:"reasoning"`
}

// SplitFrontmatter separates an optional leading YAML frontmatter block
// (delimited by --- lines) from the markdown body. Files without a
// block return a zero Frontmatter and the full text.
func SplitFrontmatter(raw string) (Frontmatter, string, error) {
	var fm Frontmatter
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return fm, raw, nil
	}
	rest := normalized[len("---\n"):]
	lines := strings.Split(rest, "\n")
	closing := -1
	for i, line := range lines {
		// The closing delimiter is an exact --- line; ---- or ---foo
		// is frontmatter content.
		if line == "---" {
			closing = i
			break
		}
	}
	if closing < 0 {
		return fm, raw, nil
	}
	header := strings.Join(lines[:closing], "\n")
	body := strings.Join(lines[closing+1:], "\n")
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return Frontmatter{}, "", fmt.Errorf("workspace: frontmatter: %w", err)
	}
	return fm, body, nil
}

// LoadTemplate reads a markdown file and strips its frontmatter.
func LoadTemplate(path string) (Frontmatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Frontmatter{}, "", err
	}
	return SplitFrontmatter(string(data))
}

// Role describes one dispatchable role file.
type Role struct {
	Name      string
	Path      string
	Meta      Frontmatter
	FirstLine string // first non-blank body line, for catalogs
}

// Roles loads every role under <root>/.inshallah/roles/, sorted by
// name. A missing roles directory yields an empty catalog.
func Roles(root string) ([]Role, error) {
	entries, err := os.ReadDir(RolesDir(root))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	var out []Role
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		path := filepath.Join(RolesDir(root), entry.Name())
		meta, body, err := LoadTemplate(path)
		if err != nil {
			return nil, fmt.Errorf("workspace: role %s: %w", name, err)
		}
		out = append(out, Role{
			Name:      name,
			Path:      path,
			Meta:      meta,
			FirstLine: firstNonBlankLine(body),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func firstNonBlankLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
