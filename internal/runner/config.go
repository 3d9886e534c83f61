package runner

import (
	"os"
	"path/filepath"

	"github.com/inshallah-dev/inshallah/internal/types"
	"github.com/inshallah-dev/inshallah/internal/workspace"
)

// Baked-in fallbacks, the lowest config tier.
const (
	FallbackCLI       = "codex"
	FallbackModel     = "gpt-5.3-codex"
	FallbackReasoning = "xhigh"
)

// Config is the fully resolved execution configuration for one
// backend dispatch.
type Config struct {
	CLI        string
	Model      string
	Reasoning  string
	PromptPath string
}

// ResolveConfig layers the four config tiers for an issue: baked
// fallbacks, orchestrator.md frontmatter, the role file named by the
// issue's execution spec, and finally the spec's own fields. Later
// tiers override earlier ones key by key.
func ResolveConfig(root string, issue *types.Issue) Config {
	cfg := Config{CLI: FallbackCLI, Model: FallbackModel, Reasoning: FallbackReasoning}

	orchPath := workspace.OrchestratorPath(root)
	if fm, ok := loadFrontmatter(orchPath); ok {
		cfg.apply(fm)
		cfg.PromptPath = orchPath
	}

	spec := issue.ExecutionSpec
	if spec != nil && spec.Role != "" {
		rolePath := workspace.RolePath(root, spec.Role)
		if fm, ok := loadFrontmatter(rolePath); ok {
			cfg.apply(fm)
			cfg.PromptPath = rolePath
		}
	}

	if spec != nil {
		if spec.CLI != "" {
			cfg.CLI = spec.CLI
		}
		if spec.Model != "" {
			cfg.Model = spec.Model
		}
		if spec.Reasoning != "" {
			cfg.Reasoning = spec.Reasoning
		}
		if spec.PromptPath != "" {
			p := spec.PromptPath
			if !filepath.IsAbs(p) {
				p = filepath.Join(root, p)
			}
			cfg.PromptPath = p
		}
	}
	return cfg
}

func (c *Config) apply(fm workspace.Frontmatter) {
	if fm.CLI != "" {
		c.CLI = fm.CLI
	}
	if fm.Model != "" {
		c.Model = fm.Model
	}
	if fm.Reasoning != "" {
		c.Reasoning = fm.Reasoning
	}
}

func loadFrontmatter(path string) (workspace.Frontmatter, bool) {
	if _, err := os.Stat(path); err != nil {
		return workspace.Frontmatter{}, false
	}
	fm, _, err := workspace.LoadTemplate(path)
	if err != nil {
		return workspace.Frontmatter{}, false
	}
	return fm, true
}
