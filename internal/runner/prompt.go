package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/types"
	"github.com/inshallah-dev/inshallah/internal/workspace"
)

// RenderPrompt builds the prompt delivered to the backend: the resolved
// template with {{PROMPT}} and {{ROLES}} substituted, or the bare issue
// text when no template exists, followed by the fixed context block.
func RenderPrompt(root string, issue *types.Issue, rootID, promptPath string) string {
	issueText := issue.Title
	if strings.TrimSpace(issue.Body) != "" {
		issueText += "\n\n" + issue.Body
	}

	rendered := issueText
	if promptPath != "" {
		if _, body, err := workspace.LoadTemplate(promptPath); err == nil {
			rendered = strings.ReplaceAll(body, "{{PROMPT}}", issueText)
			rendered = strings.ReplaceAll(rendered, "{{ROLES}}", rolesCatalog(root))
		}
	}

	return strings.TrimRight(rendered, "\n") + fmt.Sprintf(
		"\n\n## Inshallah Context\nRoot: %s\nAssigned issue: %s\n", rootID, issue.ID)
}

// rolesCatalog renders the {{ROLES}} placeholder: one section per role
// file with its config line and first body line. An unknown repo root
// expands to nothing.
func rolesCatalog(root string) string {
	if root == "" {
		return ""
	}
	roles, err := workspace.Roles(root)
	if err != nil || len(roles) == 0 {
		return ""
	}
	var b strings.Builder
	for i, role := range roles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s\n%s\n", role.Name, roleConfigLine(role.Meta))
		if role.FirstLine != "" {
			fmt.Fprintf(&b, "> %s\n", role.FirstLine)
		}
	}
	return b.String()
}

func roleConfigLine(fm workspace.Frontmatter) string {
	var parts []string
	if fm.CLI != "" {
		parts = append(parts, "cli="+fm.CLI)
	}
	if fm.Model != "" {
		parts = append(parts, "model="+fm.Model)
	}
	if fm.Reasoning != "" {
		parts = append(parts, "reasoning="+fm.Reasoning)
	}
	if len(parts) == 0 {
		return "default config"
	}
	return strings.Join(parts, " ")
}

// hasRole reports whether a role file exists for the repo root.
func hasRole(root, role string) bool {
	_, err := os.Stat(workspace.RolePath(root, role))
	return err == nil
}
