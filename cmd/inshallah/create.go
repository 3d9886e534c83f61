package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an issue",
	Long: `Create an issue in the DAG.

Use --root for a run entry point (tags it node:root,node:agent) and
--parent to hang the new issue under an existing one.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()

		body, _ := cmd.Flags().GetString("body")
		tags, _ := cmd.Flags().GetStringArray("tag")
		priority, _ := cmd.Flags().GetInt("priority")
		parent, _ := cmd.Flags().GetString("parent")
		isRoot, _ := cmd.Flags().GetBool("root")
		agent, _ := cmd.Flags().GetBool("agent")

		if isRoot {
			tags = append(tags, types.TagRoot, types.TagAgent)
		} else if agent {
			tags = append(tags, types.TagAgent)
		}

		spec := specFromFlags(cmd)

		var parentID string
		if parent != "" {
			parentID = resolveIssue(issues, parent).ID
		}

		issue, err := issues.Create(args[0], body, dedupe(tags), spec, priority)
		if err != nil {
			fatal(err)
		}
		if parentID != "" {
			if err := issues.AddDep(issue.ID, types.DepParent, parentID); err != nil {
				fatal(err)
			}
		}

		if jsonOutput {
			emitJSON(issue)
			return
		}
		out.Line(fmt.Sprintf("created %s", issue.ID), sink.StylePass)
	},
}

// specFromFlags builds an execution spec from create's backend flags,
// nil when none are set.
func specFromFlags(cmd *cobra.Command) *types.ExecutionSpec {
	cli, _ := cmd.Flags().GetString("cli")
	model, _ := cmd.Flags().GetString("model")
	reasoning, _ := cmd.Flags().GetString("reasoning")
	promptPath, _ := cmd.Flags().GetString("prompt-path")
	role, _ := cmd.Flags().GetString("role")
	if cli == "" && model == "" && reasoning == "" && promptPath == "" && role == "" {
		return nil
	}
	return &types.ExecutionSpec{
		CLI:        cli,
		Model:      model,
		Reasoning:  reasoning,
		PromptPath: promptPath,
		Role:       role,
	}
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var result []string
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		result = append(result, t)
	}
	return result
}

func init() {
	createCmd.Flags().String("body", "", "Issue body (markdown)")
	createCmd.Flags().StringArray("tag", nil, "Tag to attach (repeatable)")
	createCmd.Flags().IntP("priority", "p", 0, "Priority 1-5, lower is more urgent (default 3)")
	createCmd.Flags().String("parent", "", "Parent issue id or prefix")
	createCmd.Flags().Bool("root", false, "Tag as a run entry point (node:root,node:agent)")
	createCmd.Flags().Bool("agent", true, "Tag as agent-dispatchable (node:agent)")
	createCmd.Flags().String("cli", "", "Backend CLI override for this issue")
	createCmd.Flags().String("model", "", "Model override for this issue")
	createCmd.Flags().String("reasoning", "", "Reasoning level override for this issue")
	createCmd.Flags().String("prompt-path", "", "Prompt template path (relative to repo root)")
	createCmd.Flags().String("role", "", "Role file to dispatch with")
	rootCmd.AddCommand(createCmd)
}
