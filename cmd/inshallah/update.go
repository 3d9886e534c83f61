package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/store"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an issue's fields",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		issue := resolveIssue(issues, args[0])

		var patch store.Patch
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			patch.Title = &title
		}
		if cmd.Flags().Changed("body") {
			body, _ := cmd.Flags().GetString("body")
			patch.Body = &body
		}
		if cmd.Flags().Changed("tag") {
			tags, _ := cmd.Flags().GetStringArray("tag")
			patch.Tags = dedupe(tags)
		}
		if cmd.Flags().Changed("priority") {
			priority, _ := cmd.Flags().GetInt("priority")
			patch.Priority = &priority
		}
		if spec := specFromFlags(cmd); spec != nil {
			patch.Spec = spec
			patch.SetSpec = true
		}

		updated, err := issues.Update(issue.ID, patch)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(updated)
			return
		}
		out.Line(fmt.Sprintf("updated %s", updated.ID), sink.StylePass)
	},
}

func init() {
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("body", "", "New body")
	updateCmd.Flags().StringArray("tag", nil, "Replacement tag set (repeatable)")
	updateCmd.Flags().IntP("priority", "p", 0, "New priority 1-5")
	updateCmd.Flags().String("cli", "", "Backend CLI override")
	updateCmd.Flags().String("model", "", "Model override")
	updateCmd.Flags().String("reasoning", "", "Reasoning level override")
	updateCmd.Flags().String("prompt-path", "", "Prompt template path")
	updateCmd.Flags().String("role", "", "Role file to dispatch with")
	rootCmd.AddCommand(updateCmd)
}
