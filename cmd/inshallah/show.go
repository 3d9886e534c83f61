package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one issue in full",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		issue := resolveIssue(issues, args[0])

		if jsonOutput {
			emitJSON(issue)
			return
		}

		style := sink.StyleAccent
		switch issue.Outcome {
		case types.OutcomeSuccess, types.OutcomeSkipped:
			style = sink.StylePass
		case types.OutcomeFailure, types.OutcomeNeedsWork:
			style = sink.StyleFail
		}
		body := issue.Body
		if body == "" {
			body = "_no body_"
		}
		out.Panel(fmt.Sprintf("%s  %s", issue.ID, issue.Title), body, style)

		rows := [][]string{
			{"status", string(issue.Status)},
			{"outcome", outcomeCell(issue)},
			{"priority", fmt.Sprintf("%d", issue.Priority)},
			{"tags", tagsCell(issue)},
		}
		if spec := issue.ExecutionSpec; spec != nil {
			rows = append(rows, []string{"spec", specCell(spec)})
		}
		for _, d := range issue.Deps {
			rows = append(rows, []string{string(d.Type), d.Target})
		}
		out.Table("", rows)
	},
}

func specCell(spec *types.ExecutionSpec) string {
	parts := ""
	add := func(k, v string) {
		if v == "" {
			return
		}
		if parts != "" {
			parts += " "
		}
		parts += k + "=" + v
	}
	add("cli", spec.CLI)
	add("model", spec.Model)
	add("reasoning", spec.Reasoning)
	add("role", spec.Role)
	add("prompt", spec.PromptPath)
	if parts == "" {
		return "-"
	}
	return parts
}

func init() {
	rootCmd.AddCommand(showCmd)
}
