package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var closeCmd = &cobra.Command{
	Use:   "close <id> [outcome]",
	Short: "Close an issue with an outcome",
	Long: `Close an issue with an outcome.

Outcomes: success, failure, needs_work, skipped, expanded.
Defaults to success. Closing with expanded means the issue was
decomposed; its completion then flows through its children.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		issue := resolveIssue(issues, args[0])

		outcome := types.OutcomeSuccess
		if len(args) == 2 {
			outcome = types.Outcome(args[1])
		}
		if err := issues.Close(issue.ID, outcome); err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"id": issue.ID, "outcome": string(outcome)})
			return
		}
		out.Line(fmt.Sprintf("closed %s (%s)", issue.ID, outcome), sink.StylePass)
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		issue := resolveIssue(issues, args[0])
		if err := issues.Reopen(issue.ID); err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"id": issue.ID, "status": string(types.StatusOpen)})
			return
		}
		out.Line(fmt.Sprintf("reopened %s", issue.ID), sink.StylePass)
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(reopenCmd)
}
