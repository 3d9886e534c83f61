package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues",
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()

		statusStr, _ := cmd.Flags().GetString("status")
		tag, _ := cmd.Flags().GetString("tag")

		status := types.Status(statusStr)
		if statusStr != "" && !status.IsValid() {
			fatal(fmt.Errorf("invalid status %q (open|in_progress|closed)", statusStr))
		}

		all, err := issues.List(status, tag)
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			emitJSON(all)
			return
		}
		if len(all) == 0 {
			out.Line("no issues", sink.StyleDim)
			return
		}
		rows := make([][]string, 0, len(all))
		for _, issue := range all {
			rows = append(rows, []string{
				issue.ID,
				string(issue.Status),
				outcomeCell(issue),
				fmt.Sprintf("p%d", issue.Priority),
				issue.Title,
			})
		}
		out.Table(fmt.Sprintf("%d issue(s)", len(all)), rows)
	},
}

func outcomeCell(issue *types.Issue) string {
	if issue.Outcome == "" {
		return "-"
	}
	return string(issue.Outcome)
}

func tagsCell(issue *types.Issue) string {
	if len(issue.Tags) == 0 {
		return "-"
	}
	return strings.Join(issue.Tags, ",")
}

func init() {
	listCmd.Flags().String("status", "", "Filter by status (open|in_progress|closed)")
	listCmd.Flags().String("tag", "", "Filter by tag")
	rootCmd.AddCommand(listCmd)
}
