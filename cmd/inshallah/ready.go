package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var readyCmd = &cobra.Command{
	Use:   "ready <root>",
	Short: "List leaves ready for dispatch under a root",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		root := resolveIssue(issues, args[0])

		tags, _ := cmd.Flags().GetStringArray("tag")
		if len(tags) == 0 {
			tags = []string{types.TagAgent}
		}

		ready, err := issues.Ready(root.ID, tags)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(ready)
			return
		}
		if len(ready) == 0 {
			out.Line("no ready issues", sink.StyleDim)
			return
		}
		rows := make([][]string, 0, len(ready))
		for _, issue := range ready {
			rows = append(rows, []string{issue.ID, fmt.Sprintf("p%d", issue.Priority), issue.Title})
		}
		out.Table(fmt.Sprintf("%d ready", len(ready)), rows)
	},
}

func init() {
	readyCmd.Flags().StringArray("tag", nil, "Required tag (repeatable, default node:agent)")
	rootCmd.AddCommand(readyCmd)
}
