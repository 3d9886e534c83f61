package main

import (
	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

var validateCmd = &cobra.Command{
	Use:   "validate <root>",
	Short: "Check whether a root's subtree has converged",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		root := resolveIssue(issues, args[0])

		v, err := issues.Validate(root.ID)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"root_id": root.ID, "final": v.Final, "reason": v.Reason})
			return
		}
		style := sink.StyleWarn
		if v.Final {
			style = sink.StylePass
		}
		out.Line(v.Reason, style)
	},
}

var collapsibleCmd = &cobra.Command{
	Use:   "collapsible <root>",
	Short: "List expanded issues whose children have all finished",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		root := resolveIssue(issues, args[0])

		ids, err := issues.Collapsible(root.ID)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"root_id": root.ID, "collapsible": ids})
			return
		}
		if len(ids) == 0 {
			out.Line("nothing to collapse", sink.StyleDim)
			return
		}
		for _, id := range ids {
			out.Line(id, sink.StyleNone)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(collapsibleCmd)
}
