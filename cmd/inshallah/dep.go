package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependency edges",
}

var depAddCmd = &cobra.Command{
	Use:   "add <src> <type> <target>",
	Short: "Add a dependency edge",
	Long: `Add a dependency edge from src to target.

Types: parent (src is a child of target), blocks (target stays blocked
until src closes with a terminal outcome).`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		src := resolveIssue(issues, args[0])
		dst := resolveIssue(issues, args[2])
		depType := types.DepType(args[1])
		if err := issues.AddDep(src.ID, depType, dst.ID); err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"src": src.ID, "type": string(depType), "target": dst.ID})
			return
		}
		out.Line(fmt.Sprintf("%s %s %s", src.ID, depType, dst.ID), sink.StylePass)
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <src> <type> <target>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		src := resolveIssue(issues, args[0])
		dst := resolveIssue(issues, args[2])
		depType := types.DepType(args[1])
		if err := issues.RemoveDep(src.ID, depType, dst.ID); err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(map[string]any{"src": src.ID, "type": string(depType), "target": dst.ID, "removed": true})
			return
		}
		out.Line(fmt.Sprintf("removed %s %s %s", src.ID, depType, dst.ID), sink.StylePass)
	},
}

func init() {
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRemoveCmd)
	rootCmd.AddCommand(depCmd)
}
