package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/workspace"
)

var logCmd = &cobra.Command{
	Use:   "log <id>",
	Short: "Show the raw backend stream for an issue",
	Long: `Show the raw backend stream teed during an issue's execution.

Use --review for the reviewer pass log.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issues, _, _ := openStores()
		issue := resolveIssue(issues, args[0])

		suffix := ""
		if review, _ := cmd.Flags().GetBool("review"); review {
			suffix = ".review"
		}
		path := workspace.IssueLogPath(repoRoot, issue.ID, suffix)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fatal(fmt.Errorf("no log for %s (expected %s)", issue.ID, path))
			}
			fatal(err)
		}
		if jsonOutput {
			// the log is already JSONL; pass it through verbatim
			os.Stdout.Write(data)
			return
		}
		out.Line(path, sink.StyleDim)
		os.Stdout.Write(data)
	},
}

func init() {
	logCmd.Flags().Bool("review", false, "Show the reviewer pass log")
	rootCmd.AddCommand(logCmd)
}
