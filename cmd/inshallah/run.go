package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/config"
	"github.com/inshallah-dev/inshallah/internal/runner"
	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run <root>",
	Short: "Drive agents through a root's subtree",
	Long: `Drive agents through a root's subtree until it converges,
no leaf is executable, or the step cap is hit.

Exits 0 when the root is final, 1 otherwise.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		executeRun(cmd, args[0], false)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <root>",
	Short: "Resume an interrupted run",
	Long: `Resume an interrupted run: claimed-but-unfinished issues
under the root return to open, then the loop continues.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		executeRun(cmd, args[0], true)
	},
}

func executeRun(cmd *cobra.Command, arg string, resume bool) {
	issues, posts, events := openStores()
	root := resolveIssue(issues, arg)

	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	if !cmd.Flags().Changed("max-steps") {
		if v := config.GetInt(config.KeyRunMaxSteps); v > 0 {
			maxSteps = v
		}
	}
	review, _ := cmd.Flags().GetBool("review")
	if !cmd.Flags().Changed("review") {
		review = config.GetBool(config.KeyRunReview)
	}

	r := runner.New(repoRoot, issues, posts, events, runner.Options{
		MaxSteps: maxSteps,
		Review:   review,
		Sink:     out,
	})

	var result types.DagResult
	if resume {
		result = r.Resume(rootCtx, root.ID)
	} else {
		result = r.Run(rootCtx, root.ID)
	}

	if jsonOutput {
		emitJSON(result)
	} else {
		renderResult(result)
	}
	if !result.Final() {
		os.Exit(1)
	}
}

func renderResult(result types.DagResult) {
	switch result.Status {
	case types.DagRootFinal:
		out.Panel("run complete", fmt.Sprintf("root %s is final after %d step(s)", result.RootID, result.Steps), sink.StylePass)
	case types.DagNoExecutableLeaf:
		out.Panel("run stopped", fmt.Sprintf("no executable leaf under %s after %d step(s); check `inshallah validate %s`", result.RootID, result.Steps, result.RootID), sink.StyleWarn)
	case types.DagMaxStepsExhausted:
		out.Panel("run stopped", fmt.Sprintf("step cap reached after %d step(s); re-run or raise --max-steps", result.Steps), sink.StyleWarn)
	default:
		out.Panel("run failed", result.Err, sink.StyleFail)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, resumeCmd} {
		cmd.Flags().Int("max-steps", 50, "Step cap for this run")
		cmd.Flags().Bool("review", false, "Run the reviewer role after each success")
	}
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
}
