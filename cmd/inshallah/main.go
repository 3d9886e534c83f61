package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/config"
	"github.com/inshallah-dev/inshallah/internal/debug"
	"github.com/inshallah-dev/inshallah/internal/eventlog"
	"github.com/inshallah-dev/inshallah/internal/forum"
	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/store"
	"github.com/inshallah-dev/inshallah/internal/telemetry"
	"github.com/inshallah-dev/inshallah/internal/types"
	"github.com/inshallah-dev/inshallah/internal/workspace"
)

var (
	jsonOutput  bool
	actorFlag   string
	verboseFlag bool
	quietFlag   bool

	repoRoot string
	out      sink.Sink

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "inshallah",
	Short: "inshallah - agent orchestration over an issue DAG",
	Long:  `Drives coding agents through a DAG of issues: pick a ready leaf, dispatch an agent, check the result, repeat until the root converges.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("inshallah version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		repoRoot = workspace.FindRoot("")
		if err := config.Initialize(workspace.Dir(repoRoot)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
		}
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if config.GetBool(config.KeyTelemetry) {
			telemetry.Enable()
		}
		if err := telemetry.Init(rootCtx, "inshallah", Version); err != nil {
			debug.Logf("telemetry init: %v", err)
		}
		if jsonOutput {
			out = sink.Discard{}
		} else {
			out = sink.NewConsole(os.Stdout)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Actor name for forum posts and audit trail (default: $INSHALLAH_ACTOR, orchestrator)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

// openStores wires the three shared files under <repo>/.inshallah/.
func openStores() (*store.Store, *forum.Store, *eventlog.Log) {
	events := eventlog.New(workspace.EventsPath(repoRoot))
	issues := store.New(workspace.IssuesPath(repoRoot), events)
	posts := forum.New(workspace.ForumPath(repoRoot), events)
	return issues, posts, events
}

// actor resolves the audit identity: flag > env/config > default.
func actor() string {
	if actorFlag != "" {
		return actorFlag
	}
	if a := config.GetString(config.KeyActor); a != "" {
		return a
	}
	return "orchestrator"
}

// resolveIssue turns an id or unique prefix into an issue, rendering
// recovery guidance and exiting on failure.
func resolveIssue(issues *store.Store, arg string) *types.Issue {
	issue, err := issues.ResolvePrefix(arg)
	if err != nil {
		fatalStoreError(err, arg)
	}
	return issue
}

func fatalStoreError(err error, arg string) {
	if jsonOutput {
		emitJSON(map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	out.Error(err.Error())
	var ambiguous *store.AmbiguousPrefixError
	switch {
	case errors.As(err, &ambiguous):
		out.Line("use a longer prefix; candidates:", sink.StyleDim)
		for _, id := range ambiguous.Candidates {
			out.Line("  "+id, sink.StyleDim)
		}
	case errors.Is(err, store.ErrNotFound):
		out.Line(fmt.Sprintf("no issue matches %q; try: inshallah list", arg), sink.StyleDim)
	}
	os.Exit(1)
}

func fatal(err error) {
	if jsonOutput {
		emitJSON(map[string]any{"error": err.Error()})
	} else {
		out.Error(err.Error())
	}
	os.Exit(1)
}

func emitJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
