// Package runner drives the issue DAG loop: select a ready leaf, claim
// it, dispatch a backend agent against it, enforce the postcondition,
// optionally review, and repeat until the root converges or a cap is
// hit.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/inshallah-dev/inshallah/internal/backend"
	"github.com/inshallah-dev/inshallah/internal/debug"
	"github.com/inshallah-dev/inshallah/internal/eventlog"
	"github.com/inshallah-dev/inshallah/internal/format"
	"github.com/inshallah-dev/inshallah/internal/forum"
	"github.com/inshallah-dev/inshallah/internal/runctx"
	"github.com/inshallah-dev/inshallah/internal/sink"
	"github.com/inshallah-dev/inshallah/internal/store"
	"github.com/inshallah-dev/inshallah/internal/telemetry"
	"github.com/inshallah-dev/inshallah/internal/types"
	"github.com/inshallah-dev/inshallah/internal/workspace"
)

const reviewerRole = "reviewer"

// Options tune one runner instance.
type Options struct {
	MaxSteps int
	Review   bool
	Sink     sink.Sink
	Backends *backend.Registry
}

// Runner executes the DAG loop against one repository's stores.
type Runner struct {
	root     string
	issues   *store.Store
	posts    *forum.Store
	events   *eventlog.Log
	backends *backend.Registry
	sink     sink.Sink
	maxSteps int
	review   bool
	metrics  *telemetry.RunMetrics
	claim    func(id string) (bool, error) // swappable in tests
}

func New(root string, issues *store.Store, posts *forum.Store, events *eventlog.Log, opts Options) *Runner {
	r := &Runner{
		root:     root,
		issues:   issues,
		posts:    posts,
		events:   events,
		backends: opts.Backends,
		sink:     opts.Sink,
		maxSteps: opts.MaxSteps,
		review:   opts.Review,
	}
	if r.backends == nil {
		r.backends = backend.Default()
	}
	if r.sink == nil {
		r.sink = sink.Discard{}
	}
	if r.maxSteps <= 0 {
		r.maxSteps = 50
	}
	r.metrics = telemetry.NewRunMetrics()
	r.claim = issues.Claim
	return r
}

// Resume clears stale claims left by an interrupted run, then runs.
func (r *Runner) Resume(ctx context.Context, rootID string) types.DagResult {
	reset, err := r.issues.ResetInProgress(rootID)
	if err != nil {
		return r.fail(rootID, 0, err)
	}
	if len(reset) > 0 {
		r.sink.Line(fmt.Sprintf("reset %d stale claim(s)", len(reset)), sink.StyleWarn)
	}
	return r.Run(ctx, rootID)
}

// Run executes the loop until the root is final, no leaf is executable,
// the step cap is reached, or an error stops the run.
func (r *Runner) Run(ctx context.Context, rootID string) (result types.DagResult) {
	runID := uuid.NewString()
	runctx.Push(runID)
	defer runctx.Pop()

	ctx, span := telemetry.Tracer("runner").Start(ctx, "dag.run")
	defer span.End()

	r.emit("run.started", map[string]any{"root_id": rootID, "max_steps": r.maxSteps})
	defer func() {
		r.emit("run.finished", map[string]any{
			"root_id": rootID,
			"status":  string(result.Status),
			"steps":   result.Steps,
		})
	}()

	for step := 0; ; {
		if step >= r.maxSteps {
			return types.DagResult{Status: types.DagMaxStepsExhausted, Steps: step, RootID: rootID}
		}
		v, err := r.issues.Validate(rootID)
		if err != nil {
			return r.fail(rootID, step, err)
		}
		if v.Final {
			return types.DagResult{Status: types.DagRootFinal, Steps: step, RootID: rootID}
		}
		ready, err := r.issues.Ready(rootID, []string{types.TagAgent})
		if err != nil {
			return r.fail(rootID, step, err)
		}
		if len(ready) == 0 {
			return types.DagResult{Status: types.DagNoExecutableLeaf, Steps: step, RootID: rootID}
		}
		issue := ready[0]

		claimed, err := r.claim(issue.ID)
		if err != nil {
			return r.fail(rootID, step, err)
		}
		if !claimed {
			// Another actor got there first; re-select without
			// spending a step.
			debug.Logf("claim lost for %s, re-selecting", issue.ID)
			continue
		}

		cfg := ResolveConfig(r.root, issue)
		r.sink.Line(fmt.Sprintf("step %d: %s %s [%s/%s]", step, issue.ID, issue.Title, cfg.CLI, cfg.Model), sink.StyleAccent)

		prompt := RenderPrompt(r.root, issue, rootID, cfg.PromptPath)
		exit, elapsed, err := r.execute(ctx, issue.ID, cfg, prompt, "")
		if err != nil {
			return r.fail(rootID, step, err)
		}
		if ctx.Err() != nil {
			// interrupted: leave the claim for the next resume
			return r.fail(rootID, step, ctx.Err())
		}

		cur, err := r.reload(issue.ID)
		if err != nil {
			return r.fail(rootID, step, err)
		}
		if cur.Status != types.StatusClosed && exit != 0 {
			if err := r.issues.Close(issue.ID, types.OutcomeFailure); err != nil {
				return r.fail(rootID, step, err)
			}
			if cur, err = r.reload(issue.ID); err != nil {
				return r.fail(rootID, step, err)
			}
		}

		if r.review && cur.Status == types.StatusClosed && cur.Outcome == types.OutcomeSuccess && hasRole(r.root, reviewerRole) {
			if cur, err = r.reviewPass(ctx, step, cur, rootID); err != nil {
				return r.fail(rootID, step, err)
			}
		}

		if err := r.postStep(step, cur, exit, elapsed, "orchestrator"); err != nil {
			return r.fail(rootID, step, err)
		}
		r.metrics.RecordStep(ctx, string(cur.Outcome))
		step++
	}
}

// reviewPass dispatches the reviewer role against a just-succeeded
// issue. The reviewer mutates the issue through the store on its own;
// the caller re-reads afterward.
func (r *Runner) reviewPass(ctx context.Context, step int, issue *types.Issue, rootID string) (*types.Issue, error) {
	synthetic := issue.Clone()
	synthetic.ExecutionSpec = &types.ExecutionSpec{Role: reviewerRole}

	cfg := ResolveConfig(r.root, synthetic)
	r.sink.Line(fmt.Sprintf("review: %s [%s/%s]", issue.ID, cfg.CLI, cfg.Model), sink.StyleDim)

	prompt := RenderPrompt(r.root, synthetic, rootID, cfg.PromptPath)
	exit, elapsed, err := r.execute(ctx, issue.ID, cfg, prompt, ".review")
	if err != nil {
		return nil, err
	}
	cur, err := r.reload(issue.ID)
	if err != nil {
		return nil, err
	}
	if err := r.postStep(step, cur, exit, elapsed, reviewerRole); err != nil {
		return nil, err
	}
	return cur, nil
}

// execute streams one backend invocation through its formatter, teeing
// raw lines to the issue's log file. Returns the child's exit code and
// wall time in seconds.
func (r *Runner) execute(ctx context.Context, issueID string, cfg Config, prompt, suffix string) (int, float64, error) {
	if err := os.MkdirAll(workspace.LogsDir(r.root), 0o755); err != nil {
		return -1, 0, err
	}
	runner, err := r.backends.Resolve(cfg.CLI)
	if err != nil {
		return -1, 0, err
	}
	f := format.New(cfg.CLI, r.sink)

	start := time.Now()
	exit, err := runner.Run(ctx, backend.Request{
		Prompt:    prompt,
		Model:     cfg.Model,
		Reasoning: cfg.Reasoning,
		Dir:       r.root,
		OnLine:    f.Line,
		TeePath:   workspace.IssueLogPath(r.root, issueID, suffix),
	})
	f.Close()
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return -1, elapsed, err
	}
	r.metrics.RecordBackendRun(ctx, cfg.CLI, exit)
	debug.Logf("backend %s exited %d for %s in %.1fs", runner.Name(), exit, issueID, elapsed)
	return exit, elapsed, nil
}

// stepEntry is the forum record appended after every loop step.
type stepEntry struct {
	Step    int     `json:"step"`
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Exit    int     `json:"exit_code"`
	Outcome string  `json:"outcome"`
	Elapsed float64 `json:"elapsed"`
}

func (r *Runner) postStep(step int, issue *types.Issue, exit int, elapsed float64, author string) error {
	body, err := json.Marshal(stepEntry{
		Step:    step,
		ID:      issue.ID,
		Title:   issue.Title,
		Exit:    exit,
		Outcome: string(issue.Outcome),
		Elapsed: elapsed,
	})
	if err != nil {
		return err
	}
	_, err = r.posts.Post(types.IssueTopic(issue.ID), string(body), author)
	return err
}

// reload fetches the issue fresh, failing when it vanished mid-step.
func (r *Runner) reload(id string) (*types.Issue, error) {
	issue, err := r.issues.Get(id)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, fmt.Errorf("issue vanished")
	}
	return issue, nil
}

func (r *Runner) fail(rootID string, steps int, err error) types.DagResult {
	r.sink.Error(err.Error())
	return types.DagResult{Status: types.DagError, Steps: steps, RootID: rootID, Err: err.Error()}
}

func (r *Runner) emit(eventType string, payload map[string]any) {
	if r.events == nil {
		return
	}
	_, _ = r.events.Emit(eventType, "runner", payload)
}
