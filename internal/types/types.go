// Package types defines core data structures for the inshallah orchestrator.
package types

import (
	"fmt"
	"strings"
)

// IDPrefix is the fixed prefix for every issue id.
const IDPrefix = "inshallah-"

// Well-known tags that drive the runner.
const (
	TagAgent = "node:agent" // eligible for dispatch
	TagRoot  = "node:root"  // top-level goal
)

// Issue represents one node in the work DAG.
type Issue struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Body          string         `json:"body,omitempty"`
	Status        Status         `json:"status"`
	Outcome       Outcome        `json:"outcome,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Deps          []DepEdge      `json:"deps,omitempty"`
	ExecutionSpec *ExecutionSpec `json:"execution_spec,omitempty"`
	Priority      int            `json:"priority"`
	CreatedAt     int64          `json:"created_at"`
	UpdatedAt     int64          `json:"updated_at"`
}

// Status represents the lifecycle state of an issue
type Status string

// Issue status constants
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Outcome records how a closed issue ended. Empty means "not closed yet".
type Outcome string

// Outcome constants
const (
	OutcomeNone      Outcome = ""
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeNeedsWork Outcome = "needs_work"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeExpanded  Outcome = "expanded"
)

// IsValid checks if the outcome value is valid (empty included)
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeNone, OutcomeSuccess, OutcomeFailure, OutcomeNeedsWork, OutcomeSkipped, OutcomeExpanded:
		return true
	}
	return false
}

// IsTerminal reports whether the outcome finishes work for good.
// Expanded is NOT terminal: the work was delegated, not completed.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSuccess || o == OutcomeSkipped
}

// DepType categorizes a dependency edge
type DepType string

// Dependency edge type constants
const (
	// DepParent makes the carrying issue a child of Target.
	DepParent DepType = "parent"
	// DepBlocks makes the carrying issue a prerequisite of Target.
	DepBlocks DepType = "blocks"
)

// IsValid checks if the dependency type value is valid
func (d DepType) IsValid() bool {
	return d == DepParent || d == DepBlocks
}

// DepEdge is a typed, directed edge stored on the source issue.
type DepEdge struct {
	Type   DepType `json:"type"`
	Target string  `json:"target"`
}

// ExecutionSpec overrides how an issue is dispatched. All fields are
// optional; empty strings defer to role and orchestrator defaults.
type ExecutionSpec struct {
	CLI        string `json:"cli,omitempty"`
	Model      string `json:"model,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
	PromptPath string `json:"prompt_path,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Priority bounds: 1 is most urgent, 5 least.
const (
	PriorityMin     = 1
	PriorityMax     = 5
	PriorityDefault = 3
)

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !strings.HasPrefix(i.ID, IDPrefix) {
		return fmt.Errorf("id must start with %q (got %q)", IDPrefix, i.ID)
	}
	if i.Priority < PriorityMin || i.Priority > PriorityMax {
		return fmt.Errorf("priority must be between %d and %d (got %d)", PriorityMin, PriorityMax, i.Priority)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.Outcome.IsValid() {
		return fmt.Errorf("invalid outcome: %s", i.Outcome)
	}
	// Enforce the closed/outcome invariant both ways.
	if i.Status == StatusClosed && i.Outcome == OutcomeNone {
		return fmt.Errorf("closed issues must have an outcome")
	}
	if i.Status != StatusClosed && i.Outcome != OutcomeNone {
		return fmt.Errorf("non-closed issues cannot have an outcome")
	}
	if i.UpdatedAt < i.CreatedAt {
		return fmt.Errorf("updated_at cannot precede created_at")
	}
	seen := make(map[string]struct{}, len(i.Tags))
	for _, tag := range i.Tags {
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("duplicate tag: %s", tag)
		}
		seen[tag] = struct{}{}
	}
	for _, d := range i.Deps {
		if !d.Type.IsValid() {
			return fmt.Errorf("invalid dep type: %s", d.Type)
		}
	}
	return nil
}

// SetDefaults applies default values for fields omitted during JSONL import.
func (i *Issue) SetDefaults() {
	if i.Status == "" {
		i.Status = StatusOpen
	}
	if i.Priority == 0 {
		i.Priority = PriorityDefault
	}
}

// HasTag reports whether the issue carries the exact tag.
func (i *Issue) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParentIDs returns the targets of the issue's parent edges in order.
func (i *Issue) ParentIDs() []string {
	var out []string
	for _, d := range i.Deps {
		if d.Type == DepParent {
			out = append(out, d.Target)
		}
	}
	return out
}

// BlockTargets returns the targets of the issue's blocks edges in order.
func (i *Issue) BlockTargets() []string {
	var out []string
	for _, d := range i.Deps {
		if d.Type == DepBlocks {
			out = append(out, d.Target)
		}
	}
	return out
}

// Clone returns a deep copy so store callers can mutate freely.
func (i *Issue) Clone() *Issue {
	out := *i
	out.Tags = append([]string(nil), i.Tags...)
	out.Deps = append([]DepEdge(nil), i.Deps...)
	if i.ExecutionSpec != nil {
		spec := *i.ExecutionSpec
		out.ExecutionSpec = &spec
	}
	return &out
}

// ForumMessage is one append-only entry on a forum topic.
type ForumMessage struct {
	Topic     string `json:"topic"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"`
}

// TopicInfo summarizes one forum topic for listings.
type TopicInfo struct {
	Topic    string `json:"topic"`
	Messages int    `json:"messages"`
	LastAt   int64  `json:"last_at"`
}

// IssueTopic returns the conventional forum topic for an issue.
func IssueTopic(id string) string {
	return "issue:" + id
}

// TopicIssueID extracts the issue id from an "issue:<id>" topic,
// or "" when the topic does not follow the convention.
func TopicIssueID(topic string) string {
	if rest, ok := strings.CutPrefix(topic, "issue:"); ok {
		return rest
	}
	return ""
}

// EventSchemaVersion is the current events.jsonl record version.
const EventSchemaVersion = 1

// Event is one audit record in events.jsonl.
type Event struct {
	V       int            `json:"v"`
	TSMS    int64          `json:"ts_ms"`
	Type    string         `json:"type"`
	Source  string         `json:"source"`
	RunID   string         `json:"run_id,omitempty"`
	IssueID string         `json:"issue_id,omitempty"`
	Payload map[string]any `json:"payload"`
}

// DagStatus is the terminal disposition of a runner invocation
type DagStatus string

// DagRunner terminal status constants
const (
	DagRootFinal         DagStatus = "root_final"
	DagNoExecutableLeaf  DagStatus = "no_executable_leaf"
	DagMaxStepsExhausted DagStatus = "max_steps_exhausted"
	DagError             DagStatus = "error"
)

// DagResult is what a run or resume returns instead of raising.
type DagResult struct {
	Status DagStatus `json:"status"`
	Steps  int       `json:"steps"`
	RootID string    `json:"root_id"`
	Err    string    `json:"error,omitempty"`
}

// Final reports whether the run ended because the root subtree converged.
func (r DagResult) Final() bool {
	return r.Status == DagRootFinal
}
