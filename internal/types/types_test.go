package types

import (
	"strings"
	"testing"
)

func validIssue() *Issue {
	return &Issue{
		ID:        IDPrefix + "deadbeef",
		Title:     "do the thing",
		Status:    StatusOpen,
		Priority:  PriorityDefault,
		CreatedAt: 100,
		UpdatedAt: 100,
	}
}

func TestValidateOK(t *testing.T) {
	if err := validIssue().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Issue)
		want   string
	}{
		{"empty title", func(i *Issue) { i.Title = "" }, "title"},
		{"bad prefix", func(i *Issue) { i.ID = "bd-123" }, "id must start"},
		{"priority low", func(i *Issue) { i.Priority = 0 }, "priority"},
		{"priority high", func(i *Issue) { i.Priority = 6 }, "priority"},
		{"bad status", func(i *Issue) { i.Status = "paused" }, "invalid status"},
		{"bad outcome", func(i *Issue) { i.Status = StatusClosed; i.Outcome = "done" }, "invalid outcome"},
		{"closed without outcome", func(i *Issue) { i.Status = StatusClosed }, "must have an outcome"},
		{"open with outcome", func(i *Issue) { i.Outcome = OutcomeSuccess }, "cannot have an outcome"},
		{"updated before created", func(i *Issue) { i.UpdatedAt = 50 }, "updated_at"},
		{"duplicate tag", func(i *Issue) { i.Tags = []string{TagAgent, TagAgent} }, "duplicate tag"},
		{"bad dep type", func(i *Issue) { i.Deps = []DepEdge{{Type: "relates", Target: "x"}} }, "invalid dep type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := validIssue()
			tt.mutate(issue)
			err := issue.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var i Issue
	i.SetDefaults()
	if i.Status != StatusOpen {
		t.Errorf("Status = %q, want open", i.Status)
	}
	if i.Priority != PriorityDefault {
		t.Errorf("Priority = %d, want %d", i.Priority, PriorityDefault)
	}
}

func TestOutcomeIsTerminal(t *testing.T) {
	terminal := map[Outcome]bool{
		OutcomeSuccess:   true,
		OutcomeSkipped:   true,
		OutcomeFailure:   false,
		OutcomeNeedsWork: false,
		OutcomeExpanded:  false,
		OutcomeNone:      false,
	}
	for o, want := range terminal {
		if got := o.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%q) = %v, want %v", o, got, want)
		}
	}
}

func TestEdgeAccessors(t *testing.T) {
	i := validIssue()
	i.Deps = []DepEdge{
		{Type: DepParent, Target: "inshallah-aaaaaaaa"},
		{Type: DepBlocks, Target: "inshallah-bbbbbbbb"},
		{Type: DepParent, Target: "inshallah-cccccccc"},
	}
	parents := i.ParentIDs()
	if len(parents) != 2 || parents[0] != "inshallah-aaaaaaaa" || parents[1] != "inshallah-cccccccc" {
		t.Errorf("ParentIDs() = %v", parents)
	}
	blocks := i.BlockTargets()
	if len(blocks) != 1 || blocks[0] != "inshallah-bbbbbbbb" {
		t.Errorf("BlockTargets() = %v", blocks)
	}
}

func TestCloneIsDeep(t *testing.T) {
	i := validIssue()
	i.Tags = []string{TagRoot}
	i.ExecutionSpec = &ExecutionSpec{Role: "worker"}
	c := i.Clone()
	c.Tags[0] = "mutated"
	c.ExecutionSpec.Role = "reviewer"
	if i.Tags[0] != TagRoot {
		t.Error("Clone shares Tags backing array")
	}
	if i.ExecutionSpec.Role != "worker" {
		t.Error("Clone shares ExecutionSpec")
	}
}

func TestIssueTopicRoundTrip(t *testing.T) {
	id := IDPrefix + "12345678"
	if got := TopicIssueID(IssueTopic(id)); got != id {
		t.Errorf("TopicIssueID(IssueTopic(id)) = %q, want %q", got, id)
	}
	if got := TopicIssueID("standup"); got != "" {
		t.Errorf("TopicIssueID(free-form) = %q, want empty", got)
	}
}
