package store

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/inshallah-dev/inshallah/internal/types"
)

func TestReadyBlocksEdge(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustCreate(t, s, "a", types.TagAgent)
	b := mustCreate(t, s, "b", types.TagAgent)
	mustAddDep(t, s, a.ID, types.DepBlocks, b.ID)

	ready, err := s.Ready("", []string{types.TagAgent})
	if err != nil {
		t.Fatalf("Ready(): %v", err)
	}
	if !reflect.DeepEqual(ids(ready), []string{a.ID}) {
		t.Errorf("Ready() = %v, want [%s]", ids(ready), a.ID)
	}

	mustClose(t, s, a.ID, types.OutcomeSuccess)
	ready, _ = s.Ready("", []string{types.TagAgent})
	if !reflect.DeepEqual(ids(ready), []string{b.ID}) {
		t.Errorf("Ready() after close = %v, want [%s]", ids(ready), b.ID)
	}
}

func TestReadyExpandedPrerequisiteStillBlocks(t *testing.T) {
	s, _ := newTestStore(t)
	c1 := mustCreate(t, s, "c1", types.TagAgent)
	c2 := mustCreate(t, s, "c2", types.TagAgent)
	mustAddDep(t, s, c1.ID, types.DepBlocks, c2.ID)

	// Expanded means delegated, not done: the ordering contract holds.
	mustClose(t, s, c1.ID, types.OutcomeExpanded)
	ready, err := s.Ready("", []string{types.TagAgent})
	if err != nil {
		t.Fatalf("Ready(): %v", err)
	}
	for _, issue := range ready {
		if issue.ID == c2.ID {
			t.Error("c2 became ready behind an expanded prerequisite")
		}
	}
}

func TestReadyLeafRule(t *testing.T) {
	s, _ := newTestStore(t)
	parent := mustCreate(t, s, "parent", types.TagAgent)
	child := mustCreate(t, s, "child", types.TagAgent)
	mustAddDep(t, s, child.ID, types.DepParent, parent.ID)

	ready, _ := s.Ready("", []string{types.TagAgent})
	if !reflect.DeepEqual(ids(ready), []string{child.ID}) {
		t.Errorf("Ready() = %v, want only the child", ids(ready))
	}

	// Once every child is closed the parent becomes a leaf again.
	mustClose(t, s, child.ID, types.OutcomeSuccess)
	ready, _ = s.Ready("", []string{types.TagAgent})
	if !reflect.DeepEqual(ids(ready), []string{parent.ID}) {
		t.Errorf("Ready() = %v, want only the parent", ids(ready))
	}
}

func TestReadyScopeAndTags(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root", types.TagRoot, types.TagAgent)
	in := mustCreate(t, s, "in", types.TagAgent)
	mustCreate(t, s, "out", types.TagAgent)
	untagged := mustCreate(t, s, "untagged")
	mustAddDep(t, s, in.ID, types.DepParent, root.ID)
	mustAddDep(t, s, untagged.ID, types.DepParent, root.ID)

	ready, err := s.Ready(root.ID, []string{types.TagAgent})
	if err != nil {
		t.Fatalf("Ready(): %v", err)
	}
	if !reflect.DeepEqual(ids(ready), []string{in.ID}) {
		t.Errorf("Ready(scoped, tagged) = %v, want [%s]", ids(ready), in.ID)
	}

	// Everything ready is inside the subtree.
	scope, _ := s.SubtreeIDs(root.ID)
	inScope := map[string]bool{}
	for _, id := range scope {
		inScope[id] = true
	}
	all, _ := s.Ready(root.ID, nil)
	for _, issue := range all {
		if !inScope[issue.ID] {
			t.Errorf("ready issue %s outside subtree", issue.ID)
		}
	}
}

func TestReadyPriorityOrderStable(t *testing.T) {
	s, _ := newTestStore(t)
	low, _ := s.Create("low", "", []string{types.TagAgent}, nil, 4)
	first, _ := s.Create("first", "", []string{types.TagAgent}, nil, 2)
	second, _ := s.Create("second", "", []string{types.TagAgent}, nil, 2)

	ready, err := s.Ready("", []string{types.TagAgent})
	if err != nil {
		t.Fatalf("Ready(): %v", err)
	}
	want := []string{first.ID, second.ID, low.ID}
	if !reflect.DeepEqual(ids(ready), want) {
		t.Errorf("Ready() = %v, want %v", ids(ready), want)
	}
}

func TestValidateEmptyRootLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "goal", types.TagAgent, types.TagRoot)

	v, err := s.Validate(root.ID)
	if err != nil {
		t.Fatalf("Validate(): %v", err)
	}
	if v.Final || v.Reason != "in progress" {
		t.Errorf("Validate(open root) = %+v", v)
	}

	mustClose(t, s, root.ID, types.OutcomeSuccess)
	v, _ = s.Validate(root.ID)
	if !v.Final || v.Reason != "all work completed" {
		t.Errorf("Validate(closed root) = %+v", v)
	}
}

func TestValidateExpandedRootFlowsThroughChild(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root")
	child := mustCreate(t, s, "child")
	mustAddDep(t, s, child.ID, types.DepParent, root.ID)
	mustClose(t, s, root.ID, types.OutcomeExpanded)

	v, _ := s.Validate(root.ID)
	if v.Final {
		t.Errorf("Validate() = %+v, want pending while child open", v)
	}

	mustClose(t, s, child.ID, types.OutcomeSuccess)
	v, _ = s.Validate(root.ID)
	if !v.Final {
		t.Errorf("Validate() = %+v, want final after child success", v)
	}
}

func TestValidateFailureBlocksFinal(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root")
	child := mustCreate(t, s, "child")
	mustAddDep(t, s, child.ID, types.DepParent, root.ID)
	mustClose(t, s, root.ID, types.OutcomeExpanded)
	mustClose(t, s, child.ID, types.OutcomeFailure)

	v, _ := s.Validate(root.ID)
	if v.Final {
		t.Error("failure outcome validated as final")
	}
	if !strings.Contains(v.Reason, child.ID) {
		t.Errorf("reason %q does not name the failing issue", v.Reason)
	}
}

func TestValidateExpandedWithoutChildren(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root")
	mustClose(t, s, root.ID, types.OutcomeExpanded)

	v, _ := s.Validate(root.ID)
	if v.Final {
		t.Error("expanded-without-children validated as final")
	}
	if !strings.Contains(v.Reason, "expanded without children") {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestValidateRootClosingStep(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root")
	child := mustCreate(t, s, "child")
	mustAddDep(t, s, child.ID, types.DepParent, root.ID)
	mustClose(t, s, child.ID, types.OutcomeSuccess)

	v, _ := s.Validate(root.ID)
	if v.Final || v.Reason != "all children closed, root still open" {
		t.Errorf("Validate() = %+v", v)
	}
}

func TestValidateMissingRoot(t *testing.T) {
	s, _ := newTestStore(t)
	v, err := s.Validate("inshallah-ffffffff")
	if err != nil {
		t.Fatalf("Validate(): %v", err)
	}
	if !v.Final || v.Reason != "root not found" {
		t.Errorf("Validate(missing) = %+v", v)
	}
}

func TestCollapsible(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustCreate(t, s, "root")
	c1 := mustCreate(t, s, "c1")
	c2 := mustCreate(t, s, "c2")
	mustAddDep(t, s, c1.ID, types.DepParent, root.ID)
	mustAddDep(t, s, c2.ID, types.DepParent, root.ID)
	mustClose(t, s, root.ID, types.OutcomeExpanded)
	mustClose(t, s, c1.ID, types.OutcomeSuccess)

	// One child still open: not collapsible yet.
	got, err := s.Collapsible(root.ID)
	if err != nil {
		t.Fatalf("Collapsible(): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Collapsible() = %v, want empty", got)
	}

	mustClose(t, s, c2.ID, types.OutcomeSkipped)
	got, _ = s.Collapsible(root.ID)
	if !reflect.DeepEqual(got, []string{root.ID}) {
		t.Errorf("Collapsible() = %v, want [%s]", got, root.ID)
	}

	// An expanded child is not a terminal outcome.
	if err := s.Reopen(c2.ID); err != nil {
		t.Fatal(err)
	}
	mustClose(t, s, c2.ID, types.OutcomeExpanded)
	gc := mustCreate(t, s, "gc")
	mustAddDep(t, s, gc.ID, types.DepParent, c2.ID)
	got, _ = s.Collapsible(root.ID)
	if len(got) != 0 {
		t.Errorf("Collapsible() with expanded child = %v, want empty", got)
	}
}

func TestResolvePrefix(t *testing.T) {
	s, _ := newTestStore(t)
	// Force two ids sharing a 6-char prefix but differing at char 7.
	write := func(id string) {
		err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
			return append(issues, &types.Issue{
				ID: id, Title: id, Status: types.StatusOpen,
				Priority: 3, CreatedAt: 1, UpdatedAt: 1,
			}), true, nil
		})
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	write("inshallah-abc12345")
	write("inshallah-abc16789")

	// Short shared prefix: ambiguous, carries both candidates.
	_, err := s.ResolvePrefix("inshallah-abc1")
	var ambiguous *AmbiguousPrefixError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("ResolvePrefix(shared) = %v, want AmbiguousPrefixError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %v", ambiguous.Candidates)
	}

	// Longer prefix resolves uniquely.
	got, err := s.ResolvePrefix("inshallah-abc12")
	if err != nil {
		t.Fatalf("ResolvePrefix(unique): %v", err)
	}
	if got.ID != "inshallah-abc12345" {
		t.Errorf("resolved = %s", got.ID)
	}

	// No match at all.
	if _, err := s.ResolvePrefix("inshallah-zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolvePrefix(absent) = %v, want ErrNotFound", err)
	}
}
