package store

import (
	"fmt"
	"strings"

	"github.com/inshallah-dev/inshallah/internal/types"
)

// Ready returns the dispatchable frontier: open leaves with no
// unsatisfied blocks edge, carrying every filter tag, ordered by
// ascending priority (stable on ties). rootID "" scans the whole
// store.
func (s *Store) Ready(rootID string, filterTags []string) ([]*types.Issue, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}

	var scope map[string]bool
	if rootID != "" {
		scope = idSet(subtreeIDs(issues, rootID))
	}

	// blockedBy[T] is true when some prerequisite P carries {blocks,T}
	// and has not finished its own work. A prerequisite closed as
	// expanded delegated its work to children, so the ordering
	// contract it promised is not yet satisfied.
	blocked := make(map[string]bool)
	for _, p := range issues {
		unfinished := p.Status != types.StatusClosed || p.Outcome == types.OutcomeExpanded
		if !unfinished {
			continue
		}
		for _, target := range p.BlockTargets() {
			blocked[target] = true
		}
	}

	var ready []*types.Issue
	for _, issue := range issues {
		if scope != nil && !scope[issue.ID] {
			continue
		}
		if issue.Status != types.StatusOpen {
			continue
		}
		if blocked[issue.ID] {
			continue
		}
		if !isLeaf(issues, issue.ID) {
			continue
		}
		if !hasAllTags(issue, filterTags) {
			continue
		}
		ready = append(ready, issue.Clone())
	}
	sortStableByPriority(ready)
	return ready, nil
}

// isLeaf reports whether the issue has no children, or every direct
// child is closed.
func isLeaf(issues []*types.Issue, id string) bool {
	for _, child := range childrenOf(issues, id) {
		if child.Status != types.StatusClosed {
			return false
		}
	}
	return true
}

func hasAllTags(issue *types.Issue, tags []string) bool {
	for _, tag := range tags {
		if !issue.HasTag(tag) {
			return false
		}
	}
	return true
}

// Validation is the result of the completion predicate.
type Validation struct {
	Final  bool   `json:"final"`
	Reason string `json:"reason"`
}

// Validate decides whether the subtree under rootID has reached a
// final state. Rules are evaluated in order; the first match wins.
func (s *Store) Validate(rootID string) (Validation, error) {
	issues, err := s.load()
	if err != nil {
		return Validation{}, err
	}

	// Rule 1: a missing root has nothing left to drive.
	if find(issues, rootID) == nil {
		return Validation{Final: true, Reason: "root not found"}, nil
	}

	scope := subtreeIDs(issues, rootID)
	inScope := idSet(scope)

	// Rule 2: failure and needs_work demand re-expansion, not
	// termination.
	var demanding []string
	for _, issue := range issues {
		if !inScope[issue.ID] {
			continue
		}
		if issue.Status == types.StatusClosed &&
			(issue.Outcome == types.OutcomeFailure || issue.Outcome == types.OutcomeNeedsWork) {
			demanding = append(demanding, issue.ID)
		}
	}
	if len(demanding) > 0 {
		return Validation{Reason: fmt.Sprintf("issues need re-expansion: %s", strings.Join(demanding, ", "))}, nil
	}

	// Rule 3: expanded with no children is a structural bug (the work
	// was delegated to nothing).
	for _, issue := range issues {
		if !inScope[issue.ID] {
			continue
		}
		if issue.Status == types.StatusClosed && issue.Outcome == types.OutcomeExpanded &&
			len(childrenOf(issues, issue.ID)) == 0 {
			return Validation{Reason: fmt.Sprintf("expanded without children: %s", issue.ID)}, nil
		}
	}

	// Rule 4: expanded nodes are transparent; completion flows through
	// their descendants. Pending is simply everything not yet closed.
	var pending []string
	for _, issue := range issues {
		if inScope[issue.ID] && issue.Status != types.StatusClosed {
			pending = append(pending, issue.ID)
		}
	}

	// Rule 5.
	if len(pending) == 0 {
		return Validation{Final: true, Reason: "all work completed"}, nil
	}

	// Rule 6: only the root remains and it has children. The runner
	// uses this to schedule the final root-closing step.
	if len(pending) == 1 && pending[0] == rootID && len(scope) > 1 {
		return Validation{Reason: "all children closed, root still open"}, nil
	}

	// Rule 7.
	return Validation{Reason: "in progress"}, nil
}

// Collapsible returns the expanded nodes in the subtree whose direct
// children are all closed with a terminal outcome (success or
// skipped). Closing children bottom-up makes parents collapsible in
// turn, so callers get bottom-up order without a topological sort.
func (s *Store) Collapsible(rootID string) ([]string, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	var scope map[string]bool
	if rootID != "" {
		scope = idSet(subtreeIDs(issues, rootID))
	}
	var out []string
	for _, issue := range issues {
		if scope != nil && !scope[issue.ID] {
			continue
		}
		if issue.Status != types.StatusClosed || issue.Outcome != types.OutcomeExpanded {
			continue
		}
		children := childrenOf(issues, issue.ID)
		if len(children) == 0 {
			continue // structurally broken, not collapsible
		}
		allTerminal := true
		for _, child := range children {
			if child.Status != types.StatusClosed || !child.Outcome.IsTerminal() {
				allTerminal = false
				break
			}
		}
		if allTerminal {
			out = append(out, issue.ID)
		}
	}
	return out, nil
}
