// Package store persists the issue DAG as a single JSONL file. Each
// mutation reads the whole file, edits the in-memory list, and rewrites
// it atomically under an advisory lock. At corpus scale (hundreds of
// issues) this is simpler and safer than incremental updates, and it
// makes crash recovery a matter of re-reading the file.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inshallah-dev/inshallah/internal/eventlog"
	"github.com/inshallah-dev/inshallah/internal/idgen"
	"github.com/inshallah-dev/inshallah/internal/lockfile"
	"github.com/inshallah-dev/inshallah/internal/types"
)

const eventSource = "store"

// Store is a JSONL-backed issue store.
type Store struct {
	path   string
	events *eventlog.Log
	now    func() int64 // epoch seconds, swappable in tests
}

// New returns a Store over path, emitting audit records to events.
func New(path string, events *eventlog.Log) *Store {
	return &Store{
		path:   path,
		events: events,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// load parses every issue in insertion order. A missing file is an
// empty store.
func (s *Store) load() ([]*types.Issue, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	var issues []*types.Issue
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var issue types.Issue
		if err := json.Unmarshal([]byte(line), &issue); err != nil {
			return nil, fmt.Errorf("store: corrupt record in %s: %w", s.path, err)
		}
		issue.SetDefaults()
		issues = append(issues, &issue)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return issues, nil
}

// save rewrites the whole store atomically: temp file in the same
// directory, then rename over the original.
func (s *Store) save(issues []*types.Issue) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".issues-*.jsonl")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, issue := range issues {
		line, err := json.Marshal(issue)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("store: marshal %s: %w", issue.ID, err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// lockPath is a sidecar file the advisory lock lives on. Locking the
// data file itself would not survive the rename in save.
func (s *Store) lockPath() string { return s.path + ".lock" }

// withLock runs fn with the store lock held. fn gets the current issue
// list; when it returns save=true the list is rewritten before the lock
// is released.
func (s *Store) withLock(fn func(issues []*types.Issue) (out []*types.Issue, save bool, err error)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	lf, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer lf.Close()
	if err := lockfile.Exclusive(lf); err != nil {
		return fmt.Errorf("store: lock %s: %w", s.path, err)
	}
	defer func() { _ = lockfile.Unlock(lf) }()

	issues, err := s.load()
	if err != nil {
		return err
	}
	out, save, err := fn(issues)
	if err != nil {
		return err
	}
	if save {
		return s.save(out)
	}
	return nil
}

// emit records one audit event. Mutations call it inside withLock,
// before save, so the record lands before the new state is visible and
// an append failure aborts the mutation.
func (s *Store) emit(eventType string, payload map[string]any, opts ...eventlog.Option) error {
	if s.events == nil {
		return nil
	}
	_, err := s.events.Emit(eventType, eventSource, payload, opts...)
	return err
}

// Create adds a new open issue and returns it. Zero priority takes the
// default; out-of-range priority is rejected.
func (s *Store) Create(title, body string, tags []string, spec *types.ExecutionSpec, priority int) (*types.Issue, error) {
	if priority == 0 {
		priority = types.PriorityDefault
	}
	if priority < types.PriorityMin || priority > types.PriorityMax {
		return nil, invalidArgument("priority must be between %d and %d (got %d)", types.PriorityMin, types.PriorityMax, priority)
	}
	var created *types.Issue
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		taken := make(map[string]bool, len(issues))
		for _, issue := range issues {
			taken[issue.ID] = true
		}
		id, err := idgen.New(taken)
		if err != nil {
			return nil, false, err
		}
		now := s.now()
		created = &types.Issue{
			ID:            id,
			Title:         title,
			Body:          body,
			Status:        types.StatusOpen,
			Tags:          append([]string(nil), tags...),
			ExecutionSpec: spec,
			Priority:      priority,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := created.Validate(); err != nil {
			return nil, false, invalidArgument("%v", err)
		}
		if err := s.emit("issue.created", map[string]any{
			"title":    created.Title,
			"tags":     created.Tags,
			"priority": created.Priority,
		}, eventlog.WithIssueID(created.ID)); err != nil {
			return nil, false, err
		}
		return append(issues, created), true, nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// Get returns the issue with the exact id, or nil when absent.
func (s *Store) Get(id string) (*types.Issue, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	if issue := find(issues, id); issue != nil {
		return issue.Clone(), nil
	}
	return nil, nil
}

// List returns issues in insertion order, optionally filtered by
// status and/or a single tag.
func (s *Store) List(status types.Status, tag string) ([]*types.Issue, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []*types.Issue
	for _, issue := range issues {
		if status != "" && issue.Status != status {
			continue
		}
		if tag != "" && !issue.HasTag(tag) {
			continue
		}
		out = append(out, issue.Clone())
	}
	return out, nil
}

// Patch holds the mutable fields for Update. Nil pointers keep the
// current value; SetSpec distinguishes "clear the spec" from "keep it".
type Patch struct {
	Title    *string
	Body     *string
	Tags     []string
	Priority *int
	Spec     *types.ExecutionSpec
	SetSpec  bool
}

// Update applies a patch to the issue and bumps updated_at.
func (s *Store) Update(id string, patch Patch) (*types.Issue, error) {
	if patch.Priority != nil && (*patch.Priority < types.PriorityMin || *patch.Priority > types.PriorityMax) {
		return nil, invalidArgument("priority must be between %d and %d (got %d)", types.PriorityMin, types.PriorityMax, *patch.Priority)
	}
	var updated *types.Issue
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, id)
		if issue == nil {
			return nil, false, notFound(id)
		}
		if patch.Title != nil {
			issue.Title = *patch.Title
		}
		if patch.Body != nil {
			issue.Body = *patch.Body
		}
		if patch.Tags != nil {
			issue.Tags = append([]string(nil), patch.Tags...)
		}
		if patch.Priority != nil {
			issue.Priority = *patch.Priority
		}
		if patch.SetSpec {
			issue.ExecutionSpec = patch.Spec
		}
		s.touch(issue)
		if err := issue.Validate(); err != nil {
			return nil, false, invalidArgument("%v", err)
		}
		if err := s.emit("issue.updated", map[string]any{"title": issue.Title}, eventlog.WithIssueID(id)); err != nil {
			return nil, false, err
		}
		updated = issue
		return issues, true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Claim transitions an open issue to in_progress. Returns false
// without error when the issue is not open.
func (s *Store) Claim(id string) (bool, error) {
	claimed := false
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, id)
		if issue == nil {
			return nil, false, notFound(id)
		}
		if issue.Status != types.StatusOpen {
			return nil, false, nil
		}
		issue.Status = types.StatusInProgress
		s.touch(issue)
		if err := s.emit("issue.claimed", map[string]any{}, eventlog.WithIssueID(id)); err != nil {
			return nil, false, err
		}
		claimed = true
		return issues, true, nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Close forces the issue to closed with the given outcome, regardless
// of its current status.
func (s *Store) Close(id string, outcome types.Outcome) error {
	if outcome == types.OutcomeNone || !outcome.IsValid() {
		return invalidArgument("close requires a valid outcome (got %q)", outcome)
	}
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, id)
		if issue == nil {
			return nil, false, notFound(id)
		}
		issue.Status = types.StatusClosed
		issue.Outcome = outcome
		s.touch(issue)
		if err := s.emit("issue.closed", map[string]any{"outcome": string(outcome)}, eventlog.WithIssueID(id)); err != nil {
			return nil, false, err
		}
		return issues, true, nil
	})
	return err
}

// Reopen clears the outcome and returns the issue to open.
func (s *Store) Reopen(id string) error {
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, id)
		if issue == nil {
			return nil, false, notFound(id)
		}
		issue.Status = types.StatusOpen
		issue.Outcome = types.OutcomeNone
		s.touch(issue)
		if err := s.emit("issue.reopened", map[string]any{}, eventlog.WithIssueID(id)); err != nil {
			return nil, false, err
		}
		return issues, true, nil
	})
	return err
}

// AddDep appends an edge on src if not already present. The target is
// not required to exist; dangling edges are legal but inert.
func (s *Store) AddDep(src string, depType types.DepType, dst string) error {
	if !depType.IsValid() {
		return invalidArgument("unknown dep type %q", depType)
	}
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, src)
		if issue == nil {
			return nil, false, notFound(src)
		}
		for _, d := range issue.Deps {
			if d.Type == depType && d.Target == dst {
				return nil, false, nil
			}
		}
		issue.Deps = append(issue.Deps, types.DepEdge{Type: depType, Target: dst})
		s.touch(issue)
		if err := s.emit("dep.added", map[string]any{"type": string(depType), "target": dst}, eventlog.WithIssueID(src)); err != nil {
			return nil, false, err
		}
		return issues, true, nil
	})
	return err
}

// RemoveDep drops the matching edge from src if present.
func (s *Store) RemoveDep(src string, depType types.DepType, dst string) error {
	removed := false
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		issue := find(issues, src)
		if issue == nil {
			return nil, false, notFound(src)
		}
		kept := issue.Deps[:0]
		for _, d := range issue.Deps {
			if d.Type == depType && d.Target == dst {
				removed = true
				continue
			}
			kept = append(kept, d)
		}
		if !removed {
			return nil, false, nil
		}
		issue.Deps = kept
		s.touch(issue)
		if err := s.emit("dep.removed", map[string]any{"type": string(depType), "target": dst}, eventlog.WithIssueID(src)); err != nil {
			return nil, false, err
		}
		return issues, true, nil
	})
	return err
}

// Children returns issues carrying a parent edge to parentID, in
// insertion order.
func (s *Store) Children(parentID string) ([]*types.Issue, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	return childrenOf(issues, parentID), nil
}

// SubtreeIDs walks parent edges breadth-first from rootID, returning
// the root and every descendant. A visited set keeps cycles finite.
func (s *Store) SubtreeIDs(rootID string) ([]string, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	return subtreeIDs(issues, rootID), nil
}

// ResetInProgress returns every in_progress issue in the subtree to
// open. Used on resume to clear claims left by a crashed run.
func (s *Store) ResetInProgress(rootID string) ([]string, error) {
	var reset []string
	err := s.withLock(func(issues []*types.Issue) ([]*types.Issue, bool, error) {
		scope := idSet(subtreeIDs(issues, rootID))
		for _, issue := range issues {
			if !scope[issue.ID] || issue.Status != types.StatusInProgress {
				continue
			}
			issue.Status = types.StatusOpen
			s.touch(issue)
			reset = append(reset, issue.ID)
		}
		if len(reset) > 0 {
			if err := s.emit("issues.reset", map[string]any{"ids": reset}, eventlog.WithIssueID(rootID)); err != nil {
				return nil, false, err
			}
		}
		return issues, len(reset) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return reset, nil
}

// ResolvePrefix returns the unique issue whose id starts with prefix.
// Full-length ids only match exactly.
func (s *Store) ResolvePrefix(prefix string) (*types.Issue, error) {
	issues, err := s.load()
	if err != nil {
		return nil, err
	}
	var matches []*types.Issue
	for _, issue := range issues {
		if strings.HasPrefix(issue.ID, prefix) {
			matches = append(matches, issue)
		}
	}
	switch len(matches) {
	case 0:
		return nil, notFound(prefix)
	case 1:
		return matches[0].Clone(), nil
	default:
		candidates := make([]string, 0, maxPrefixCandidates)
		for _, m := range matches {
			if len(candidates) == maxPrefixCandidates {
				break
			}
			candidates = append(candidates, m.ID)
		}
		return nil, &AmbiguousPrefixError{Prefix: prefix, Candidates: candidates}
	}
}

// touch bumps updated_at, keeping it monotonic even when the clock
// steps backwards between mutations.
func (s *Store) touch(issue *types.Issue) {
	now := s.now()
	if now > issue.UpdatedAt {
		issue.UpdatedAt = now
	}
}

func find(issues []*types.Issue, id string) *types.Issue {
	for _, issue := range issues {
		if issue.ID == id {
			return issue
		}
	}
	return nil
}

func childrenOf(issues []*types.Issue, parentID string) []*types.Issue {
	var out []*types.Issue
	for _, issue := range issues {
		for _, pid := range issue.ParentIDs() {
			if pid == parentID {
				out = append(out, issue)
				break
			}
		}
	}
	return out
}

func subtreeIDs(issues []*types.Issue, rootID string) []string {
	visited := map[string]bool{rootID: true}
	order := []string{rootID}
	queue := []string{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range childrenOf(issues, cur) {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			order = append(order, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return order
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// sortStableByPriority orders issues by ascending priority, preserving
// insertion order on ties.
func sortStableByPriority(issues []*types.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Priority < issues[j].Priority
	})
}
