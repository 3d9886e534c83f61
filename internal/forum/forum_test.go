package forum

import (
	"path/filepath"
	"testing"

	"github.com/inshallah-dev/inshallah/internal/eventlog"
	"github.com/inshallah-dev/inshallah/internal/types"
)

func newTestForum(t *testing.T) (*Store, *eventlog.Log) {
	t.Helper()
	dir := t.TempDir()
	events := eventlog.New(filepath.Join(dir, "events.jsonl"))
	s := New(filepath.Join(dir, "forum.jsonl"), events)
	// Monotonic fake clock so Topics ordering is deterministic.
	tick := int64(0)
	s.now = func() int64 { tick++; return tick }
	return s, events
}

func TestPostAndRead(t *testing.T) {
	s, _ := newTestForum(t)
	for _, body := range []string{"one", "two", "three"} {
		if _, err := s.Post("standup", body, "orchestrator"); err != nil {
			t.Fatalf("Post(): %v", err)
		}
	}

	msgs, err := s.Read("standup", 0)
	if err != nil {
		t.Fatalf("Read(): %v", err)
	}
	if len(msgs) != 3 || msgs[0].Body != "one" || msgs[2].Body != "three" {
		t.Errorf("Read() = %+v", msgs)
	}

	last, _ := s.Read("standup", 2)
	if len(last) != 2 || last[0].Body != "two" {
		t.Errorf("Read(limit=2) = %+v", last)
	}
}

func TestReadUnknownTopic(t *testing.T) {
	s, _ := newTestForum(t)
	msgs, err := s.Read("nothing", 5)
	if err != nil || len(msgs) != 0 {
		t.Errorf("Read(unknown) = (%v, %v)", msgs, err)
	}
}

func TestPostRequiresTopic(t *testing.T) {
	s, _ := newTestForum(t)
	if _, err := s.Post("", "body", "a"); err == nil {
		t.Error("Post(empty topic) = nil error")
	}
}

func TestTopicsSortedByRecency(t *testing.T) {
	s, _ := newTestForum(t)
	mustPost := func(topic string) {
		t.Helper()
		if _, err := s.Post(topic, "x", "a"); err != nil {
			t.Fatal(err)
		}
	}
	mustPost("issue:inshallah-00000001")
	mustPost("general")
	mustPost("issue:inshallah-00000001")

	topics, err := s.Topics("")
	if err != nil {
		t.Fatalf("Topics(): %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("Topics() = %+v", topics)
	}
	if topics[0].Topic != "issue:inshallah-00000001" || topics[0].Messages != 2 {
		t.Errorf("most recent topic = %+v", topics[0])
	}

	filtered, _ := s.Topics("issue:")
	if len(filtered) != 1 {
		t.Errorf("Topics(prefix) = %+v", filtered)
	}
}

func TestIssueTopicTagsEvent(t *testing.T) {
	s, events := newTestForum(t)
	id := types.IDPrefix + "00c0ffee"
	if _, err := s.Post(types.IssueTopic(id), "progress", "worker"); err != nil {
		t.Fatalf("Post(): %v", err)
	}
	if _, err := s.Post("general", "hello", "worker"); err != nil {
		t.Fatalf("Post(): %v", err)
	}

	recs, err := events.Read()
	if err != nil {
		t.Fatalf("Read(): %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d events", len(recs))
	}
	if recs[0].IssueID != id {
		t.Errorf("issue topic event id = %q, want %q", recs[0].IssueID, id)
	}
	if recs[1].IssueID != "" {
		t.Errorf("free-form topic event id = %q, want empty", recs[1].IssueID)
	}
}
