// Package forum is the append-only, topic-keyed message bus agents and
// the runner use as a coordination side-channel. Messages are never
// mutated once written.
package forum

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
	"github.com/inshallah-dev/inshallah/internal/lockfile"
	"github.com/inshallah-dev/inshallah/internal/types"
)

// Store appends and reads forum.jsonl.
type Store struct {
	path   string
	events *eventlog.Log
	now    func() int64
}

// New returns a Store over path, emitting audit records to events.
func New(path string, events *eventlog.Log) *Store {
	return &Store{
		path:   path,
		events: events,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// Post appends one message and returns it.
func (s *Store) Post(topic, body, author string) (*types.ForumMessage, error) {
	if topic == "" {
		return nil, fmt.Errorf("forum: topic is required")
	}
	msg := &types.ForumMessage{
		Topic:     topic,
		Body:      body,
		Author:    author,
		CreatedAt: s.now(),
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("forum: marshal: %w", err)
	}
	if err := s.appendLine(append(line, '\n')); err != nil {
		return nil, err
	}
	if s.events != nil {
		opts := []eventlog.Option{}
		if id := types.TopicIssueID(topic); id != "" {
			opts = append(opts, eventlog.WithIssueID(id))
		}
		_, _ = s.events.Emit("forum.posted", "forum", map[string]any{
			"topic":  topic,
			"author": author,
		}, opts...)
	}
	return msg, nil
}

// Read returns the last limit messages on a topic in write order.
// limit <= 0 means all of them.
func (s *Store) Read(topic string, limit int) ([]*types.ForumMessage, error) {
	msgs, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []*types.ForumMessage
	for _, m := range msgs {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Topics summarizes every topic matching prefix, most recent first.
func (s *Store) Topics(prefix string) ([]*types.TopicInfo, error) {
	msgs, err := s.load()
	if err != nil {
		return nil, err
	}
	byTopic := make(map[string]*types.TopicInfo)
	for _, m := range msgs {
		if prefix != "" && !strings.HasPrefix(m.Topic, prefix) {
			continue
		}
		info := byTopic[m.Topic]
		if info == nil {
			info = &types.TopicInfo{Topic: m.Topic}
			byTopic[m.Topic] = info
		}
		info.Messages++
		if m.CreatedAt > info.LastAt {
			info.LastAt = m.CreatedAt
		}
	}
	out := make([]*types.TopicInfo, 0, len(byTopic))
	for _, info := range byTopic {
		out = append(out, info)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastAt != out[j].LastAt {
			return out[i].LastAt > out[j].LastAt
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (s *Store) appendLine(line []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("forum: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("forum: %w", err)
	}
	defer f.Close()
	if err := lockfile.Exclusive(f); err != nil {
		return fmt.Errorf("forum: lock %s: %w", s.path, err)
	}
	defer func() { _ = lockfile.Unlock(f) }()
	for len(line) > 0 {
		n, err := f.Write(line)
		if err != nil {
			return fmt.Errorf("forum: write %s: %w", s.path, err)
		}
		line = line[n:]
	}
	return nil
}

func (s *Store) load() ([]*types.ForumMessage, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("forum: %w", err)
	}
	defer f.Close()

	var out []*types.ForumMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg types.ForumMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("forum: corrupt record in %s: %w", s.path, err)
		}
		out = append(out, &msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("forum: %w", err)
	}
	return out, nil
}
