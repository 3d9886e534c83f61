// Package eventlog appends versioned audit records to events.jsonl.
// One line per event, written under an exclusive advisory lock so
// concurrent processes never interleave partial lines.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/inshallah-dev/inshallah/internal/lockfile"
	"github.com/inshallah-dev/inshallah/internal/runctx"
	"github.com/inshallah-dev/inshallah/internal/types"
)

// Log appends events to a single JSONL file.
type Log struct {
	path string
}

// New returns a Log writing to path. The file and its parent directory
// are created on first emit.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Option customizes a single emit.
type Option func(*types.Event)

// WithIssueID tags the record with an issue id.
func WithIssueID(id string) Option {
	return func(e *types.Event) { e.IssueID = id }
}

// WithRunID overrides the scoped run id for this record.
func WithRunID(id string) Option {
	return func(e *types.Event) { e.RunID = id }
}

// WithTimestamp overrides the record timestamp (milliseconds).
func WithTimestamp(tsMS int64) Option {
	return func(e *types.Event) { e.TSMS = tsMS }
}

// Emit serializes one record and appends it to the log, returning the
// record as written. The payload must be a map; the run id defaults to
// the current runctx scope.
func (l *Log) Emit(eventType, source string, payload map[string]any, opts ...Option) (*types.Event, error) {
	if payload == nil {
		return nil, fmt.Errorf("eventlog: payload must be a map, got nil")
	}
	ev := &types.Event{
		V:       types.EventSchemaVersion,
		TSMS:    time.Now().UnixMilli(),
		Type:    eventType,
		Source:  source,
		RunID:   runctx.Current(),
		Payload: payload,
	}
	for _, opt := range opts {
		opt(ev)
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("eventlog: marshal: %w", err)
	}
	line = append(asciiSafe(line), '\n')

	if err := l.appendLine(line); err != nil {
		return nil, err
	}
	return ev, nil
}

// appendLine writes one full line under an exclusive lock. The lock is
// released on every exit path; I/O errors surface to the caller.
func (l *Log) appendLine(line []byte) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("eventlog: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("eventlog: %w", err)
	}
	defer f.Close()

	if err := lockfile.Exclusive(f); err != nil {
		return fmt.Errorf("eventlog: lock %s: %w", l.path, err)
	}
	defer func() { _ = lockfile.Unlock(f) }()

	// One write call covers the whole line in the common case; the loop
	// finishes short writes while the lock is still held.
	for len(line) > 0 {
		n, err := f.Write(line)
		if err != nil {
			return fmt.Errorf("eventlog: write %s: %w", l.path, err)
		}
		line = line[n:]
	}
	return nil
}

// Read parses every record currently in the log. Used by tests and the
// log tail command; the hot path only appends.
func (l *Log) Read() ([]*types.Event, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	var out []*types.Event
	for _, raw := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var ev types.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("eventlog: corrupt record: %w", err)
		}
		out = append(out, &ev)
	}
	return out, nil
}

// asciiSafe rewrites any non-ASCII runes in marshaled JSON as \uXXXX
// escapes so the log survives tools that assume a 7-bit stream.
func asciiSafe(in []byte) []byte {
	ascii := true
	for _, b := range in {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return in
	}
	var sb strings.Builder
	sb.Grow(len(in))
	for _, r := range string(in) {
		if r < 0x80 {
			sb.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != 0xFFFD || r2 != 0xFFFD {
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
		} else {
			fmt.Fprintf(&sb, `\u%04x`, r)
		}
	}
	return []byte(sb.String())
}
