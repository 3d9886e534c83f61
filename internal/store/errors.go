package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is wrapped by lookups that match nothing. The wrapping
// error carries the offending id or prefix.
var ErrNotFound = errors.New("issue not found")

// ErrInvalidArgument is wrapped by mutations rejecting bad input
// (priority out of range, bad dep type, empty outcome).
var ErrInvalidArgument = errors.New("invalid argument")

// maxPrefixCandidates caps how many ids an AmbiguousPrefixError reports.
const maxPrefixCandidates = 10

// AmbiguousPrefixError reports a prefix matching more than one issue.
type AmbiguousPrefixError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousPrefixError) Error() string {
	return fmt.Sprintf("ambiguous prefix %q matches: %s", e.Prefix, strings.Join(e.Candidates, ", "))
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
