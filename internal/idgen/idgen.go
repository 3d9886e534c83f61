// Package idgen generates issue ids of the form "inshallah-" + 8 hex chars.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/inshallah-dev/inshallah/internal/types"
)

// SuffixLen is the number of hex characters after the prefix.
const SuffixLen = 8

// maxAttempts bounds collision retries before giving up. With 32 random
// bits per draw a store of a few hundred issues never gets close.
const maxAttempts = 32

var idPattern = regexp.MustCompile(`^` + types.IDPrefix + `[0-9a-f]{8}$`)

// IsValid reports whether s is a well-formed full issue id.
func IsValid(s string) bool {
	return idPattern.MatchString(s)
}

// New returns a fresh issue id that does not collide with taken.
// taken may be nil for callers that handle uniqueness elsewhere.
func New(taken map[string]bool) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var buf [SuffixLen / 2]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("idgen: %w", err)
		}
		id := types.IDPrefix + hex.EncodeToString(buf[:])
		if taken == nil || !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("idgen: exhausted %d attempts without a unique id", maxAttempts)
}
