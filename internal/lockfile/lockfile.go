// Package lockfile provides advisory file locking for the shared JSONL
// files under .inshallah/. All cross-process appenders and rewriters take
// an exclusive lock for the duration of the write.
package lockfile

import (
	"errors"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrLockBusy is returned by the non-blocking acquire when another
// process holds the lock.
var ErrLockBusy = errors.New("file lock held by another process")

// lockWait bounds how long Exclusive waits for a contended lock before
// surfacing ErrLockBusy to the caller.
const lockWait = 10 * time.Second

// Exclusive acquires an exclusive advisory lock on f, waiting for
// contended locks with exponential backoff up to lockWait. On platforms
// without advisory locks this is a no-op; single-writer discipline is
// then the caller's responsibility.
func Exclusive(f *os.File) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = lockWait
	return backoff.Retry(func() error {
		err := flockExclusiveNonBlock(f)
		if errors.Is(err, ErrLockBusy) {
			return err // retryable
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, policy)
}

// TryExclusive acquires the lock without waiting.
// Returns ErrLockBusy when contended.
func TryExclusive(f *os.File) error {
	return flockExclusiveNonBlock(f)
}

// Unlock releases a lock held on f. Closing the file also releases it;
// explicit unlock keeps error paths symmetrical.
func Unlock(f *os.File) error {
	return flockUnlock(f)
}
