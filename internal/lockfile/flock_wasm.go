//go:build js && wasm

package lockfile

import "os"

// WASM has no advisory locks and is single-process in practice, so
// locking degrades to best-effort single-writer discipline: every
// append happens in one write call.

func flockExclusiveNonBlock(f *os.File) error {
	return nil
}

func flockUnlock(f *os.File) error {
	return nil
}
