// Package debug provides env-gated diagnostic logging and the
// verbose/quiet output switches shared by all commands.
package debug

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	enabled     = os.Getenv("INSHALLAH_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	mu          sync.Mutex
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// Logf writes a diagnostic line to stderr when debugging is enabled.
func Logf(format string, args ...interface{}) {
	if !enabled && !verboseMode {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
}

// PrintNormal prints output unless quiet mode is enabled
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}
