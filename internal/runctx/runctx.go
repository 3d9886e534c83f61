// Package runctx holds the process-wide run correlation id. Mutation
// sites read it at emit time instead of threading a run id through every
// call. Nested runs push and pop.
package runctx

import "sync"

var (
	mu    sync.Mutex
	stack []string
)

// Push makes id the current run id.
func Push(id string) {
	mu.Lock()
	defer mu.Unlock()
	stack = append(stack, id)
}

// Pop restores the previous run id. Popping an empty stack is a no-op.
func Pop() {
	mu.Lock()
	defer mu.Unlock()
	if len(stack) > 0 {
		stack = stack[:len(stack)-1]
	}
}

// Current returns the innermost run id, or "" outside any run scope.
func Current() string {
	mu.Lock()
	defer mu.Unlock()
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// Scope runs fn with id as the current run id.
func Scope(id string, fn func()) {
	Push(id)
	defer Pop()
	fn()
}
