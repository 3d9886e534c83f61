package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 4 * 1024 * 1024

// invocation is a fully built CLI command ready to stream.
type invocation struct {
	exe        string
	args       []string
	promptMode string // "stdin" or "arg"
}

// stream launches the invocation and pumps stdout and stderr lines to
// req.OnLine and the tee file until the child exits. The two pipes are
// read concurrently but emission is serialized, so the formatter only
// ever sees one line at a time.
func stream(ctx context.Context, inv invocation, req Request) (int, error) {
	args := inv.args
	if inv.promptMode == "arg" {
		args = append(append([]string{}, args...), req.Prompt)
	}
	cmd := exec.CommandContext(ctx, inv.exe, args...)
	cmd.Dir = req.Dir
	setProcessGroup(cmd)
	if inv.promptMode == "stdin" {
		cmd.Stdin = strings.NewReader(req.Prompt)
	} else {
		// keep interactive confirmation reads from hanging the child
		cmd.Stdin = strings.NewReader("")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, err
	}

	var tee *os.File
	if req.TeePath != "" {
		tee, err = os.OpenFile(req.TeePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return -1, fmt.Errorf("open tee file: %w", err)
		}
		defer tee.Close()
	}

	var mu sync.Mutex
	emit := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if tee != nil {
			fmt.Fprintln(tee, line)
		}
		if req.OnLine != nil {
			req.OnLine(line)
		}
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("spawn %s: %w", inv.exe, err)
	}

	var g errgroup.Group
	g.Go(func() error { return pumpLines(stdout, emit) })
	g.Go(func() error { return pumpLines(stderr, emit) })
	pumpErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return -1, err
		}
	}
	if pumpErr != nil {
		return -1, pumpErr
	}
	return cmd.ProcessState.ExitCode(), nil
}

func pumpLines(r io.Reader, emit func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), maxLineBytes)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	err := scanner.Err()
	if err == io.ErrClosedPipe {
		return nil
	}
	return err
}
