// Package hooks runs operator-configured shell commands in response to
// change events received from the event bus.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second

	// maxOutput caps how much of a command's output is kept for logging.
	maxOutput = 4 << 10
)

// Result describes one finished hook command.
type Result struct {
	Output   string // combined stdout and stderr, trimmed and truncated
	ExitCode int    // -1 when the command never started or was killed
	Duration time.Duration
	Err      error
}

// Execute runs command with "sh -c". The event payload is fed on stdin and
// env is layered over the process environment. timeout is clamped to
// MaxTimeout; zero selects DefaultTimeout.
func Execute(ctx context.Context, command string, timeout time.Duration, stdin io.Reader, env map[string]string) Result {
	timeout = clampTimeout(timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out cappedBuffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // commands come from the operator's hooks file
	cmd.Stdin = stdin
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.Env = append(os.Environ(), envList(env)...)
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Output:   strings.TrimSpace(out.String()),
		Duration: time.Since(start),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Err = fmt.Errorf("timed out after %s: %w", timeout, err)
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	return res
}

func clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return min(d, MaxTimeout)
}

// envList renders env as KEY=value pairs in key order.
func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]string, len(keys))
	for i, k := range keys {
		list[i] = k + "=" + env[k]
	}
	return list
}

// cappedBuffer keeps the first maxOutput bytes written to it and silently
// discards the rest.
type cappedBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := maxOutput - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
