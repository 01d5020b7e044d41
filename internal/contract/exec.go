package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// commandWaitDelay bounds how long a killed command's children may hold its pipes open.
const commandWaitDelay = 5 * time.Second

var (
	// ErrCommandTimeout is returned when an external command exceeds its time budget.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrInterrupted is returned when an external command was stopped by an
	// interrupt or termination signal that did not come through the context.
	ErrInterrupted = errors.New("command interrupted")
)

// RunCommand executes name with args in dir and returns its stdout.
// A positive timeout bounds the invocation. Stdin is detached.
// Non-zero exits carry the trimmed stderr in the returned error.
func RunCommand(ctx context.Context, timeout time.Duration, dir string, env []string, name string, args ...string) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = commandWaitDelay
	detachProcessGroup(cmd)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	// Parent cancellation is reported as such, never as a timeout.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s %s: %w", name, firstArg(args), ctxErr)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s %s: %w after %s", name, firstArg(args), ErrCommandTimeout, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if killedByInterrupt(exitErr) {
			return nil, fmt.Errorf("%s %s: %w: %s", name, firstArg(args), ErrInterrupted, exitErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = exitErr.String()
		}
		return out, fmt.Errorf("%s %s failed: %s", name, firstArg(args), msg)
	}
	return nil, fmt.Errorf("%s %s failed: %w", name, firstArg(args), err)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
