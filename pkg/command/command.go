// Package command runs platform tool invocations and captures their output.
// Every adb/emulator/simctl/sdkmanager interaction in device-doctor goes
// through the Executor interface so tests can script tool behavior.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/devicelab-dev/device-doctor/pkg/logger"
)

// Executor runs an external tool and returns its captured stdout.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExitError reports a tool that ran but exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit %d: %s", e.Cmd, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s: exit %d", e.Cmd, e.Code)
}

// TimeoutError reports a tool that did not finish within the deadline.
type TimeoutError struct {
	Cmd     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.Cmd, e.Timeout)
}

// Shell executes real processes with a per-call timeout.
type Shell struct {
	// Timeout bounds each invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
}

// NewShell returns a Shell executor with the given per-call timeout.
func NewShell(timeout time.Duration) *Shell {
	return &Shell{Timeout: timeout}
}

// Run executes the tool and returns trimmed-right stdout.
func (s *Shell) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmdline := name + " " + strings.Join(args, " ")

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("exec: %s", cmdline)
	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &TimeoutError{Cmd: cmdline, Timeout: s.Timeout}
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			return "", &ExitError{Cmd: cmdline, Code: exitErr.ExitCode(), Stderr: msg}
		}
		return "", fmt.Errorf("%s: %w", cmdline, err)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
