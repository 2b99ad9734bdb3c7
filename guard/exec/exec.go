// Package exec provides subprocess execution helpers with
// typed failure reporting.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Error describes a command that exited non-zero or could
// not be started at all.
type Error struct {
	// Name is the executable that was invoked.
	Name string

	// Args are the arguments it was invoked with.
	Args []string

	// ExitCode is the process exit code, or -1 when the
	// process never started.
	ExitCode int

	// Stderr is the captured diagnostic output.
	Stderr string
}

// Error renders the command line, the exit code and the
// trimmed stderr when present.
func (e *Error) Error() string {
	cmd := e.Name
	if len(e.Args) > 0 {
		cmd += " " + strings.Join(e.Args, " ")
	}

	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: could not start", cmd)
	}

	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("%s: exit code %d", cmd, e.ExitCode)
	}

	return fmt.Sprintf("%s: exit code %d: %s", cmd, e.ExitCode, detail)
}

// Run executes the named command in the given directory and
// returns trimmed stdout. Pass empty dir to use the current
// working directory. Failures are reported as *Error so
// callers can distinguish a non-zero exit from a command
// that never started.
func Run(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	slog.Info("output", "result", stdout.String())

	if err != nil {
		return "", &Error{
			Name:     name,
			Args:     arg,
			ExitCode: exitCode(err),
			Stderr:   stderr.String(),
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// RunCombined executes the named command and returns
// combined stdout+stderr output. The output is returned
// even when the command fails, so callers can surface the
// subprocess diagnostics verbatim.
func RunCombined(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()

	slog.Info("output", "result", string(by))

	if err != nil {
		return string(by), &Error{
			Name:     name,
			Args:     arg,
			ExitCode: exitCode(err),
			Stderr:   string(by),
		}
	}

	return string(by), nil
}

// exitCode extracts the process exit code, mapping a
// process that never started to -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
