package exec_test

import (
	"context"
	"errors"
	"testing"

	"github.com/byte4ever/pushguard/guard/exec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_success(t *testing.T) {
	t.Parallel()

	out, err := exec.Run(context.Background(), "", "echo", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRun_with_dir(t *testing.T) {
	t.Parallel()

	out, err := exec.Run(context.Background(), "/tmp", "pwd")

	require.NoError(t, err)
	assert.Contains(t, out, "/tmp")
}

func TestRun_failure_exposes_exit_code(t *testing.T) {
	t.Parallel()

	_, err := exec.Run(context.Background(), "", "false")

	require.Error(t, err)

	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "false", execErr.Name)
	assert.Equal(t, 1, execErr.ExitCode)
}

func TestRun_failure_captures_stderr(t *testing.T) {
	t.Parallel()

	_, err := exec.Run(
		context.Background(),
		"", "sh", "-c", "echo oops >&2; exit 3",
	)

	require.Error(t, err)

	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "oops")
	assert.Contains(t, execErr.Error(), "exit code 3")
	assert.Contains(t, execErr.Error(), "oops")
}

func TestRun_spawn_failure(t *testing.T) {
	t.Parallel()

	_, err := exec.Run(
		context.Background(),
		"", "definitely-not-a-real-binary",
	)

	require.Error(t, err)

	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, -1, execErr.ExitCode)
	assert.Contains(t, execErr.Error(), "could not start")
}

func TestRun_trims_trailing_newline(t *testing.T) {
	t.Parallel()

	out, err := exec.Run(context.Background(), "", "echo", "line")

	require.NoError(t, err)
	assert.Equal(t, "line", out)
}

func TestRunCombined_merges_streams(t *testing.T) {
	t.Parallel()

	out, err := exec.RunCombined(
		context.Background(),
		"", "sh", "-c", "echo out; echo err >&2",
	)

	require.NoError(t, err)
	assert.Contains(t, out, "out")
	assert.Contains(t, out, "err")
}

func TestRunCombined_returns_output_on_failure(t *testing.T) {
	t.Parallel()

	out, err := exec.RunCombined(
		context.Background(),
		"", "sh", "-c", "echo rejected >&2; exit 1",
	)

	require.Error(t, err)
	assert.Contains(t, out, "rejected")

	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.ExitCode)
}

func TestError_is_matchable(t *testing.T) {
	t.Parallel()

	_, err := exec.Run(context.Background(), "", "false")

	var execErr *exec.Error
	assert.True(t, errors.As(err, &execErr))
}
