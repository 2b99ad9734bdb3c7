package ghcli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/pushguard/guard/exec"
	"github.com/byte4ever/pushguard/guard/hosting"
	"github.com/byte4ever/pushguard/guard/hosting/ghcli"
)

func TestProvider_RepositoryVisibility(t *testing.T) {
	t.Parallel()

	// The GitHub CLI reports GraphQL enum casing; the
	// provider must normalize it.
	bin := fakeCLI(t, "#!/bin/sh\necho PUBLIC\n")

	pv := ghcli.NewProvider(ghcli.Config{Bin: bin})

	v, err := pv.RepositoryVisibility(context.Background())

	require.NoError(t, err)
	assert.Equal(t, hosting.Public, v)
}

func TestProvider_RepositoryVisibility_private(t *testing.T) {
	t.Parallel()

	bin := fakeCLI(t, "#!/bin/sh\necho private\n")

	pv := ghcli.NewProvider(ghcli.Config{Bin: bin})

	v, err := pv.RepositoryVisibility(context.Background())

	require.NoError(t, err)
	assert.Equal(t, hosting.Private, v)
}

func TestProvider_RepositoryVisibility_cli_failure(
	t *testing.T,
) {
	t.Parallel()

	bin := fakeCLI(
		t,
		"#!/bin/sh\necho 'not logged in' >&2\nexit 1\n",
	)

	pv := ghcli.NewProvider(ghcli.Config{Bin: bin})

	v, err := pv.RepositoryVisibility(context.Background())

	require.Error(t, err)
	assert.Equal(t, hosting.Unknown, v)

	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "not logged in")
}

func TestProvider_RepositoryVisibility_cli_missing(
	t *testing.T,
) {
	t.Parallel()

	pv := ghcli.NewProvider(ghcli.Config{
		Bin: filepath.Join(t.TempDir(), "no-such-gh"),
	})

	v, err := pv.RepositoryVisibility(context.Background())

	require.Error(t, err)
	assert.Equal(t, hosting.Unknown, v)
}

// fakeCLI writes an executable script standing in for the
// GitHub CLI.
func fakeCLI(tb testing.TB, script string) string {
	tb.Helper()

	bin := filepath.Join(tb.TempDir(), "fake-gh")

	//nolint:gosec // test binary must be executable
	err := os.WriteFile(bin, []byte(script), 0o755)
	require.NoError(tb, err)

	return bin
}
