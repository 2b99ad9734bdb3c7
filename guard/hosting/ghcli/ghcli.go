// Package ghcli resolves repository visibility through the
// GitHub CLI, reusing the authentication the operator
// already has.
package ghcli

import (
	"context"
	"fmt"

	"github.com/byte4ever/pushguard/guard/exec"
	"github.com/byte4ever/pushguard/guard/hosting"
)

// Config holds the settings for the GitHub CLI provider.
type Config struct {
	// Dir is the repository directory the CLI runs in.
	// Empty means the current working directory.
	Dir string

	// Bin is the CLI executable. Empty means "gh" on
	// PATH.
	Bin string
}

// Provider queries visibility via "gh repo view".
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	dir string
	bin string
}

// NewProvider returns a Provider for the repository the
// CLI resolves from dir.
func NewProvider(cfg Config) *Provider {
	bin := cfg.Bin
	if bin == "" {
		bin = "gh"
	}

	return &Provider{dir: cfg.Dir, bin: bin}
}

// RepositoryVisibility asks the CLI for the visibility of
// the repository. A failing invocation (CLI missing, not
// authenticated, no hosted counterpart) is an error:
// unverifiable visibility must never pass a gate.
func (p *Provider) RepositoryVisibility(
	ctx context.Context,
) (hosting.Visibility, error) {
	const errCtx = "querying repository visibility"

	out, err := exec.Run(
		ctx, p.dir,
		p.bin, "repo", "view",
		"--json", "visibility",
		"--jq", ".visibility",
	)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return hosting.Normalize(out), nil
}
