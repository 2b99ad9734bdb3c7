package git

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/byte4ever/pushguard/guard/exec"
)

// DefaultRemote is the remote used when the caller does
// not name one.
const DefaultRemote = "origin"

// defaultBranchCandidates are the remote default-branch
// names probed, in order, when the current branch has no
// upstream to diff against.
var defaultBranchCandidates = [...]string{"main", "master"}

// Client executes queries and the push mutation against a
// local repository. The zero value operates on the current
// working directory.
type Client struct {
	// Dir is the repository directory. Empty means the
	// current working directory.
	Dir string
}

// IsRepository reports whether the directory is inside a
// git repository. Process failures count as absence.
func (c *Client) IsRepository(ctx context.Context) bool {
	_, err := exec.Run(ctx, c.Dir, "git", "rev-parse", "--git-dir")

	return err == nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (c *Client) HasCommits(ctx context.Context) bool {
	_, err := exec.Run(
		ctx, c.Dir,
		"git", "rev-parse", "--verify", "HEAD",
	)

	return err == nil
}

// CurrentBranch returns the branch HEAD points at. A
// detached HEAD has no symbolic ref and is an error.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	const errCtx = "resolving current branch"

	out, err := exec.Run(
		ctx, c.Dir,
		"git", "symbolic-ref", "--short", "HEAD",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// BranchHasUpstream reports whether remote/branch exists
// as a remote-tracking ref. Absence is the false answer,
// never an error.
func (c *Client) BranchHasUpstream(
	ctx context.Context,
	remote string,
	branch string,
) bool {
	_, err := exec.Run(
		ctx, c.Dir,
		"git", "rev-parse", "--verify", "--quiet",
		"refs/remotes/"+remote+"/"+branch,
	)

	return err == nil
}

// LastCommitAuthorEmail returns the author email of the
// most recent commit on the current branch.
func (c *Client) LastCommitAuthorEmail(ctx context.Context) (string, error) {
	const errCtx = "reading last commit author"

	out, err := exec.Run(
		ctx, c.Dir,
		"git", "log", "-1", "--pretty=format:%ae",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return strings.TrimSpace(out), nil
}

// LocalIdentityEmail resolves the identity of whoever is
// pushing: GIT_AUTHOR_EMAIL wins over the configured
// user.email, matching what git itself would stamp on the
// next commit.
func (c *Client) LocalIdentityEmail(ctx context.Context) (string, error) {
	const errCtx = "reading local identity"

	if email := strings.TrimSpace(os.Getenv("GIT_AUTHOR_EMAIL")); email != "" {
		return email, nil
	}

	out, err := exec.Run(
		ctx, c.Dir,
		"git", "config", "user.email",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return strings.TrimSpace(out), nil
}

// ChangedFiles returns the paths, relative to the
// repository root, that differ between the push baseline
// and HEAD. With an upstream the baseline is
// remote/branch; without one the first existing remote
// default branch is used; a remote carrying neither has no
// baseline and yields no changes. The diff uses the
// merge-base form so files already on the baseline are not
// reported.
func (c *Client) ChangedFiles(
	ctx context.Context,
	remote string,
	branch string,
	hasUpstream bool,
) ([]string, error) {
	const errCtx = "listing changed files"

	base := remote + "/" + branch

	if !hasUpstream {
		base = ""

		for _, name := range defaultBranchCandidates {
			if c.BranchHasUpstream(ctx, remote, name) {
				base = remote + "/" + name

				break
			}
		}

		if base == "" {
			return nil, nil
		}
	}

	out, err := exec.Run(
		ctx, c.Dir,
		"git", "diff", "--name-only", base+"...HEAD",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return splitLines(out), nil
}

// splitLines splits command output into its non-empty
// lines.
func splitLines(out string) []string {
	var lines []string

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
