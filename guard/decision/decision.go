// Package decision gathers repository facts and turns them
// into a push verdict.
//
// Gathering and judging are split on purpose: Gather does
// the subprocess I/O, Evaluate is a pure function of its
// inputs. Every verdict carries the full evidence it was
// derived from, so replaying the rule over a recorded
// verdict always reproduces the same answer.
package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/byte4ever/pushguard/guard/hosting"
	"github.com/byte4ever/pushguard/guard/policy"
)

// VCS is the read-only view of the repository the engine
// gathers facts from.
type VCS interface {
	CurrentBranch(ctx context.Context) (string, error)
	BranchHasUpstream(
		ctx context.Context,
		remote string,
		branch string,
	) bool
	ChangedFiles(
		ctx context.Context,
		remote string,
		branch string,
		hasUpstream bool,
	) ([]string, error)
	LastCommitAuthorEmail(ctx context.Context) (string, error)
	LocalIdentityEmail(ctx context.Context) (string, error)
}

// Snapshot holds the repository facts of one invocation.
// It is computed fresh every time: repository state moves
// between calls, so snapshots are never cached or shared.
type Snapshot struct {
	// CurrentBranch is the branch HEAD points at.
	CurrentBranch string

	// NewBranch is true when the branch has no upstream
	// on the remote yet.
	NewBranch bool

	// ChangedFiles are the paths that differ between the
	// push baseline and HEAD.
	ChangedFiles []string

	// LastCommitAuthorEmail is the author of the most
	// recent commit.
	LastCommitAuthorEmail string

	// LocalIdentityEmail is the identity of whoever is
	// pushing.
	LocalIdentityEmail string
}

// VisibilityFact records the outcome of the hosting
// visibility check. The zero value means the gate was not
// configured.
type VisibilityFact struct {
	// Visibility is the normalized provider answer.
	Visibility hosting.Visibility

	// Checked is true when the gate was configured and
	// the provider was consulted.
	Checked bool

	// Allowed is true when the visibility passed the
	// gate.
	Allowed bool
}

// Details is the evidence a verdict was derived from.
type Details struct {
	IsNewBranch         bool               `json:"isNewBranch"`
	IsOwnLastCommit     bool               `json:"isOwnLastCommit"`
	HasForbiddenChanges bool               `json:"hasForbiddenChanges"`
	ForbiddenFiles      []string           `json:"forbiddenFiles"`
	CurrentBranch       string             `json:"currentBranch"`
	AuthorEmail         string             `json:"authorEmail"`
	LocalEmail          string             `json:"localEmail"`
	RepoVisibility      hosting.Visibility `json:"repoVisibility,omitempty"`
	VisibilityAllowed   *bool              `json:"visibilityAllowed,omitempty"`
}

// Verdict is the structured allow/block decision together
// with its evidence.
type Verdict struct {
	Allowed bool    `json:"allowed"`
	Reason  string  `json:"reason"`
	Details Details `json:"details"`
}

// Gather composes the repository facts for one check.
// Later queries depend on earlier answers (the diff
// baseline depends on upstream existence), so calls are
// issued sequentially.
func Gather(
	ctx context.Context,
	vcs VCS,
	remote string,
) (Snapshot, error) {
	const errCtx = "gathering repository facts"

	branch, err := vcs.CurrentBranch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	hasUpstream := vcs.BranchHasUpstream(
		ctx, remote, branch,
	)

	files, err := vcs.ChangedFiles(
		ctx, remote, branch, hasUpstream,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	author, err := vcs.LastCommitAuthorEmail(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	local, err := vcs.LocalIdentityEmail(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return Snapshot{
		CurrentBranch:         branch,
		NewBranch:             !hasUpstream,
		ChangedFiles:          files,
		LastCommitAuthorEmail: author,
		LocalIdentityEmail:    local,
	}, nil
}

// Evaluate applies the verdict rule over the gathered
// facts. First match wins: visibility gate, protected
// paths, new branch, own last commit, foreign author.
// Pure: no I/O, no logging, no hidden inputs.
func Evaluate(
	snap Snapshot,
	pol policy.Policy,
	vis VisibilityFact,
) Verdict {
	forbidden := policy.ProtectedFiles(
		snap.ChangedFiles, pol.ProtectedPaths,
	)

	details := Details{
		IsNewBranch: snap.NewBranch,
		IsOwnLastCommit: strings.EqualFold(
			snap.LastCommitAuthorEmail,
			snap.LocalIdentityEmail,
		),
		HasForbiddenChanges: len(forbidden) > 0,
		ForbiddenFiles:      forbidden,
		CurrentBranch:       snap.CurrentBranch,
		AuthorEmail:         snap.LastCommitAuthorEmail,
		LocalEmail:          snap.LocalIdentityEmail,
	}

	if vis.Checked {
		details.RepoVisibility = vis.Visibility
		allowed := vis.Allowed
		details.VisibilityAllowed = &allowed
	}

	switch {
	case vis.Checked && !vis.Allowed:
		return Verdict{
			Reason:  visibilityReason(vis),
			Details: details,
		}
	case details.HasForbiddenChanges:
		return Verdict{
			Reason: forbiddenReason(
				forbidden, pol.ProtectedPaths,
			),
			Details: details,
		}
	case snap.NewBranch:
		return Verdict{
			Allowed: true,
			Reason:  "New branch: no prior history to protect",
			Details: details,
		}
	case details.IsOwnLastCommit:
		return Verdict{
			Allowed: true,
			Reason: fmt.Sprintf(
				"Last commit on %s is yours (%s)",
				snap.CurrentBranch,
				snap.LastCommitAuthorEmail,
			),
			Details: details,
		}
	default:
		return Verdict{
			Reason: fmt.Sprintf(
				"Last commit on %s was authored by %s, not %s",
				snap.CurrentBranch,
				snap.LastCommitAuthorEmail,
				snap.LocalIdentityEmail,
			),
			Details: details,
		}
	}
}

// visibilityReason names the gate failure.
func visibilityReason(vis VisibilityFact) string {
	if vis.Visibility == hosting.Unknown {
		return "Repository visibility could not be determined"
	}

	return fmt.Sprintf(
		"Repository visibility %q is not allowed by policy",
		string(vis.Visibility),
	)
}

// forbiddenReason names the first forbidden file and the
// pattern that caught it.
func forbiddenReason(forbidden, patterns []string) string {
	first := forbidden[0]
	pat, _ := policy.MatchingPattern(first, patterns)

	extra := ""
	if n := len(forbidden); n > 1 {
		extra = fmt.Sprintf(" (and %d more)", n-1)
	}

	return fmt.Sprintf(
		"Changes touch protected path %s (pattern %q)%s",
		first, pat, extra,
	)
}
