package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/byte4ever/pushguard/guard/exec"
)

// PushRequest describes the push the caller asked for.
type PushRequest struct {
	// Remote receives the push when the argument list is
	// synthesized.
	Remote string

	// Branch is the branch being pushed.
	Branch string

	// NewBranch marks a branch with no upstream yet; a
	// synthesized push then sets upstream tracking.
	NewBranch bool

	// Args is the caller-supplied tail. Any non-flag
	// token in it switches to passthrough mode.
	Args []string
}

// PushOutcome is the result of the push mutation. A failed
// push is an outcome, not an error: the subprocess spoke,
// and its words are the message.
type PushOutcome struct {
	Succeeded bool
	Message   string
}

// Push runs git push. Caller arguments containing an
// explicit remote or refspec are passed through verbatim;
// otherwise the argument list is synthesized as
// "push [-u] <remote> <branch> <flags...>", with upstream
// tracking added exactly once when the branch is new or the
// caller asked for it.
func (c *Client) Push(ctx context.Context, req PushRequest) PushOutcome {
	args := BuildPushArgs(req)

	out, err := exec.RunCombined(ctx, c.Dir, "git", args...)

	if err == nil {
		msg := strings.TrimSpace(out)
		if msg == "" {
			msg = "push completed"
		}

		return PushOutcome{Succeeded: true, Message: msg}
	}

	msg := strings.TrimSpace(out)
	if msg == "" {
		var execErr *exec.Error
		if errors.As(err, &execErr) && execErr.ExitCode >= 0 {
			msg = fmt.Sprintf(
				"git push exited with code %d",
				execErr.ExitCode,
			)
		} else {
			msg = err.Error()
		}
	}

	return PushOutcome{Succeeded: false, Message: msg}
}

// BuildPushArgs constructs the argument vector Push would
// execute, so dry runs can report it verbatim.
func BuildPushArgs(req PushRequest) []string {
	if hasNonFlagToken(req.Args) {
		return append([]string{"push"}, req.Args...)
	}

	flags, hadUpstream := stripUpstreamFlags(req.Args)

	args := []string{"push"}
	if req.NewBranch || hadUpstream {
		args = append(args, "-u")
	}

	args = append(args, req.Remote, req.Branch)

	return append(args, flags...)
}

// hasNonFlagToken reports whether the caller named an
// explicit remote or refspec.
func hasNonFlagToken(args []string) bool {
	for _, a := range args {
		if a != "" && !strings.HasPrefix(a, "-") {
			return true
		}
	}

	return false
}

// stripUpstreamFlags removes upstream-tracking flags from
// the tail so the synthesized form re-adds them exactly
// once.
func stripUpstreamFlags(args []string) ([]string, bool) {
	var (
		out []string
		had bool
	)

	for _, a := range args {
		if a == "-u" || a == "--set-upstream" {
			had = true

			continue
		}

		out = append(out, a)
	}

	return out, had
}
