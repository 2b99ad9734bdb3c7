// Package policy defines the push safety rule set and the
// path matching it is evaluated with.
package policy

import (
	"fmt"
	"strings"

	"github.com/byte4ever/pushguard/guard/hosting"
)

// Behavior selects what happens when the rule blocks a
// push.
type Behavior string

const (
	// Fail terminates the blocked push with an error.
	Fail Behavior = "error"

	// PromptOverride asks for confirmation on an
	// interactive surface. Only protected-path blocks
	// are promptable; authorship blocks never are.
	PromptOverride Behavior = "prompt"
)

// DefaultProtectedPaths guards workflow definitions out of
// the box.
var DefaultProtectedPaths = []string{".github/"}

// Policy is the immutable rule set of one invocation.
type Policy struct {
	// ProtectedPaths are patterns whose modification
	// blocks a push. A pattern ending in "/" is a
	// directory prefix; anything else is a glob anchored
	// over the whole path.
	ProtectedPaths []string

	// OnBlocked selects the blocked-push behavior.
	OnBlocked Behavior

	// AllowedVisibilities, when non-empty, restricts
	// pushes to repositories with one of these
	// visibilities.
	AllowedVisibilities []hosting.Visibility
}

// Default returns the policy used when no configuration
// file exists.
func Default() Policy {
	return Policy{
		ProtectedPaths: append(
			[]string(nil), DefaultProtectedPaths...,
		),
		OnBlocked: Fail,
	}
}

// Validate rejects rule sets the engine cannot evaluate.
func (p Policy) Validate() error {
	const errCtx = "validating policy"

	switch p.OnBlocked {
	case Fail, PromptOverride:
	default:
		return fmt.Errorf(
			"%s: unknown onBlockedBehavior %q",
			errCtx, string(p.OnBlocked),
		)
	}

	for _, pat := range p.ProtectedPaths {
		if strings.TrimSpace(pat) == "" {
			return fmt.Errorf(
				"%s: empty protected path pattern",
				errCtx,
			)
		}
	}

	for _, v := range p.AllowedVisibilities {
		switch v {
		case hosting.Public, hosting.Private,
			hosting.Internal:
		default:
			return fmt.Errorf(
				"%s: unknown visibility %q",
				errCtx, string(v),
			)
		}
	}

	return nil
}

// RestrictsVisibility reports whether the visibility gate
// is configured at all.
func (p Policy) RestrictsVisibility() bool {
	return len(p.AllowedVisibilities) > 0
}

// VisibilityAllowed reports whether v passes the gate.
// Unknown never does.
func (p Policy) VisibilityAllowed(v hosting.Visibility) bool {
	for _, allowed := range p.AllowedVisibilities {
		if v == allowed {
			return true
		}
	}

	return false
}
