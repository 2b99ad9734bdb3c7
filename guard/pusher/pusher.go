package pusher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/byte4ever/pushguard/guard/audit"
	"github.com/byte4ever/pushguard/guard/config"
	"github.com/byte4ever/pushguard/guard/decision"
	"github.com/byte4ever/pushguard/guard/git"
	"github.com/byte4ever/pushguard/guard/hosting"
	"github.com/byte4ever/pushguard/guard/policy"
	"github.com/byte4ever/pushguard/guard/render"
)

// Status discriminates the terminal outcome of a run.
type Status string

const (
	// StatusSucceeded means the push was allowed and
	// completed.
	StatusSucceeded Status = "succeeded"

	// StatusDryRun means the run stopped deliberately
	// before the push.
	StatusDryRun Status = "dry-run"

	// StatusBlocked means the safety rule stopped the
	// push.
	StatusBlocked Status = "blocked"

	// StatusFailed means a precondition or the push
	// itself failed.
	StatusFailed Status = "failed"
)

// Result is the discriminated outcome of one invocation.
type Result struct {
	// Status is the terminal outcome.
	Status Status

	// Message is the operator-facing summary.
	Message string

	// Verdict carries the decision evidence, when the
	// run got far enough to produce one.
	Verdict *decision.Verdict

	// Forced marks an invocation that skipped the
	// path/author rule.
	Forced bool

	// DryRun marks an invocation that never pushes.
	DryRun bool

	// Push is the outcome of the push mutation, when one
	// was attempted.
	Push *git.PushOutcome
}

// ExitCode maps the result onto the single exit signal
// shared by the surfaces: 0 for an allowed outcome, 1 for
// any block or failure.
func (r Result) ExitCode() int {
	switch r.Status {
	case StatusSucceeded, StatusDryRun:
		return 0
	default:
		return 1
	}
}

// Confirm asks the operator a yes/no question. Returning
// false declines.
type Confirm func(prompt string) bool

// VCS is everything the orchestrator needs from the
// version control adapter.
type VCS interface {
	decision.VCS

	IsRepository(ctx context.Context) bool
	HasCommits(ctx context.Context) bool
	Push(ctx context.Context, req git.PushRequest) git.PushOutcome
}

// Config holds all settings for one guarded push run. Use
// a Config struct instead of many arguments.
type Config struct {
	// Remote is the remote name used for upstream checks
	// and synthesized pushes.
	Remote string

	// Args is the caller-supplied tail forwarded to git
	// push.
	Args []string

	// Force skips the path/author rule. The visibility
	// gate still applies.
	Force bool

	// DryRun reports the would-be action and never
	// pushes.
	DryRun bool

	// NonInteractive forbids prompting; promptable
	// blocks return override guidance instead.
	NonInteractive bool

	// ConfigPath names the policy file. Empty means the
	// default search in Dir.
	ConfigPath string

	// Dir is the repository directory (empty for the
	// current working directory).
	Dir string

	// Policy bypasses config loading when non-nil, for
	// surfaces that pre-load settings.
	Policy *policy.Policy

	// BlockedMessage overrides the blocked-message
	// template when Policy is injected.
	BlockedMessage string

	// VCS executes repository queries and the push. Nil
	// uses a git client rooted at Dir.
	VCS VCS

	// Hosting resolves repository visibility. Consulted
	// only when the policy restricts visibilities.
	Hosting hosting.Provider

	// Confirm solicits the override confirmation on
	// interactive surfaces. Nil behaves like
	// NonInteractive.
	Confirm Confirm

	// Audit receives one event per terminal result. Nil
	// discards.
	Audit *audit.Trail
}

// Run executes the guarded push workflow and returns the
// terminal result.
func Run(ctx context.Context, cfg Config) Result {
	res := run(ctx, cfg)
	res.Forced = cfg.Force
	res.DryRun = cfg.DryRun

	record(cfg, res)

	return res
}

func run(ctx context.Context, cfg Config) Result {
	vcs := cfg.vcs()

	// Step 1: Fail fast outside usable repositories.
	if !vcs.IsRepository(ctx) {
		return Result{
			Status:  StatusFailed,
			Message: "not a git repository",
		}
	}

	if !vcs.HasCommits(ctx) {
		return Result{
			Status:  StatusFailed,
			Message: "repository has no commits",
		}
	}

	// Step 2: Load the policy.
	pol, blockedTpl, err := cfg.policy()
	if err != nil {
		return Result{
			Status:  StatusFailed,
			Message: err.Error(),
		}
	}

	// Step 3: Gather the facts the rule and the push
	// synthesis depend on. Always fresh: repository
	// state moves between invocations.
	snap, err := decision.Gather(ctx, vcs, cfg.remote())
	if err != nil {
		return Result{
			Status:  StatusFailed,
			Message: err.Error(),
		}
	}

	// Step 4: Visibility gate. Independent of the
	// path/author rule and immune to Force.
	vis, visErr := checkVisibility(ctx, cfg, pol)

	verdict := decision.Evaluate(snap, pol, vis)

	if vis.Checked && !vis.Allowed {
		msg := render.BlockedMessage(blockedTpl, verdict)
		if visErr != nil {
			msg = fmt.Sprintf(
				"%s: %v (check hosting provider access)",
				msg, visErr,
			)
		}

		return Result{
			Status:  StatusBlocked,
			Verdict: &verdict,
			Message: msg,
		}
	}

	// Step 5: Apply the path/author rule, unless forced.
	if !cfg.Force && !verdict.Allowed {
		blocked, overridden := resolveBlock(
			cfg, verdict, pol, blockedTpl,
		)
		if !overridden {
			return blocked
		}
	}

	req := git.PushRequest{
		Remote:    cfg.remote(),
		Branch:    snap.CurrentBranch,
		NewBranch: snap.NewBranch,
		Args:      cfg.Args,
	}

	// Step 6: Dry runs stop here on every path, override
	// included.
	if cfg.DryRun {
		return Result{
			Status:  StatusDryRun,
			Verdict: &verdict,
			Message: "would run: git " + strings.Join(
				git.BuildPushArgs(req), " ",
			),
		}
	}

	// Step 7: Push.
	outcome := vcs.Push(ctx, req)

	status := StatusSucceeded
	if !outcome.Succeeded {
		status = StatusFailed
	}

	return Result{
		Status:  status,
		Verdict: &verdict,
		Message: outcome.Message,
		Push:    &outcome,
	}
}

// resolveBlock applies the configured blocked behavior.
// The returned bool reports whether the operator overrode
// the block.
func resolveBlock(
	cfg Config,
	verdict decision.Verdict,
	pol policy.Policy,
	blockedTpl string,
) (Result, bool) {
	msg := render.BlockedMessage(blockedTpl, verdict)

	blocked := Result{
		Status:  StatusBlocked,
		Verdict: &verdict,
		Message: msg,
	}

	// Authorship blocks signal that someone else's work
	// would be overwritten; only protected-path blocks
	// may be overridden.
	if pol.OnBlocked != policy.PromptOverride ||
		!verdict.Details.HasForbiddenChanges {
		return blocked, false
	}

	if cfg.NonInteractive || cfg.Confirm == nil {
		blocked.Message = msg +
			"\nRe-run with --force to override the protected-path block."

		return blocked, false
	}

	prompt := fmt.Sprintf("%s\nPush anyway? [y/N] ", msg)
	if cfg.Confirm(prompt) {
		return Result{}, true
	}

	blocked.Message = msg + "\nOverride declined."

	return blocked, false
}

// checkVisibility consults the hosting provider when the
// policy restricts visibilities. A provider failure yields
// an unknown, not-allowed fact: unverifiable visibility
// never passes the gate.
func checkVisibility(
	ctx context.Context,
	cfg Config,
	pol policy.Policy,
) (decision.VisibilityFact, error) {
	if !pol.RestrictsVisibility() {
		return decision.VisibilityFact{}, nil
	}

	if cfg.Hosting == nil {
		return decision.VisibilityFact{
				Visibility: hosting.Unknown,
				Checked:    true,
			},
			errors.New("no hosting provider configured")
	}

	v, err := cfg.Hosting.RepositoryVisibility(ctx)
	if err != nil {
		return decision.VisibilityFact{
			Visibility: hosting.Unknown,
			Checked:    true,
		}, err
	}

	return decision.VisibilityFact{
		Visibility: v,
		Checked:    true,
		Allowed:    pol.VisibilityAllowed(v),
	}, nil
}

// record appends the terminal result to the audit trail.
func record(cfg Config, res Result) {
	action := "push"
	if cfg.DryRun {
		action = "dry-run"
	}

	ev := audit.Event{
		Action:   action,
		Status:   string(res.Status),
		Remote:   cfg.remote(),
		Forced:   cfg.Force,
		ExitCode: res.ExitCode(),
	}

	if res.Verdict != nil {
		ev.Allowed = res.Verdict.Allowed
		ev.Reason = res.Verdict.Reason
		ev.Branch = res.Verdict.Details.CurrentBranch
	}

	cfg.Audit.Record(ev)
}

// remote returns the configured remote or the default.
func (c Config) remote() string {
	if c.Remote == "" {
		return git.DefaultRemote
	}

	return c.Remote
}

// vcs returns the injected adapter or a git client rooted
// at Dir.
func (c Config) vcs() VCS {
	if c.VCS != nil {
		return c.VCS
	}

	return &git.Client{Dir: c.Dir}
}

// policy returns the effective policy and blocked-message
// template, loading configuration unless one was injected.
func (c Config) policy() (policy.Policy, string, error) {
	if c.Policy != nil {
		pol := *c.Policy
		if err := pol.Validate(); err != nil {
			return policy.Policy{}, "", err
		}

		return pol, c.BlockedMessage, nil
	}

	st, err := config.Load(c.Dir, c.ConfigPath)
	if err != nil {
		return policy.Policy{}, "", err
	}

	return st.Policy, st.BlockedMessage, nil
}
