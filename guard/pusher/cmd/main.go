// Command pushguard decides whether a git push is safe
// under the repository policy and, when it is, runs the
// push. Blocked pushes exit non-zero with the reason;
// interactive runs may offer an override prompt when the
// policy allows one.
//
// Usage: pushguard [flags] [--] [git push args...]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/byte4ever/pushguard/guard/audit"
	"github.com/byte4ever/pushguard/guard/hosting"
	"github.com/byte4ever/pushguard/guard/hosting/bitbucket"
	"github.com/byte4ever/pushguard/guard/hosting/ghcli"
	"github.com/byte4ever/pushguard/guard/hosting/github"
	"github.com/byte4ever/pushguard/guard/hosting/gitlab"
	"github.com/byte4ever/pushguard/guard/pusher"
	"github.com/byte4ever/pushguard/guard/render"
)

func main() {
	code, err := run()
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}

	os.Exit(code)
}

//nolint:funlen // CLI flag setup is inherently long
func run() (int, error) {
	const errCtx = "running pushguard"

	// Push flags.
	remote := flag.String(
		"remote", "origin",
		"Remote the synthesized push targets",
	)
	force := flag.Bool(
		"force", false,
		"Skip the path/author rule "+
			"(the visibility gate still applies)",
	)
	dryRun := flag.Bool(
		"dry-run", false,
		"Report the would-be push without running it",
	)
	nonInteractive := flag.Bool(
		"non-interactive", false,
		"Never prompt; blocked pushes return guidance",
	)

	// Policy flags.
	configPath := flag.String(
		"config", "",
		"Policy file path (default: search the "+
			"repository directory)",
	)

	// Output flags.
	jsonOut := flag.Bool(
		"json", false,
		"Write the result as JSON on stdout",
	)
	verbose := flag.Bool(
		"verbose", false,
		"Log subprocess activity on stderr",
	)
	auditPath := flag.String(
		"audit", "",
		"Append one JSONL event per run to this file",
	)

	// Hosting provider selection.
	hostingName := flag.String(
		"hosting", "ghcli",
		"Visibility source: ghcli, github, gitlab, "+
			"or bitbucket",
	)

	// GitHub-specific flags.
	ghOwner := flag.String(
		"github-owner", "",
		"GitHub repository owner",
	)
	ghRepo := flag.String(
		"github-repo", "",
		"GitHub repository name",
	)
	ghToken := flag.String(
		"github-token", "",
		"GitHub personal access token",
	)
	ghEnterprise := flag.String(
		"github-enterprise-host", "",
		"GitHub Enterprise hostname",
	)

	// GitLab-specific flags.
	glHost := flag.String(
		"gitlab-host", "",
		"GitLab instance URL",
	)
	glRepo := flag.String(
		"gitlab-repo", "",
		"GitLab project path (org/project)",
	)
	glToken := flag.String(
		"gitlab-token", "",
		"GitLab personal access token",
	)

	// Bitbucket-specific flags.
	bbEndpoint := flag.String(
		"bitbucket-endpoint", "",
		"Bitbucket Server REST API repository URL",
	)
	bbUser := flag.String(
		"bitbucket-user", "",
		"Bitbucket API username",
	)
	bbPassword := flag.String(
		"bitbucket-password", "",
		"Bitbucket API password or token",
	)

	flag.Parse()

	setupLogging(*verbose)

	// Build the hosting provider from flags. It is only
	// consulted when the policy restricts visibilities.
	provider, err := newHostingProvider(
		*hostingName,
		providerFlags{
			ghOwner:      *ghOwner,
			ghRepo:       *ghRepo,
			ghToken:      *ghToken,
			ghEnterprise: *ghEnterprise,
			glHost:       *glHost,
			glRepo:       *glRepo,
			glToken:      *glToken,
			bbEndpoint:   *bbEndpoint,
			bbUser:       *bbUser,
			bbPassword:   *bbPassword,
		},
	)
	if err != nil {
		return 0, fmt.Errorf(
			"%s: create provider: %w", errCtx, err,
		)
	}

	cfg := pusher.Config{
		Remote:         *remote,
		Args:           flag.Args(),
		Force:          *force,
		DryRun:         *dryRun,
		NonInteractive: *nonInteractive,
		ConfigPath:     *configPath,
		Hosting:        provider,
	}

	if !*nonInteractive {
		cfg.Confirm = confirmOnTerminal
	}

	if *auditPath != "" {
		trail, err := audit.Open(*auditPath)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", errCtx, err)
		}

		defer func() {
			if err := trail.Close(); err != nil {
				slog.Warn(
					"closing audit trail",
					"error", err,
				)
			}
		}()

		cfg.Audit = trail
	}

	res := pusher.Run(context.Background(), cfg)

	if err := report(res, *jsonOut); err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return res.ExitCode(), nil
}

// setupLogging routes diagnostics to stderr so stdout
// stays parseable. The default level hides subprocess
// chatter unless -verbose asks for it.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	)))
}

// report writes the result on stdout.
func report(res pusher.Result, asJSON bool) error {
	rep := render.Report{
		Status:   string(res.Status),
		ExitCode: res.ExitCode(),
		Forced:   res.Forced,
		DryRun:   res.DryRun,
		Message:  res.Message,
		Verdict:  res.Verdict,
	}

	if res.Push != nil {
		rep.Push = &render.PushReport{
			Succeeded: res.Push.Succeeded,
			Message:   res.Push.Message,
		}
	}

	if asJSON {
		return render.JSON(os.Stdout, rep)
	}

	return render.Human(os.Stdout, rep)
}

// confirmOnTerminal prompts on stderr and reads one line
// from stdin. Only an explicit yes affirms; EOF declines.
func confirmOnTerminal(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)

	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// providerFlags bundles provider-specific flag values to
// keep newHostingProvider under the 4-argument limit.
type providerFlags struct {
	ghOwner      string
	ghRepo       string
	ghToken      string
	ghEnterprise string
	glHost       string
	glRepo       string
	glToken      string
	bbEndpoint   string
	bbUser       string
	bbPassword   string
}

// newHostingProvider creates a hosting.Provider based on
// the provider name. Pattern: Factory -- selects platform
// implementation at runtime.
func newHostingProvider(
	name string,
	pf providerFlags,
) (hosting.Provider, error) {
	const errCtx = "creating hosting provider"

	switch name {
	case "ghcli":
		return ghcli.NewProvider(ghcli.Config{}), nil

	case "github":
		p, err := github.NewProvider(github.Config{
			RepoOwner:      pf.ghOwner,
			Repo:           pf.ghRepo,
			AccessToken:    pf.ghToken,
			EnterpriseHost: pf.ghEnterprise,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		p, err := gitlab.NewProvider(gitlab.Config{
			Host:        pf.glHost,
			Repo:        pf.glRepo,
			AccessToken: pf.glToken,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "bitbucket":
		p, err := bitbucket.NewProvider(
			bitbucket.Config{
				APIEndpoint: pf.bbEndpoint,
				User:        pf.bbUser,
				Password:    pf.bbPassword,
			},
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown provider %q", errCtx, name,
		)
	}
}
