// Package gitlab resolves project visibility over the
// GitLab API.
package gitlab

import (
	"context"
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/pushguard/guard/hosting"
)

// Config holds the settings needed to create a GitLab
// visibility provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access token
	// used for authentication.
	AccessToken string
}

// Provider queries project visibility on GitLab.
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	client *gl.Client
	repo   string
}

// NewProvider validates cfg and returns a Provider ready
// to query visibility.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		repo:   cfg.Repo,
	}, nil
}

// RepositoryVisibility fetches the project record and
// returns its visibility.
func (p *Provider) RepositoryVisibility(
	ctx context.Context,
) (hosting.Visibility, error) {
	const errCtx = "querying gitlab project"

	project, _, err := p.client.Projects.GetProject(
		p.repo, nil, gl.WithContext(ctx),
	)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return hosting.Normalize(string(project.Visibility)), nil
}
