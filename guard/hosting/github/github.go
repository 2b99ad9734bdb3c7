// Package github resolves repository visibility over the
// GitHub REST API.
package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/pushguard/guard/hosting"
)

// Config holds the settings needed to create a GitHub
// visibility provider.
type Config struct {
	// RepoOwner is the GitHub user or organisation that
	// owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or GitHub
	// App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
}

// Provider queries repository visibility on GitHub.
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

// NewProvider validates cfg and returns a Provider ready
// to query visibility.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// RepositoryVisibility fetches the repository record and
// returns its visibility.
func (p *Provider) RepositoryVisibility(
	ctx context.Context,
) (hosting.Visibility, error) {
	const errCtx = "querying github repository"

	repo, _, err := p.client.Repositories.Get(
		ctx, p.repoOwner, p.repo,
	)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return hosting.Normalize(repo.GetVisibility()), nil
}
