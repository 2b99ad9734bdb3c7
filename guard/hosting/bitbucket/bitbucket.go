// Package bitbucket resolves repository visibility over
// the Bitbucket Server REST API.
package bitbucket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/pushguard/guard/hosting"
)

// Config holds the settings needed to create a Bitbucket
// visibility provider.
type Config struct {
	// APIEndpoint is the full Bitbucket Server REST API
	// URL of the repository resource, including project
	// and repo path (e.g.
	// "https://bb.example.com/rest/api/1.0/
	// projects/PROJ/repos/repo").
	APIEndpoint string
	// User is the Bitbucket API username.
	User string
	// Password is the Bitbucket API password (or
	// personal access token).
	Password string
}

// Provider queries repository visibility on Bitbucket
// Server.
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	endpoint string
	user     string
	password string
}

// repositoryRecord is the subset of the Bitbucket
// repository resource the provider reads. Bitbucket Server
// has no internal tier: repositories are either public or
// restricted.
type repositoryRecord struct {
	Public bool `json:"public"`
}

// NewProvider validates cfg and returns a Provider ready
// to query visibility.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating bitbucket provider"

	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf(
			"%s: api endpoint must be set",
			errCtx,
		)
	}

	if cfg.User == "" {
		return nil, fmt.Errorf(
			"%s: user must be set", errCtx,
		)
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf(
			"%s: password must be set", errCtx,
		)
	}

	return &Provider{
		endpoint: cfg.APIEndpoint,
		user:     cfg.User,
		password: cfg.Password,
	}, nil
}

// RepositoryVisibility fetches the repository resource and
// maps its public flag.
func (p *Provider) RepositoryVisibility(
	ctx context.Context,
) (hosting.Visibility, error) {
	const errCtx = "querying bitbucket repository"

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.endpoint,
		nil,
	)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.user, p.password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: read response: %w", errCtx, err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn(
			"bitbucket response",
			"status", resp.Status,
			"body", string(rb),
		)

		return hosting.Unknown, fmt.Errorf(
			"%s: unexpected status %d",
			errCtx, resp.StatusCode,
		)
	}

	var record repositoryRecord
	if err := json.Unmarshal(rb, &record); err != nil {
		return hosting.Unknown, fmt.Errorf(
			"%s: decode response: %w", errCtx, err,
		)
	}

	if record.Public {
		return hosting.Public, nil
	}

	return hosting.Private, nil
}
