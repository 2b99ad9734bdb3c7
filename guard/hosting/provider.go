package hosting

import (
	"context"
	"strings"
)

// Pattern: Strategy -- swap hosting platform without
// changing the safety decision logic.

// Visibility classifies how widely a hosted repository is
// exposed.
type Visibility string

const (
	// Public repositories are readable by anyone.
	Public Visibility = "public"

	// Private repositories are restricted to explicit
	// members.
	Private Visibility = "private"

	// Internal repositories are visible to every member
	// of the owning organisation.
	Internal Visibility = "internal"

	// Unknown marks a visibility that could not be
	// determined. Policy never allows it.
	Unknown Visibility = "unknown"
)

// Normalize maps a provider token to a Visibility.
// Matching is case-insensitive; anything unrecognized is
// Unknown.
func Normalize(tok string) Visibility {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "public":
		return Public
	case "private":
		return Private
	case "internal":
		return Internal
	default:
		return Unknown
	}
}

// Provider reports the visibility of the repository a push
// would land in.
type Provider interface {
	RepositoryVisibility(ctx context.Context) (Visibility, error)
}

// ProviderFunc adapts a plain function to the Provider
// interface.
type ProviderFunc func(ctx context.Context) (Visibility, error)

// RepositoryVisibility delegates to the wrapped function.
func (f ProviderFunc) RepositoryVisibility(
	ctx context.Context,
) (Visibility, error) {
	return f(ctx)
}
