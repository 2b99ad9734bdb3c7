// Package hosting abstracts the repository hosting platform behind a
// visibility query.
//
// The Provider interface answers one question: how widely is the repository
// a push would land in exposed. Implementations exist for the GitHub CLI,
// the GitHub REST API, GitLab, and Bitbucket Server in sub-packages.
// ProviderFunc is a convenience adapter that lets plain functions satisfy
// the interface.
package hosting
