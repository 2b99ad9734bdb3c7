// Package git reads the repository facts the push safety rule is evaluated
// over and performs the push itself.
//
// Client wraps subprocess git with one method per fact: current branch,
// upstream existence, changed files against the push baseline, last commit
// author, and the local identity. Queries never mutate the repository; the
// only mutation is Push. Absence-style facts (no upstream, not a repository)
// are reported as plain booleans, never as errors.
package git
