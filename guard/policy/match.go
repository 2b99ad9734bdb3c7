package policy

import "strings"

// MatchPath reports whether a changed path matches one
// protected pattern. A pattern ending in "/" is a
// directory prefix: the path equals the directory or lives
// anywhere under it. Anything else is a glob anchored over
// the whole path, where '*' matches any run of characters
// including none (it crosses "/") and '?' matches exactly
// one character. Matching is case-sensitive and touches no
// filesystem.
func MatchPath(path, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")

		return path == dir ||
			strings.HasPrefix(path, dir+"/")
	}

	return globMatch(pattern, path)
}

// MatchingPattern returns the first pattern matching path.
// Pattern order only decides which pattern is reported,
// never whether the path matches.
func MatchingPattern(
	path string,
	patterns []string,
) (string, bool) {
	for _, pat := range patterns {
		if MatchPath(path, pat) {
			return pat, true
		}
	}

	return "", false
}

// ProtectedFiles filters files down to those matching any
// pattern, preserving input order.
func ProtectedFiles(files, patterns []string) []string {
	var hits []string

	for _, f := range files {
		if _, ok := MatchingPattern(f, patterns); ok {
			hits = append(hits, f)
		}
	}

	return hits
}

// globMatch matches s against an anchored glob carrying
// only '*' and '?'. Iterative with backtracking on the
// most recent '*', so pathological patterns stay linear
// in practice.
func globMatch(pattern, s string) bool {
	pr := []rune(pattern)
	sr := []rune(s)

	var (
		px, sx int
		star   = -1
		starSx int
	)

	for sx < len(sr) {
		switch {
		case px < len(pr) &&
			(pr[px] == '?' || pr[px] == sr[sx]):
			px++
			sx++
		case px < len(pr) && pr[px] == '*':
			star = px
			starSx = sx
			px++
		case star >= 0:
			px = star + 1
			starSx++
			sx = starSx
		default:
			return false
		}
	}

	for px < len(pr) && pr[px] == '*' {
		px++
	}

	return px == len(pr)
}
