package git

// Test-only aliases for internal helpers.
var (
	SplitLinesForTest         = splitLines
	HasNonFlagTokenForTest    = hasNonFlagToken
	StripUpstreamFlagsForTest = stripUpstreamFlags
)
