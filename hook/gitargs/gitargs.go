// Package gitargs locates git push invocations inside
// shell commands.
//
// Commands arrive as whole shell lines. They are parsed
// into a syntax tree, which is walked for call
// expressions naming git with the push subcommand,
// including pushes behind wrapper shells (sh -c "..."),
// eval, and argv-preserving wrappers like env. Words that
// cannot be resolved statically (parameter expansions,
// command substitutions) are reported as dynamic so the
// caller can fail closed.
package gitargs

import (
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Call is one located git push invocation.
type Call struct {
	// Dir is the repository directory an explicit -C
	// global option named, empty otherwise.
	Dir string

	// Args is the argument tail after the push
	// subcommand. Never nil for a located call.
	Args []string
}

// maxDepth caps wrapper recursion (sh -c inside sh -c
// inside ...). Beyond it the command counts as dynamic.
const maxDepth = 10

// wrapperShells run a nested command string given with
// -c.
var wrapperShells = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"dash": true,
	"ksh":  true,
}

// verbatimWrappers run their argument tail as a command,
// unchanged.
var verbatimWrappers = map[string]bool{
	"command": true,
	"exec":    true,
	"nohup":   true,
	"time":    true,
}

// spawners assemble command lines at run time (from stdin
// or matched files), so their argument vectors cannot be
// recovered statically.
var spawners = map[string]bool{
	"xargs":    true,
	"parallel": true,
	"find":     true,
	"watch":    true,
	"script":   true,
}

// valueOpts are git global options that consume the next
// argument when the value is not attached with "=".
var valueOpts = map[string]bool{
	"-C":          true,
	"-c":          true,
	"--git-dir":   true,
	"--work-tree": true,
	"--exec-path": true,
	"--namespace": true,
}

// Find locates git push invocations in a shell command.
// It returns the located calls and whether the command
// contains dynamic constructs that could conceal further
// pushes. A command the shell grammar rejects is an
// error.
func Find(command string) ([]Call, bool, error) {
	return find(command, 0)
}

func find(
	command string,
	depth int,
) ([]Call, bool, error) {
	const errCtx = "parsing shell command"

	if depth > maxDepth {
		return nil, true, nil
	}

	node, err := syntax.NewParser().Parse(
		strings.NewReader(command), "",
	)
	if err != nil {
		return nil, false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var (
		calls   []Call
		dynamic bool
	)

	syntax.Walk(node, func(n syntax.Node) bool {
		call, ok := n.(*syntax.CallExpr)
		if !ok {
			return true
		}

		found, dyn := inspectWords(call.Args, depth)
		calls = append(calls, found...)
		dynamic = dynamic || dyn

		return true
	})

	return calls, dynamic, nil
}

// inspectWords classifies one argument vector by its
// command word and dispatches to the matching extractor.
func inspectWords(
	words []*syntax.Word,
	depth int,
) ([]Call, bool) {
	if depth > maxDepth {
		return nil, true
	}

	if len(words) == 0 {
		return nil, false
	}

	name, static := literalWord(words[0])
	if !static {
		// The command itself is computed: anything,
		// git included, could hide behind it.
		return nil, true
	}

	base := filepath.Base(name)

	switch {
	case isGit(name):
		return gitPush(words[1:])

	case wrapperShells[base]:
		return wrapped(words[1:], depth)

	case name == "eval":
		return evaled(words[1:], depth)

	case verbatimWrappers[base]:
		return inspectWords(words[1:], depth+1)

	case base == "env":
		tail, dyn := envTail(words[1:])
		if dyn {
			return nil, true
		}

		return inspectWords(tail, depth+1)

	case base == "timeout":
		tail, dyn := timeoutTail(words[1:])
		if dyn {
			return nil, true
		}

		return inspectWords(tail, depth+1)

	case spawners[base]:
		return nil, mentionsGit(words[1:])

	default:
		return nil, false
	}
}

// isGit recognizes the git binary in plain and path
// forms.
func isGit(name string) bool {
	return name == "git" || strings.HasSuffix(name, "/git")
}

// gitPush extracts the push argument vector from a git
// invocation. The bool reports dynamic words that keep
// the vector from being known exactly.
func gitPush(words []*syntax.Word) ([]Call, bool) {
	var dir string

	i := 0

	for i < len(words) {
		word, static := literalWord(words[i])
		if !static {
			// Could expand to any subcommand, push
			// included.
			return nil, true
		}

		if !strings.HasPrefix(word, "-") {
			break
		}

		if valueOpts[word] {
			if i+1 >= len(words) {
				return nil, false
			}

			val, static := literalWord(words[i+1])
			if !static {
				return nil, true
			}

			if word == "-C" {
				dir = val
			}

			i += 2

			continue
		}

		i++
	}

	if i >= len(words) {
		return nil, false
	}

	sub, _ := literalWord(words[i])
	if sub != "push" {
		return nil, false
	}

	tail := make([]string, 0, len(words)-i-1)

	for _, w := range words[i+1:] {
		word, static := literalWord(w)
		if !static {
			return nil, true
		}

		tail = append(tail, word)
	}

	return []Call{{Dir: dir, Args: tail}}, false
}

// wrapped re-analyzes the script a wrapper shell runs via
// -c. Single-dash option clusters count (-c, -lc); the
// word after the option is the script.
func wrapped(
	words []*syntax.Word,
	depth int,
) ([]Call, bool) {
	var (
		calls   []Call
		dynamic bool
	)

	for i, w := range words {
		word, static := literalWord(w)
		if !static {
			dynamic = true

			continue
		}

		if !carriesScript(word) || i+1 >= len(words) {
			continue
		}

		script, static := literalWord(words[i+1])
		if !static {
			dynamic = true

			continue
		}

		found, dyn, err := find(script, depth+1)
		if err != nil {
			// A script the analyzer cannot parse could
			// still run.
			dynamic = true

			continue
		}

		calls = append(calls, found...)
		dynamic = dynamic || dyn
	}

	return calls, dynamic
}

// carriesScript reports whether a shell option word makes
// the next argument a command string.
func carriesScript(word string) bool {
	return strings.HasPrefix(word, "-") &&
		!strings.HasPrefix(word, "--") &&
		strings.ContainsRune(word, 'c')
}

// evaled re-analyzes the command line eval would run.
// eval joins its arguments with spaces first.
func evaled(
	words []*syntax.Word,
	depth int,
) ([]Call, bool) {
	parts := make([]string, 0, len(words))

	for _, w := range words {
		word, static := literalWord(w)
		if !static {
			return nil, true
		}

		parts = append(parts, word)
	}

	if len(parts) == 0 {
		return nil, false
	}

	found, dynamic, err := find(
		strings.Join(parts, " "), depth+1,
	)
	if err != nil {
		return nil, true
	}

	return found, dynamic
}

// envTail skips the assignments and flags env consumes
// before the command it runs.
func envTail(
	words []*syntax.Word,
) ([]*syntax.Word, bool) {
	for i, w := range words {
		word, static := literalWord(w)
		if !static {
			return nil, true
		}

		if strings.Contains(word, "=") ||
			strings.HasPrefix(word, "-") {
			continue
		}

		return words[i:], false
	}

	return nil, false
}

// timeoutTail skips the flags and the duration timeout
// consumes before the command it runs.
func timeoutTail(
	words []*syntax.Word,
) ([]*syntax.Word, bool) {
	for i, w := range words {
		word, static := literalWord(w)
		if !static {
			return nil, true
		}

		if strings.HasPrefix(word, "-") {
			continue
		}

		// The first non-flag word is the duration.
		return words[i+1:], false
	}

	return nil, false
}

// mentionsGit reports whether a spawner's arguments could
// end up running git: a git mention or any dynamic word
// counts.
func mentionsGit(words []*syntax.Word) bool {
	for _, w := range words {
		word, static := literalWord(w)
		if !static || isGit(word) {
			return true
		}
	}

	return false
}

// literalWord resolves a word to its literal text. The
// bool is false when the word contains parts (parameter
// expansions, command substitutions) whose value is
// unknowable without executing them.
func literalWord(word *syntax.Word) (string, bool) {
	if word == nil {
		return "", true
	}

	var sb strings.Builder

	static := true

	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				lit, ok := qp.(*syntax.Lit)
				if !ok {
					static = false

					continue
				}

				sb.WriteString(lit.Value)
			}
		default:
			static = false
		}
	}

	return sb.String(), static
}
