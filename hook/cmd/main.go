// Command pushguard-hook gates git pushes proposed by a
// coding agent. It reads one PreToolUse payload on stdin,
// locates git push invocations in the proposed shell
// command, and checks each against the repository policy
// without prompting and without pushing.
//
// Exit 0 allows the tool call; exit 2 blocks it with the
// reason on stderr (the agent-hook convention).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/byte4ever/pushguard/guard/hosting/ghcli"
	"github.com/byte4ever/pushguard/guard/pusher"
	"github.com/byte4ever/pushguard/hook"
	"github.com/byte4ever/pushguard/hook/gitargs"
)

const (
	exitAllow = 0
	exitBlock = 2
)

func main() {
	setupLogging()
	os.Exit(run(os.Stdin, os.Stderr))
}

// run gates one tool call. Everything the agent relays to
// the operator goes to errw; the return value is the
// process exit code.
func run(in io.Reader, errw io.Writer) int {
	payload, err := hook.ReadInput(in)
	if err != nil {
		// An unreadable proposal cannot be vetted.
		fmt.Fprintf(errw, "pushguard: %v\n", err)

		return exitBlock
	}

	if payload.ToolName != "Bash" ||
		payload.ToolInput.Command == "" {
		return exitAllow
	}

	calls, dynamic, err := gitargs.Find(
		payload.ToolInput.Command,
	)
	if err != nil || dynamic {
		fmt.Fprintln(
			errw,
			"Command blocked: it may conceal a git push"+
				" behind dynamic shell constructs."+
				" Re-write it with literal arguments.",
		)

		return exitBlock
	}

	for _, call := range calls {
		res := check(call, payload.CWD)
		if res.ExitCode() == 0 {
			continue
		}

		fmt.Fprintln(errw, res.Message)
		fmt.Fprintln(
			errw,
			"If this push is intentional, run pushguard"+
				" directly in a terminal to review or"+
				" override the decision.",
		)

		return exitBlock
	}

	return exitAllow
}

// check dry-runs the decision for one located push. The
// agent surface never prompts and never overrides.
func check(call gitargs.Call, cwd string) pusher.Result {
	dir := call.Dir
	if dir == "" {
		dir = cwd
	}

	return pusher.Run(context.Background(), pusher.Config{
		Remote:         remoteFrom(call.Args),
		Args:           call.Args,
		DryRun:         true,
		NonInteractive: true,
		Dir:            dir,
		Hosting: ghcli.NewProvider(ghcli.Config{
			Dir: dir,
		}),
	})
}

// pushValueOpts are push options that consume the next
// argument, so it is not mistaken for the remote.
var pushValueOpts = map[string]bool{
	"-o":             true,
	"--push-option":  true,
	"--receive-pack": true,
	"--exec":         true,
	"--repo":         true,
}

// remoteFrom names the pushed remote when the argument
// vector carries one, so upstream checks target it. Empty
// means the default remote.
func remoteFrom(args []string) string {
	i := 0

	for i < len(args) {
		a := args[i]

		switch {
		case pushValueOpts[a]:
			i += 2
		case a == "" || strings.HasPrefix(a, "-"):
			i++
		default:
			return a
		}
	}

	return ""
}

// setupLogging keeps subprocess chatter off the hook's
// stderr, which the agent relays verbatim.
func setupLogging() {
	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelError},
	)))
}
