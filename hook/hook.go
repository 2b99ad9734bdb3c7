// Package hook decodes the agent tool-use payload the
// push gate receives on stdin.
package hook

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Input is one PreToolUse payload. Fields the gate does
// not consult are ignored during decoding.
type Input struct {
	// ToolName discriminates the tool; only "Bash"
	// carries a shell command.
	ToolName string `json:"tool_name"`

	// ToolInput is the tool's own argument object.
	ToolInput ToolInput `json:"tool_input"`

	// CWD is the directory the command would run in.
	CWD string `json:"cwd"`
}

// ToolInput carries the proposed shell command.
type ToolInput struct {
	Command string `json:"command"`
}

// ReadInput decodes one payload from r.
func ReadInput(r io.Reader) (Input, error) {
	const errCtx = "decoding hook input"

	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return Input{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return in, nil
}
