// Package render formats verdicts and push results for the
// call surfaces. Adapters and the orchestrator never print;
// everything the operator reads goes through here.
package render

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/pushguard/guard/decision"
)

// DefaultBlockedTemplate renders a blocked verdict when
// no template is configured.
const DefaultBlockedTemplate = "Push blocked: {{reason}}"

// Report is the wire shape of one invocation result.
type Report struct {
	Status   string            `json:"status"`
	ExitCode int               `json:"exitCode"`
	Forced   bool              `json:"forced,omitempty"`
	DryRun   bool              `json:"dryRun,omitempty"`
	Message  string            `json:"message,omitempty"`
	Verdict  *decision.Verdict `json:"verdict,omitempty"`
	Push     *PushReport       `json:"push,omitempty"`
}

// PushReport is the wire shape of the push outcome.
type PushReport struct {
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message,omitempty"`
}

// BlockedMessage expands the blocked-message template over
// a verdict. Templates use {{tag}} markers with the tags
// reason, files, branch, and author; unknown tags are kept
// verbatim so a typo stays visible instead of vanishing.
func BlockedMessage(tpl string, v decision.Verdict) string {
	if tpl == "" {
		tpl = DefaultBlockedTemplate
	}

	return fasttemplate.ExecuteStringStd(
		tpl, "{{", "}}",
		map[string]interface{}{
			"reason": v.Reason,
			"files": strings.Join(
				v.Details.ForbiddenFiles, ", ",
			),
			"branch": v.Details.CurrentBranch,
			"author": v.Details.AuthorEmail,
		},
	)
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, rep Report) error {
	const errCtx = "rendering json report"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Human writes the report as operator-facing text.
func Human(w io.Writer, rep Report) error {
	const errCtx = "rendering report"

	var sb strings.Builder

	switch {
	case rep.Message != "":
		sb.WriteString(rep.Message)
		sb.WriteByte('\n')
	default:
		sb.WriteString(rep.Status)
		sb.WriteByte('\n')
	}

	if rep.Verdict != nil &&
		len(rep.Verdict.Details.ForbiddenFiles) > 0 {
		sb.WriteString("protected files:\n")

		for _, f := range rep.Verdict.Details.ForbiddenFiles {
			sb.WriteString("  - ")
			sb.WriteString(f)
			sb.WriteByte('\n')
		}
	}

	if rep.Forced {
		sb.WriteString("(safety rule skipped by --force)\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
