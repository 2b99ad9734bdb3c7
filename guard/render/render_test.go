package render_test

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/pushguard/guard/decision"
	"github.com/byte4ever/pushguard/guard/render"
)

func TestBlockedMessage_default_template(t *testing.T) {
	t.Parallel()

	v := decision.Verdict{
		Reason: "Changes touch protected path .github/ci.yml",
	}

	msg := render.BlockedMessage("", v)

	assert.Equal(
		t,
		"Push blocked: Changes touch protected path .github/ci.yml",
		msg,
	)
}

func TestBlockedMessage_custom_template(t *testing.T) {
	t.Parallel()

	v := decision.Verdict{
		Reason: "nope",
		Details: decision.Details{
			CurrentBranch: "main",
			AuthorEmail:   "a@x.com",
			ForbiddenFiles: []string{
				".github/ci.yml",
				"deploy.secret",
			},
		},
	}

	msg := render.BlockedMessage(
		"{{branch}} by {{author}}: {{reason}} [{{files}}]",
		v,
	)

	assert.Equal(
		t,
		"main by a@x.com: nope [.github/ci.yml, deploy.secret]",
		msg,
	)
}

func TestBlockedMessage_keeps_unknown_tags(t *testing.T) {
	t.Parallel()

	msg := render.BlockedMessage(
		"{{reason}} {{nope}}",
		decision.Verdict{Reason: "r"},
	)

	assert.Equal(t, "r {{nope}}", msg)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := render.JSON(&sb, render.Report{
		Status:   "blocked",
		ExitCode: 1,
		Message:  "Push blocked: nope",
		Verdict: &decision.Verdict{
			Reason: "nope",
			Details: decision.Details{
				CurrentBranch: "main",
			},
		},
	})

	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(
		t,
		json.Unmarshal([]byte(sb.String()), &decoded),
	)

	assert.Equal(t, "blocked", decoded["status"])
	assert.Equal(t, float64(1), decoded["exitCode"])
	assert.NotContains(t, decoded, "push")

	verdict, ok := decoded["verdict"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, verdict["allowed"])
}

func TestHuman_lists_protected_files(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := render.Human(&sb, render.Report{
		Status:   "blocked",
		ExitCode: 1,
		Message:  "Push blocked: nope",
		Verdict: &decision.Verdict{
			Reason: "nope",
			Details: decision.Details{
				ForbiddenFiles: []string{
					".github/ci.yml",
					"deploy.secret",
				},
			},
		},
	})

	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "Push blocked: nope")
	assert.Contains(t, out, "  - .github/ci.yml")
	assert.Contains(t, out, "  - deploy.secret")
}

func TestHuman_falls_back_to_status(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := render.Human(&sb, render.Report{
		Status: "succeeded",
	})

	require.NoError(t, err)
	assert.Equal(t, "succeeded\n", sb.String())
}

func TestHuman_marks_forced_runs(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := render.Human(&sb, render.Report{
		Status:  "succeeded",
		Message: "pushed",
		Forced:  true,
	})

	require.NoError(t, err)
	assert.Contains(t, sb.String(), "--force")
}
