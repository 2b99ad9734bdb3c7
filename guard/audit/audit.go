// Package audit appends structured decision events to a
// local trail file so pushes can be reviewed after the
// fact.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Event is one recorded orchestrator outcome.
type Event struct {
	// Time is when the event was recorded, UTC.
	Time time.Time `json:"time"`

	// Action is what the invocation was doing: "push" or
	// "dry-run".
	Action string `json:"action"`

	// Status is the terminal result status.
	Status string `json:"status"`

	// Allowed is the verdict outcome, when one was
	// reached.
	Allowed bool `json:"allowed"`

	// Reason is the verdict reason, when one was
	// reached.
	Reason string `json:"reason,omitempty"`

	// Branch is the branch under review.
	Branch string `json:"branch,omitempty"`

	// Remote is the remote the push targets.
	Remote string `json:"remote,omitempty"`

	// Forced marks an invocation that skipped the
	// path/author rule.
	Forced bool `json:"forced,omitempty"`

	// ExitCode is the code the surface reported.
	ExitCode int `json:"exitCode"`
}

// Trail appends events to a JSONL file, one event per
// line. A nil Trail discards events, so callers never
// guard their Record calls.
type Trail struct {
	mu sync.Mutex
	f  *os.File
}

// Open prepares the trail at path for appending, creating
// the file when missing.
func Open(path string) (*Trail, error) {
	const errCtx = "opening audit trail"

	//nolint:gosec // path comes from CLI flags
	f, err := os.OpenFile(
		path,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Trail{f: f}, nil
}

// Record appends one event. Recording is best-effort: a
// failure is logged and never fails the push flow itself.
func (t *Trail) Record(ev Event) {
	if t == nil || t.f == nil {
		return
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	line, err := json.Marshal(ev)
	if err != nil {
		slog.Warn(
			"cannot marshal audit event",
			"error", err,
		)

		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.f.Write(append(line, '\n')); err != nil {
		slog.Warn(
			"cannot write audit event",
			"error", err,
		)
	}
}

// Close releases the trail file handle.
func (t *Trail) Close() error {
	if t == nil || t.f == nil {
		return nil
	}

	return t.f.Close()
}
