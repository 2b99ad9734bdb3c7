// Package config loads the push safety policy from the
// repository configuration file.
//
// The file is optional: a repository without one gets the
// default policy. A file that exists but cannot be parsed
// or validated always fails the run, so a malformed policy
// can never silently weaken into the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/byte4ever/pushguard/guard/hosting"
	"github.com/byte4ever/pushguard/guard/policy"
)

// FileNames are probed in order inside the repository
// directory when no explicit path is given.
var FileNames = []string{
	".pushguard.yml",
	".pushguard.yaml",
	".pushguard.json",
}

// File mirrors the on-disk schema.
type File struct {
	// ProtectedPaths replaces the default protected
	// patterns. An explicit empty list disables path
	// protection; omitting the key keeps the defaults.
	ProtectedPaths []string `yaml:"protectedPaths" json:"protectedPaths"`

	// OnBlockedBehavior is "error" or "prompt".
	OnBlockedBehavior string `yaml:"onBlockedBehavior" json:"onBlockedBehavior"`

	// AllowedVisibilities restricts pushes to
	// repositories with one of these visibilities.
	AllowedVisibilities []string `yaml:"allowedVisibilities" json:"allowedVisibilities"`

	// BlockedMessage overrides the rendered block
	// message template.
	BlockedMessage string `yaml:"blockedMessage" json:"blockedMessage"`
}

// Error reports an unusable configuration file.
type Error struct {
	// Path is the offending file.
	Path string

	// Err is the underlying read, parse, or validation
	// failure.
	Err error
}

// Error renders the file path with the underlying cause.
func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Settings is the loaded, validated configuration.
type Settings struct {
	// Policy is the rule set to evaluate pushes under.
	Policy policy.Policy

	// BlockedMessage optionally overrides the blocked
	// message template.
	BlockedMessage string

	// Path is the file the settings came from. Empty
	// when the defaults were used.
	Path string
}

// Load reads settings from path, or from the first
// configuration file found in dir when path is empty.
// Finding no file yields the defaults; an explicit path
// that cannot be read is an error.
func Load(dir, path string) (Settings, error) {
	if path == "" {
		path = find(dir)
	}

	if path == "" {
		return Settings{Policy: policy.Default()}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from CLI flags
	if err != nil {
		return Settings{}, &Error{Path: path, Err: err}
	}

	var f File

	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}

	if err != nil {
		return Settings{}, &Error{Path: path, Err: err}
	}

	st, err := f.settings()
	if err != nil {
		return Settings{}, &Error{Path: path, Err: err}
	}

	st.Path = path

	return st, nil
}

// find returns the first configuration file present in
// dir.
func find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// settings converts the raw file into validated settings,
// applying schema defaults for omitted keys.
func (f File) settings() (Settings, error) {
	pol := policy.Default()

	if f.ProtectedPaths != nil {
		pol.ProtectedPaths = f.ProtectedPaths
	}

	switch f.OnBlockedBehavior {
	case "":
	case string(policy.Fail):
		pol.OnBlocked = policy.Fail
	case string(policy.PromptOverride):
		pol.OnBlocked = policy.PromptOverride
	default:
		return Settings{}, fmt.Errorf(
			"unknown onBlockedBehavior %q",
			f.OnBlockedBehavior,
		)
	}

	if len(f.AllowedVisibilities) > 0 {
		vis := make(
			[]hosting.Visibility,
			0, len(f.AllowedVisibilities),
		)

		for _, tok := range f.AllowedVisibilities {
			v := hosting.Normalize(tok)
			if v == hosting.Unknown {
				return Settings{}, fmt.Errorf(
					"unknown visibility %q", tok,
				)
			}

			vis = append(vis, v)
		}

		pol.AllowedVisibilities = vis
	}

	if err := pol.Validate(); err != nil {
		return Settings{}, err
	}

	return Settings{
		Policy:         pol,
		BlockedMessage: f.BlockedMessage,
	}, nil
}
