// Package pusher orchestrates the guarded push workflow: repository
// probes, policy loading, the visibility gate, the path/author rule, the
// optional override prompt, and the push itself.
//
// Run never prints and never exits the process. It returns a Result whose
// Status discriminates succeeded, dry-run, blocked, and failed; only the
// outermost caller maps that onto a process exit code, after scoped
// resources have been released. Surfaces (the CLI and the agent hook)
// stay thin: they parse their input, call Run, and render the Result in
// their own dialect.
package pusher
