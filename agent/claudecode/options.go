// Package claudecode runs tasks through the Claude Code CLI and adapts its
// stream-json output to courier agent events.
package claudecode

import "time"

// Option configures a Runner.
type Option func(*config)

type config struct {
	command string
	workdir string
	timeout time.Duration
	args    []string
	maxLine int
}

func defaultConfig() config {
	return config{
		command: "claude",
		timeout: 10 * time.Minute,
		maxLine: 1 << 20, // 1MB; tool results can be large
	}
}

// WithCommand sets the CLI binary to invoke. Default: "claude" on PATH.
func WithCommand(path string) Option {
	return func(c *config) { c.command = path }
}

// WithWorkdir sets the working directory the agent runs in.
func WithWorkdir(dir string) Option {
	return func(c *config) { c.workdir = dir }
}

// WithTimeout sets the maximum duration of one run. The run counts as
// failed, not cancelled, when it expires. Default: 10m.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithExtraArgs appends extra CLI arguments to every run (model selection,
// tool allowlists, MCP config, and so on).
func WithExtraArgs(args ...string) Option {
	return func(c *config) { c.args = append(c.args, args...) }
}
