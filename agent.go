package courier

import "context"

// Request describes one task handed to the agent.
type Request struct {
	// Prompt is the user's message, already sanitized by the caller.
	Prompt string
	// SessionID resumes a previous agent conversation when non-empty.
	SessionID string
}

// Runner executes the external agent task and streams its events.
//
// The returned channel carries the run's events in order and is closed
// after the final [EventResult] record (or after the process dies without
// one). Cancelling ctx asks the run to abort; the abort is cooperative and
// the runner stops at its own read points rather than being torn down
// mid-event.
type Runner interface {
	Run(ctx context.Context, req Request) (<-chan AgentEvent, error)
}
