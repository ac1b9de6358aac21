package courier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultKeepaliveInterval is how often a running session refreshes the
// typing indicator.
const DefaultKeepaliveInterval = 8 * time.Second

// defaultPlaceholder is the initial progress text.
const defaultPlaceholder = "⏳ Working on it…"

// genericFailureReply is the only failure text a requester ever sees; the
// underlying cause goes to the log.
const genericFailureReply = "Sorry, something went wrong while working on that. Please try again."

// SessionState tracks a relay session through its lifecycle.
type SessionState int32

const (
	// StateInit indicates the session is allocating its resources.
	StateInit SessionState = iota
	// StateRunning indicates agent events are being relayed.
	StateRunning
	// StateCompleted indicates the agent returned a final reply.
	StateCompleted
	// StateCancelled indicates the run was aborted via its cancel token.
	StateCancelled
	// StateFailed indicates the run failed.
	StateFailed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is final.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// SessionConfig carries the per-session knobs.
type SessionConfig struct {
	// EditInterval is the minimum spacing between progress edits.
	// Zero selects DefaultEditInterval.
	EditInterval time.Duration
	// Keepalive is the typing-indicator period. Zero selects
	// DefaultKeepaliveInterval.
	Keepalive time.Duration
	// Placeholder overrides the initial progress text.
	Placeholder string
}

// Outcome summarizes a finished session.
type Outcome struct {
	State SessionState
	// Reply is the final agent reply; empty for cancelled and failed runs.
	Reply string
	// SessionID is the continuity token from the run, when one was produced.
	SessionID string
	// Updates counts classified progress updates.
	Updates int
	// Commits counts visible progress edits.
	Commits int
	// Err is the failure for StateFailed, nil otherwise.
	Err error
}

// Session relays one inbound request to the agent and streams progress
// back. Each Session handles exactly one Run.
type Session struct {
	frontend Frontend
	runner   Runner
	registry *Registry
	chatID   string
	cfg      SessionConfig

	teardown sync.Once
}

// NewSession builds a session for one inbound request on chatID.
func NewSession(frontend Frontend, runner Runner, registry *Registry, chatID string, cfg SessionConfig) *Session {
	if cfg.EditInterval <= 0 {
		cfg.EditInterval = DefaultEditInterval
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = DefaultKeepaliveInterval
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = defaultPlaceholder
	}
	return &Session{
		frontend: frontend,
		runner:   runner,
		registry: registry,
		chatID:   chatID,
		cfg:      cfg,
	}
}

// Run relays req end to end and blocks until the session reaches a
// terminal state. Resources (cancel registration, keepalive ticker,
// pending edit timer) are released on every path, exactly once, before
// the terminal message traffic happens.
func (s *Session) Run(ctx context.Context, req Request) Outcome {
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	token := NewCancelToken()
	s.registry.Register(token, abort)

	// Placeholder first: the cancel button must exist before the agent
	// emits anything.
	msgID, err := s.frontend.SendProgress(ctx, s.chatID, s.cfg.Placeholder, token)
	if err != nil {
		s.registry.Unregister(token)
		// Best effort: the chat may be reachable even when the placeholder
		// send was rejected, and a failed run must still be reported.
		_, _ = s.frontend.Send(ctx, s.chatID, genericFailureReply)
		return Outcome{State: StateFailed, Err: fmt.Errorf("send placeholder: %w", err)}
	}

	editor := NewEditor(s.cfg.EditInterval, func(ctx context.Context, text string) error {
		return s.frontend.Edit(ctx, s.chatID, msgID, text)
	})

	stopKeepalive := make(chan struct{})
	go s.keepalive(ctx, stopKeepalive)

	// Teardown is unconditional and single-shot. Each step is independent
	// of the others so a stuck one cannot leak the rest.
	cleanup := func() {
		s.teardown.Do(func() {
			close(stopKeepalive)
			editor.Close()
			s.registry.Unregister(token)
		})
	}
	defer cleanup()

	out := s.relay(runCtx, req, editor)
	out.Commits = editor.Commits()

	cleanup()
	s.finish(ctx, msgID, &out)
	return out
}

// relay drains the agent's event stream into the editor and decides the
// terminal state.
func (s *Session) relay(runCtx context.Context, req Request, editor *Editor) Outcome {
	var out Outcome
	out.State = StateRunning

	events, err := s.runner.Run(runCtx, req)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			out.State = StateCancelled
			return out
		}
		out.State = StateFailed
		out.Err = fmt.Errorf("start run: %w", err)
		return out
	}

	var result *Result
	for ev := range events {
		if runCtx.Err() != nil {
			// Aborted: stop painting progress, keep draining so the
			// runner's goroutine can finish.
			continue
		}
		if ev.Kind == EventResult && ev.Result != nil {
			result = ev.Result
			out.SessionID = ev.Result.SessionID
		}
		if upd, ok := Classify(ev); ok {
			out.Updates++
			editor.Update(runCtx, upd.Text)
		}
	}

	switch {
	case runCtx.Err() != nil:
		out.State = StateCancelled
	case result == nil:
		out.State = StateFailed
		out.Err = &ErrAgent{Message: "run ended without a result"}
	case result.IsError:
		out.State = StateFailed
		out.Err = &ErrAgent{Message: result.Text}
	default:
		out.State = StateCompleted
		out.Reply = result.Text
	}
	return out
}

// finish performs the terminal message traffic. It runs after cleanup, so
// no debounced edit can race the final state of the placeholder.
func (s *Session) finish(ctx context.Context, msgID string, out *Outcome) {
	switch out.State {
	case StateCompleted:
		_ = s.frontend.Delete(ctx, s.chatID, msgID)
		if _, err := s.frontend.SendFormatted(ctx, s.chatID, out.Reply); err != nil {
			slog.Warn("final reply not delivered", "chat", s.chatID, "error", err)
		}
	case StateCancelled:
		// Silent: no reply, and not a failure.
		_ = s.frontend.Delete(ctx, s.chatID, msgID)
		slog.Info("session cancelled", "chat", s.chatID)
	case StateFailed:
		_ = s.frontend.Edit(ctx, s.chatID, msgID, genericFailureReply)
		slog.Error("session failed", "chat", s.chatID, "error", out.Err)
	}
}

// keepalive refreshes the typing indicator until the session tears down.
// Failures are ignored; the indicator is cosmetic.
func (s *Session) keepalive(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.Keepalive)
	defer ticker.Stop()
	_ = s.frontend.SendTyping(ctx, s.chatID)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.frontend.SendTyping(ctx, s.chatID)
		}
	}
}
