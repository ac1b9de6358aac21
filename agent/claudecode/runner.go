package claudecode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	courier "github.com/courier-relay/courier"
)

// Runner drives the Claude Code CLI as the external agent task.
// Implements courier.Runner.
type Runner struct {
	cfg config
}

// compile-time check
var _ courier.Runner = (*Runner)(nil)

// New creates a Runner for the claude CLI.
func New(opts ...Option) *Runner {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Runner{cfg: cfg}
}

// Run spawns one CLI invocation and streams its stream-json output as
// agent events. The channel closes after the final result record, or after
// the process dies; a run that produced no result record yields a
// synthesized error result so the session always sees a terminal event.
//
// Cancelling ctx kills the subprocess; the relay treats that run as
// cancelled via its own context, not via anything emitted here.
func (r *Runner) Run(ctx context.Context, req courier.Request) (<-chan courier.AgentEvent, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("claudecode: empty prompt")
	}

	args := []string{"-p", req.Prompt, "--output-format", "stream-json", "--verbose"}
	if req.SessionID != "" {
		args = append(args, "--resume", req.SessionID)
	}
	args = append(args, r.cfg.args...)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.timeout)

	cmd := exec.CommandContext(runCtx, r.cfg.command, args...)
	cmd.Dir = r.cfg.workdir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("claudecode: stdout pipe: %w", err)
	}
	stderr := &cappedWriter{max: 4 * 1024}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("claudecode: start %s: %w", r.cfg.command, err)
	}

	events := make(chan courier.AgentEvent, 16)
	go func() {
		defer close(events)
		defer cancel()
		r.pump(runCtx, cmd, stdout, stderr, events)
	}()
	return events, nil
}

// pump reads NDJSON records off stdout and relays the decoded events.
func (r *Runner) pump(ctx context.Context, cmd *exec.Cmd, stdout io.Reader, stderr *cappedWriter, events chan<- courier.AgentEvent) {
	sawResult := false

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), r.cfg.maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, ok := decodeLine(line)
		if !ok {
			// Wire noise is skipped, never fatal.
			continue
		}
		if ev.Kind == courier.EventResult {
			sawResult = true
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			// Run aborted; drop the event but keep reading so the process
			// can drain and exit.
		}
	}

	waitErr := cmd.Wait()
	if sawResult || ctx.Err() != nil {
		return
	}

	// The process died without a result record. Surface what we know as an
	// error result so the session reaches a terminal state.
	msg := strings.TrimSpace(stderr.String())
	if msg == "" && waitErr != nil {
		msg = waitErr.Error()
	}
	if msg == "" {
		msg = "agent exited without a result"
	}
	select {
	case events <- courier.AgentEvent{
		Kind:   courier.EventResult,
		Result: &courier.Result{IsError: true, Text: msg},
	}:
	case <-ctx.Done():
	}
}

// cappedWriter keeps the first max bytes written and drops the rest.
type cappedWriter struct {
	buf strings.Builder
	max int
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if room := w.max - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

func (w *cappedWriter) String() string { return w.buf.String() }
