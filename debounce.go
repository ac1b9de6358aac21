package courier

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultEditInterval is the minimum spacing between two visible edits of
// the progress message.
const DefaultEditInterval = 2 * time.Second

// CommitFunc applies text to the remote progress message.
type CommitFunc func(ctx context.Context, text string) error

// Editor throttles edits of a single remote message. The message eventually
// reflects the most recent text passed to [Editor.Update], and two visible
// edits are never closer than the configured interval. Superseded pending
// text is overwritten, never queued, so a commit always carries the latest
// classified state.
//
// Commit errors are swallowed: the message may have been deleted out from
// under us, and progress display is best effort.
type Editor struct {
	commit   CommitFunc
	interval time.Duration

	// mu serializes commits against Close: holding it across the commit
	// call is what guarantees no edit lands after Close returns, and that
	// a pending timer and an in-flight commit never coexist.
	mu         sync.Mutex
	lastCommit time.Time
	committed  bool
	pending    string
	hasPending bool
	timer      *time.Timer
	// timerGen invalidates stale timers: a discarded timer whose callback
	// already left AfterFunc cannot be stopped, so the callback checks its
	// generation under mu instead.
	timerGen uint64
	commits  int
	closed   bool
}

// NewEditor returns an Editor committing through fn at most once per
// interval. A non-positive interval selects [DefaultEditInterval].
func NewEditor(interval time.Duration, fn CommitFunc) *Editor {
	if interval <= 0 {
		interval = DefaultEditInterval
	}
	return &Editor{commit: fn, interval: interval}
}

// Update records text as the latest desired content of the message. If the
// interval since the last commit has elapsed (or nothing was committed
// yet) the text is committed immediately; otherwise it is parked as the
// pending text and a single trailing timer commits whatever is pending
// when the interval expires.
func (e *Editor) Update(ctx context.Context, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	now := time.Now()
	if !e.committed || now.Sub(e.lastCommit) >= e.interval {
		// A trailing timer may still be scheduled (or expired but not yet
		// in its callback); committing here resets the spacing window, so
		// discard it or the stale timer would commit the next parked text
		// early.
		e.discardTimer()
		e.pending = ""
		e.hasPending = false
		e.apply(ctx, text)
		return
	}

	e.pending = text
	e.hasPending = true
	if e.timer == nil {
		gen := e.timerGen
		e.timer = time.AfterFunc(e.interval-now.Sub(e.lastCommit), func() { e.fire(gen) })
	}
}

// discardTimer invalidates the scheduled trailing timer, if any. Stop
// alone is not enough: an expired timer's callback may already be blocked
// on mu, and must then see a bumped generation and give up.
func (e *Editor) discardTimer() {
	if e.timer == nil {
		return
	}
	e.timer.Stop()
	e.timer = nil
	e.timerGen++
}

// fire runs on the trailing timer and commits the pending text, unless
// Close or a fresh immediate commit discarded this timer in the meantime.
func (e *Editor) fire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.timerGen {
		return
	}
	e.timer = nil
	if !e.hasPending {
		return
	}
	text := e.pending
	e.pending = ""
	e.hasPending = false
	e.apply(context.Background(), text)
}

// apply commits while holding mu.
func (e *Editor) apply(ctx context.Context, text string) {
	e.lastCommit = time.Now()
	e.committed = true
	e.commits++
	if err := e.commit(ctx, text); err != nil {
		slog.Debug("progress edit dropped", "error", err)
	}
}

// Commits returns the number of visible edits so far.
func (e *Editor) Commits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commits
}

// Close cancels any pending edit. No commit happens after Close returns,
// even if the trailing timer fires concurrently. Safe to call more than
// once.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.pending = ""
	e.hasPending = false
	e.discardTimer()
}
