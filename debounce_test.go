package courier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// commitRecorder collects committed texts and their commit times.
type commitRecorder struct {
	mu    sync.Mutex
	texts []string
	times []time.Time
	err   error
}

func (r *commitRecorder) commit(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	r.times = append(r.times, time.Now())
	return r.err
}

func (r *commitRecorder) committed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *commitRecorder) committedAt() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.times...)
}

func TestEditor_FirstUpdateCommitsImmediately(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(time.Second, rec.commit)
	defer e.Close()

	e.Update(context.Background(), "A")

	got := rec.committed()
	if len(got) != 1 || got[0] != "A" {
		t.Fatalf("got %v, want [A]", got)
	}
}

func TestEditor_BurstCoalescesToLastText(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(200*time.Millisecond, rec.commit)
	defer e.Close()

	// A at t=0 commits immediately; B and C land inside the window and
	// only C survives as the trailing commit.
	e.Update(context.Background(), "A")
	time.Sleep(50 * time.Millisecond)
	e.Update(context.Background(), "B")
	time.Sleep(40 * time.Millisecond)
	e.Update(context.Background(), "C")

	time.Sleep(250 * time.Millisecond)

	got := rec.committed()
	if len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Fatalf("got %v, want [A C]", got)
	}
}

func TestEditor_QuietPeriodCommitsImmediately(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(50*time.Millisecond, rec.commit)
	defer e.Close()

	e.Update(context.Background(), "A")
	time.Sleep(80 * time.Millisecond)
	e.Update(context.Background(), "B")

	got := rec.committed()
	if len(got) != 2 || got[1] != "B" {
		t.Fatalf("got %v, want immediate second commit of B", got)
	}
}

func TestEditor_CloseCancelsPendingCommit(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(100*time.Millisecond, rec.commit)

	e.Update(context.Background(), "A")
	e.Update(context.Background(), "B") // parked
	e.Close()

	time.Sleep(150 * time.Millisecond)

	got := rec.committed()
	if len(got) != 1 || got[0] != "A" {
		t.Fatalf("got %v, want only [A] after Close", got)
	}
}

func TestEditor_UpdateAfterCloseIsNoop(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(50*time.Millisecond, rec.commit)
	e.Close()

	e.Update(context.Background(), "A")
	if got := rec.committed(); len(got) != 0 {
		t.Fatalf("got %v, want no commits", got)
	}
}

func TestEditor_CloseIsIdempotent(t *testing.T) {
	e := NewEditor(50*time.Millisecond, (&commitRecorder{}).commit)
	e.Close()
	e.Close()
}

func TestEditor_CommitErrorsAreSwallowed(t *testing.T) {
	rec := &commitRecorder{err: errors.New("message gone")}
	e := NewEditor(time.Second, rec.commit)
	defer e.Close()

	e.Update(context.Background(), "A")
	if e.Commits() != 1 {
		t.Fatalf("got %d commits, want 1", e.Commits())
	}
}

func TestEditor_ImmediateCommitDiscardsStaleTimer(t *testing.T) {
	const interval = 100 * time.Millisecond
	rec := &commitRecorder{}
	e := NewEditor(interval, rec.commit)
	defer e.Close()

	e.Update(context.Background(), "A") // immediate
	e.Update(context.Background(), "B") // parked, trailing timer scheduled

	// Reopen the immediate path while B's timer is still live. The commit
	// of C resets the spacing window, so that timer must not survive to
	// fire the next parked text early.
	e.mu.Lock()
	e.lastCommit = time.Now().Add(-interval)
	e.mu.Unlock()

	e.Update(context.Background(), "C") // immediate, supersedes B
	e.Update(context.Background(), "D") // parked behind C

	time.Sleep(interval + 100*time.Millisecond)

	got := rec.committed()
	if len(got) != 3 || got[0] != "A" || got[1] != "C" || got[2] != "D" {
		t.Fatalf("got %v, want [A C D]", got)
	}
	at := rec.committedAt()
	if gap := at[2].Sub(at[1]); gap < interval-time.Millisecond {
		t.Errorf("D committed %v after C, want at least %v apart", gap, interval)
	}
}

func TestEditor_PendingOverwriteNeverQueues(t *testing.T) {
	rec := &commitRecorder{}
	e := NewEditor(150*time.Millisecond, rec.commit)
	defer e.Close()

	e.Update(context.Background(), "A")
	for _, text := range []string{"B", "C", "D", "E"} {
		e.Update(context.Background(), text)
	}
	time.Sleep(200 * time.Millisecond)

	got := rec.committed()
	if len(got) != 2 || got[1] != "E" {
		t.Fatalf("got %v, want [A E]", got)
	}
}
