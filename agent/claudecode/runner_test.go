package claudecode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	courier "github.com/courier-relay/courier"
)

// fakeCLI writes a shell script that stands in for the claude binary.
func fakeCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	path := filepath.Join(t.TempDir(), "claude")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func drain(t *testing.T, events <-chan courier.AgentEvent) []courier.AgentEvent {
	t.Helper()
	var out []courier.AgentEvent
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatal("event stream never closed")
		}
	}
}

func TestRunner_StreamsEvents(t *testing.T) {
	cli := fakeCLI(t, `
echo '{"type":"system","subtype":"init"}'
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]}}'
echo '{"type":"result","result":"done","session_id":"s-9"}'
`)
	r := New(WithCommand(cli))
	events, err := r.Run(context.Background(), courier.Request{Prompt: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, events)
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3: %+v", len(got), got)
	}
	last := got[len(got)-1]
	if last.Kind != courier.EventResult || last.Result == nil || last.Result.SessionID != "s-9" {
		t.Errorf("final event = %+v, want the result record", last)
	}
}

func TestRunner_SkipsWireNoise(t *testing.T) {
	cli := fakeCLI(t, `
echo 'warming up...'
echo '{"type":"result","result":"ok"}'
`)
	r := New(WithCommand(cli))
	events, err := r.Run(context.Background(), courier.Request{Prompt: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, events)
	if len(got) != 1 || got[0].Kind != courier.EventResult {
		t.Errorf("events = %+v, want just the result", got)
	}
}

func TestRunner_SynthesizesResultOnCrash(t *testing.T) {
	cli := fakeCLI(t, `
echo 'credit balance too low' >&2
exit 1
`)
	r := New(WithCommand(cli))
	events, err := r.Run(context.Background(), courier.Request{Prompt: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, events)
	if len(got) != 1 {
		t.Fatalf("events = %+v, want one synthesized result", got)
	}
	res := got[0].Result
	if got[0].Kind != courier.EventResult || res == nil || !res.IsError {
		t.Fatalf("event = %+v, want an error result", got[0])
	}
	if !strings.Contains(res.Text, "credit balance too low") {
		t.Errorf("result text = %q, want stderr content", res.Text)
	}
}

func TestRunner_CancelKillsProcess(t *testing.T) {
	cli := fakeCLI(t, `
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"working"}]}}'
exec sleep 60
`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(WithCommand(cli))
	events, err := r.Run(ctx, courier.Request{Prompt: "hello"})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-events:
	case <-time.After(10 * time.Second):
		t.Fatal("no first event")
	}
	cancel()

	got := drain(t, events)
	for _, ev := range got {
		if ev.Kind == courier.EventResult {
			t.Errorf("got result %+v after cancel, want none", ev.Result)
		}
	}
}

func TestRunner_ResumePassesSessionID(t *testing.T) {
	cli := fakeCLI(t, `
for a in "$@"; do
  if [ "$seen" = "1" ]; then echo "{\"type\":\"result\",\"result\":\"$a\"}"; exit 0; fi
  if [ "$a" = "--resume" ]; then seen=1; fi
done
exit 1
`)
	r := New(WithCommand(cli))
	events, err := r.Run(context.Background(), courier.Request{Prompt: "hello", SessionID: "s-42"})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, events)
	if len(got) != 1 || got[0].Result == nil || got[0].Result.Text != "s-42" {
		t.Fatalf("events = %+v, want the echoed session id", got)
	}
}

func TestRunner_RejectsEmptyPrompt(t *testing.T) {
	r := New()
	if _, err := r.Run(context.Background(), courier.Request{Prompt: "   "}); err == nil {
		t.Fatal("expected error for blank prompt")
	}
}
