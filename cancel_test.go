package courier

import (
	"sync"
	"testing"
)

func TestRegistry_TriggerInvokesCallback(t *testing.T) {
	r := NewRegistry()
	fired := 0
	r.Register("tok", func() { fired++ })

	r.Trigger("tok")
	if fired != 1 {
		t.Fatalf("fired %d times, want 1", fired)
	}

	// The entry stays until the owner unregisters it.
	r.Trigger("tok")
	if fired != 2 {
		t.Fatalf("fired %d times after second trigger, want 2", fired)
	}
}

func TestRegistry_TriggerUnknownTokenIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Trigger("missing") // must not panic
}

func TestRegistry_UnregisterThenTriggerNeverFires(t *testing.T) {
	r := NewRegistry()
	fired := false
	r.Register("tok", func() { fired = true })
	r.Unregister("tok")
	r.Trigger("tok")
	if fired {
		t.Fatal("stale callback fired after unregister")
	}
}

func TestRegistry_DoubleUnregisterIsSafe(t *testing.T) {
	r := NewRegistry()
	r.Register("tok", func() {})
	r.Unregister("tok")
	r.Unregister("tok")
	if r.Active() != 0 {
		t.Fatalf("active = %d, want 0", r.Active())
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	var first, second bool
	r.Register("tok", func() { first = true })
	r.Register("tok", func() { second = true })
	r.Trigger("tok")
	if first || !second {
		t.Fatalf("first=%v second=%v, want only the replacement to fire", first, second)
	}
}

func TestRegistry_ConcurrentTriggerAndUnregister(t *testing.T) {
	r := NewRegistry()
	var fired sync.WaitGroup
	for i := 0; i < 100; i++ {
		token := NewCancelToken()
		r.Register(token, func() {})

		fired.Add(2)
		go func() {
			defer fired.Done()
			r.Trigger(token)
		}()
		go func() {
			defer fired.Done()
			r.Unregister(token)
		}()
	}
	fired.Wait()
	if r.Active() != 0 {
		t.Fatalf("active = %d, want 0", r.Active())
	}
}
