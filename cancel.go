package courier

import "sync"

// Registry maps cancel tokens to abort callbacks. One Registry is created
// per process and shared, by reference, between the frontend's callback
// path and session cleanup. Those two race on the same token, so Trigger
// and Unregister tolerate running in either order.
type Registry struct {
	mu      sync.Mutex
	entries map[string]func()
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]func())}
}

// Register stores fn as the abort callback for token, replacing any
// previous entry for the same token.
func (r *Registry) Register(token string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = fn
}

// Trigger invokes the callback registered for token. Unknown or already
// unregistered tokens are a no-op. The entry is not removed: the session
// that registered it owns its removal.
func (r *Registry) Trigger(token string) {
	r.mu.Lock()
	fn := r.entries[token]
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Unregister removes token. No-op when absent, so the cancel path and the
// session's own cleanup can both call it.
func (r *Registry) Unregister(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
}

// Active returns the number of registered tokens.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
