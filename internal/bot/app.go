// Package bot wires the courier building blocks into a running Telegram
// relay: poll loop, routing, per-chat sessions, continuity tokens.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"

	courier "github.com/courier-relay/courier"
	"github.com/courier-relay/courier/internal/config"
	"github.com/courier-relay/courier/observer"
)

// Deps holds injected dependencies for the App.
type Deps struct {
	Frontend courier.Frontend
	Runner   courier.Runner
	Registry *courier.Registry
	Observer *observer.Instruments // nil disables instrumentation
}

// App is the relay application.
type App struct {
	frontend courier.Frontend
	runner   courier.Runner
	registry *courier.Registry
	obs      *observer.Instruments
	config   *config.Config

	mu         sync.Mutex
	busy       map[string]bool   // chatID -> session in flight
	continuity map[string]string // chatID -> last agent session id
}

// New creates the relay App.
func New(cfg *config.Config, deps Deps) *App {
	return &App{
		frontend:   deps.Frontend,
		runner:     deps.Runner,
		registry:   deps.Registry,
		obs:        deps.Observer,
		config:     cfg,
		busy:       make(map[string]bool),
		continuity: make(map[string]string),
	}
}

// Run polls the frontend and routes inbound events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	events, err := a.frontend.Poll(ctx)
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	log.Println(" [bot] polling for messages")

	for in := range events {
		a.route(ctx, in)
	}
	log.Println(" [bot] poll stream closed, shutting down")
	return ctx.Err()
}

// tryAcquire marks chatID busy. Returns false if a session is in flight.
func (a *App) tryAcquire(chatID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy[chatID] {
		return false
	}
	a.busy[chatID] = true
	return true
}

func (a *App) release(chatID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.busy, chatID)
}

func (a *App) continuityToken(chatID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.continuity[chatID]
}

func (a *App) setContinuity(chatID, sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sessionID == "" {
		delete(a.continuity, chatID)
		return
	}
	a.continuity[chatID] = sessionID
}
