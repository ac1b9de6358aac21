package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	courier "github.com/courier-relay/courier"
	"github.com/courier-relay/courier/agent/claudecode"
	"github.com/courier-relay/courier/frontend/telegram"
	"github.com/courier-relay/courier/internal/bot"
	"github.com/courier-relay/courier/internal/config"
	"github.com/courier-relay/courier/observer"
)

func main() {
	// 1. Load config
	cfg := config.Load(os.Getenv("COURIER_CONFIG"))
	if cfg.Telegram.Token == "" {
		log.Fatal("telegram token not configured (courier.toml or COURIER_TELEGRAM_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Observability (optional)
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			log.Fatalf("observer init: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf(" [observer] shutdown: %v", err)
			}
		}()
	}

	// 3. Collaborators
	frontend := telegram.New(cfg.Telegram.Token)
	runner := claudecode.New(
		claudecode.WithCommand(cfg.Agent.Command),
		claudecode.WithWorkdir(cfg.Agent.Workdir),
		claudecode.WithTimeout(cfg.AgentTimeout()),
		claudecode.WithExtraArgs(cfg.Agent.ExtraArgs...),
	)
	registry := courier.NewRegistry()

	// 4. App
	app := bot.New(&cfg, bot.Deps{
		Frontend: frontend,
		Runner:   runner,
		Registry: registry,
		Observer: inst,
	})

	log.Println(" [main] courier starting")
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("run: %v", err)
	}
	log.Println(" [main] bye")
}
