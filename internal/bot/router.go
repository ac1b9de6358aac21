package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	courier "github.com/courier-relay/courier"
)

// route handles one inbound event from the frontend.
func (a *App) route(ctx context.Context, in courier.Inbound) {
	switch {
	case in.Cancel != nil:
		a.handleCancel(ctx, in.Cancel)
	case in.Message != nil:
		a.handleMessage(ctx, in.Message)
	}
}

// handleCancel fires the abort callback registered under the button's
// token. A press for a session that already finished hits an unregistered
// token and is a no-op.
func (a *App) handleCancel(ctx context.Context, act *courier.CancelAction) {
	log.Printf(" [cancel] chat=%s token=%s", act.ChatID, act.Token)
	a.obs.RecordCancel(ctx, act.ChatID)
	a.registry.Trigger(act.Token)
	_ = a.frontend.AckCancel(ctx, act.CallbackID, "Cancelling…")
}

func (a *App) handleMessage(ctx context.Context, msg *courier.Incoming) {
	log.Printf(" [recv] from=%s chat=%s", msg.UserID, msg.ChatID)

	if allowed := a.config.Telegram.AllowedUserID; allowed != "" && msg.UserID != allowed {
		log.Printf(" [auth] DENIED user=%s", msg.UserID)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch text {
	case "/new":
		a.setContinuity(msg.ChatID, "")
		_, _ = a.frontend.Send(ctx, msg.ChatID, "Starting a fresh conversation.")
		log.Println(" [cmd] /new")
		return
	case "/status":
		_, _ = a.frontend.Send(ctx, msg.ChatID, a.statusLine())
		log.Println(" [cmd] /status")
		return
	}

	if !a.tryAcquire(msg.ChatID) {
		_, _ = a.frontend.Send(ctx, msg.ChatID,
			"Still working on the previous request. Cancel it or wait for it to finish.")
		return
	}

	go a.runSession(ctx, msg.ChatID, sanitizeText(text))
}

// runSession relays one request end to end on its own goroutine.
func (a *App) runSession(ctx context.Context, chatID, prompt string) {
	defer a.release(chatID)

	sess := courier.NewSession(a.frontend, a.runner, a.registry, chatID, courier.SessionConfig{
		EditInterval: a.config.EditInterval(),
		Keepalive:    a.config.Keepalive(),
		Placeholder:  a.config.Progress.Placeholder,
	})

	ctx, span := a.obs.StartSession(ctx, chatID)
	out := sess.Run(ctx, courier.Request{
		Prompt:    prompt,
		SessionID: a.continuityToken(chatID),
	})
	span.End(ctx, out)

	if out.SessionID != "" {
		a.setContinuity(chatID, out.SessionID)
	}
	log.Printf(" [session] chat=%s state=%s updates=%d commits=%d",
		chatID, out.State, out.Updates, out.Commits)
}

func (a *App) statusLine() string {
	a.mu.Lock()
	active := len(a.busy)
	a.mu.Unlock()
	if active == 0 {
		return "Idle. No active sessions."
	}
	return fmt.Sprintf("%d active session(s), %d cancel token(s) registered.",
		active, a.registry.Active())
}

// sanitizeText normalizes inbound text to NFKC and strips the invisible
// format characters that confuse the agent CLI's argument handling.
func sanitizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}
