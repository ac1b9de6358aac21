// Package telegram implements the courier chat frontend on the Telegram
// Bot API: long-polled updates in, messages with an inline cancel button
// out.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	courier "github.com/courier-relay/courier"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	pollTimeout    = 30 // getUpdates long-poll, seconds

	// maxMessageLen is Telegram's hard limit on message text.
	maxMessageLen = 4096

	cancelButtonLabel = "✖ Cancel"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// Client talks to the Telegram Bot API. Implements courier.Frontend.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
	offset  int64

	// progress maps live progress message IDs to their cancel tokens so
	// edits can re-attach the cancel button.
	mu       sync.Mutex
	progress map[string]string
}

// compile-time check
var _ courier.Frontend = (*Client)(nil)

// New creates a Client for the given bot token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:    token,
		baseURL:  defaultBaseURL,
		httpc:    &http.Client{Timeout: (pollTimeout + 10) * time.Second},
		progress: make(map[string]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Poll long-polls getUpdates and converts messages and cancel-button
// presses into inbound events. The channel closes when ctx is cancelled.
func (c *Client) Poll(ctx context.Context) (<-chan courier.Inbound, error) {
	ch := make(chan courier.Inbound, 16)
	go c.pollLoop(ctx, ch)
	return ch, nil
}

func (c *Client) pollLoop(ctx context.Context, ch chan<- courier.Inbound) {
	defer close(ch)
	for ctx.Err() == nil {
		updates, err := call[[]update](ctx, c, "getUpdates", getUpdatesParams{
			Offset:         c.offset,
			Timeout:        pollTimeout,
			AllowedUpdates: []string{"message", "callback_query"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf(" [telegram] poll: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= c.offset {
				c.offset = u.UpdateID + 1
			}
			if in, ok := convertUpdate(u); ok {
				select {
				case ch <- in:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func convertUpdate(u update) (courier.Inbound, bool) {
	switch {
	case u.Message != nil:
		msg := u.Message
		in := courier.Incoming{
			ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
			MessageID: strconv.FormatInt(msg.MessageID, 10),
			Text:      msg.Text,
		}
		if msg.From != nil {
			in.UserID = strconv.FormatInt(msg.From.ID, 10)
		}
		return courier.Inbound{Message: &in}, true
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		act := courier.CancelAction{
			Token:      cb.Data,
			CallbackID: cb.ID,
		}
		if cb.Message != nil {
			act.ChatID = strconv.FormatInt(cb.Message.Chat.ID, 10)
		}
		return courier.Inbound{Cancel: &act}, true
	default:
		return courier.Inbound{}, false
	}
}

// Send sends a plain-text message and returns its ID.
func (c *Client) Send(ctx context.Context, chatID, text string) (string, error) {
	msg, err := call[message](ctx, c, "sendMessage", sendMessageParams{
		ChatID: chatID,
		Text:   clampText(text),
	})
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(msg.MessageID, 10), nil
}

// SendFormatted renders Markdown to Telegram HTML and sends it. If the API
// rejects the rendered HTML, the raw text is sent plain instead.
func (c *Client) SendFormatted(ctx context.Context, chatID, text string) (string, error) {
	msg, err := call[message](ctx, c, "sendMessage", sendMessageParams{
		ChatID:    chatID,
		Text:      clampText(MarkdownToHTML(text)),
		ParseMode: "HTML",
	})
	if err != nil {
		return c.Send(ctx, chatID, text)
	}
	return strconv.FormatInt(msg.MessageID, 10), nil
}

// SendProgress sends the progress placeholder with an inline cancel button
// whose callback data is the session's cancel token.
func (c *Client) SendProgress(ctx context.Context, chatID, text, token string) (string, error) {
	msg, err := call[message](ctx, c, "sendMessage", sendMessageParams{
		ChatID: chatID,
		Text:   clampText(text),
		ReplyMarkup: &inlineKeyboard{
			InlineKeyboard: [][]inlineButton{
				{{Text: cancelButtonLabel, CallbackData: token}},
			},
		},
	})
	if err != nil {
		return "", err
	}
	msgID := strconv.FormatInt(msg.MessageID, 10)
	c.mu.Lock()
	c.progress[msgID] = token
	c.mu.Unlock()
	return msgID, nil
}

func (c *Client) progressToken(msgID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.progress[msgID]
	return token, ok
}

// Edit replaces a message's text. The cancel button is re-sent with each
// progress edit; editMessageText without reply_markup would strip it.
func (c *Client) Edit(ctx context.Context, chatID, msgID, text string) error {
	id, err := strconv.ParseInt(msgID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: edit: bad message id %q: %w", msgID, err)
	}
	params := editMessageParams{
		ChatID:    chatID,
		MessageID: id,
		Text:      clampText(text),
	}
	if token, ok := c.progressToken(msgID); ok {
		params.ReplyMarkup = &inlineKeyboard{
			InlineKeyboard: [][]inlineButton{
				{{Text: cancelButtonLabel, CallbackData: token}},
			},
		}
	}
	_, err = call[json.RawMessage](ctx, c, "editMessageText", params)
	return err
}

// Delete removes a message and forgets its progress token, if any.
func (c *Client) Delete(ctx context.Context, chatID, msgID string) error {
	c.mu.Lock()
	delete(c.progress, msgID)
	c.mu.Unlock()

	id, err := strconv.ParseInt(msgID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: delete: bad message id %q: %w", msgID, err)
	}
	_, err = call[bool](ctx, c, "deleteMessage", deleteMessageParams{
		ChatID:    chatID,
		MessageID: id,
	})
	return err
}

// SendTyping shows the typing indicator for a few seconds.
func (c *Client) SendTyping(ctx context.Context, chatID string) error {
	_, err := call[bool](ctx, c, "sendChatAction", chatActionParams{
		ChatID: chatID,
		Action: "typing",
	})
	return err
}

// AckCancel answers a callback query so the button stops spinning.
func (c *Client) AckCancel(ctx context.Context, callbackID, text string) error {
	_, err := call[bool](ctx, c, "answerCallbackQuery", answerCallbackParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	return err
}

// call POSTs one Bot API method and decodes its result.
func call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var zero T

	body, err := json.Marshal(params)
	if err != nil {
		return zero, fmt.Errorf("telegram: %s: encode: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("telegram: %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return zero, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return zero, fmt.Errorf("telegram: %s: read: %w", method, err)
	}

	var api apiResponse[T]
	if err := json.Unmarshal(data, &api); err != nil {
		return zero, fmt.Errorf("telegram: %s: decode: %w", method, err)
	}
	if !api.OK {
		return zero, &courier.ErrRemote{
			Op:          "telegram: " + method,
			Code:        api.ErrorCode,
			Description: api.Description,
		}
	}
	return api.Result, nil
}

// clampText enforces Telegram's message length limit.
func clampText(s string) string {
	runes := []rune(s)
	if len(runes) <= maxMessageLen {
		return s
	}
	const notice = "… (truncated)"
	return string(runes[:maxMessageLen-len([]rune(notice))]) + notice
}
