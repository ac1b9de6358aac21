package courier

import "context"

// Frontend abstracts the chat surface (Telegram, or a fake in tests).
//
// Edit, Delete, and SendTyping are best effort from the caller's point of
// view: the target message may have been deleted externally, and progress
// display must survive that.
type Frontend interface {
	// Poll returns a channel of inbound events. The channel closes when ctx
	// is cancelled.
	Poll(ctx context.Context) (<-chan Inbound, error)
	// Send sends a plain-text message, returns the message ID for later editing.
	Send(ctx context.Context, chatID string, text string) (string, error)
	// SendFormatted sends a message with rich formatting (Markdown source).
	SendFormatted(ctx context.Context, chatID string, text string) (string, error)
	// SendProgress sends a progress placeholder carrying a cancel button
	// bound to token. Returns the message ID.
	SendProgress(ctx context.Context, chatID string, text string, token string) (string, error)
	// Edit replaces the text of an existing message.
	Edit(ctx context.Context, chatID string, msgID string, text string) error
	// Delete removes a message.
	Delete(ctx context.Context, chatID string, msgID string) error
	// SendTyping shows a typing indicator.
	SendTyping(ctx context.Context, chatID string) error
	// AckCancel acknowledges a cancel-button press with a short notice.
	AckCancel(ctx context.Context, callbackID string, text string) error
}
