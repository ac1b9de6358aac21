package courier

// Incoming is a user message received from the chat frontend.
type Incoming struct {
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// CancelAction is a cancel-button press relayed by the frontend. Token is
// the opaque value embedded in the button when the placeholder was sent;
// CallbackID identifies the press so the frontend can acknowledge it.
type CancelAction struct {
	ChatID     string `json:"chat_id"`
	Token      string `json:"token"`
	CallbackID string `json:"callback_id"`
}

// Inbound is one occurrence delivered by [Frontend.Poll]: either a user
// message or a cancel action. Exactly one field is non-nil.
type Inbound struct {
	Message *Incoming
	Cancel  *CancelAction
}
