package claudecode

import (
	"encoding/json"

	courier "github.com/courier-relay/courier"
)

// wireRecord mirrors one line of the CLI's stream-json output. Only the
// fields the relay reads are modeled; everything else is ignored.
type wireRecord struct {
	Type    string       `json:"type"`
	Subtype string       `json:"subtype"`
	Message *wireMessage `json:"message"`

	// Result records.
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
	SessionID string `json:"session_id"`
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

type wireBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

// decodeLine converts one NDJSON line into an agent event. Lines that are
// not JSON objects are reported as not-ok; recognized record types with
// unusable payloads degrade to EventUnknown, which classifies to nothing.
func decodeLine(line []byte) (courier.AgentEvent, bool) {
	var rec wireRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return courier.AgentEvent{}, false
	}

	switch rec.Type {
	case "assistant":
		if rec.Message == nil || len(rec.Message.Content) == 0 {
			return courier.AgentEvent{Kind: courier.EventUnknown}, true
		}
		blocks := make([]courier.Block, 0, len(rec.Message.Content))
		for _, b := range rec.Message.Content {
			blocks = append(blocks, decodeBlock(b))
		}
		return courier.AgentEvent{Kind: courier.EventAssistant, Blocks: blocks}, true

	case "user":
		// Tool results come back to the agent as user-role records.
		return courier.AgentEvent{Kind: courier.EventToolResult}, true

	case "result":
		return courier.AgentEvent{
			Kind: courier.EventResult,
			Result: &courier.Result{
				Text:      rec.Result,
				IsError:   rec.IsError,
				SessionID: rec.SessionID,
			},
		}, true

	default:
		// System/init records and future kinds: keep the stream flowing,
		// classify to nothing.
		return courier.AgentEvent{Kind: courier.EventUnknown}, true
	}
}

func decodeBlock(b wireBlock) courier.Block {
	switch b.Type {
	case "thinking":
		text := b.Thinking
		if text == "" {
			text = b.Text
		}
		return courier.Block{Kind: courier.BlockThinking, Text: text}
	case "text":
		return courier.Block{Kind: courier.BlockText, Text: b.Text}
	case "tool_use":
		var input map[string]any
		if len(b.Input) > 0 {
			// Best effort: a malformed input map just means no summary.
			_ = json.Unmarshal(b.Input, &input)
		}
		return courier.Block{Kind: courier.BlockToolUse, Tool: b.Name, Input: input}
	default:
		return courier.Block{Kind: courier.BlockUnknown}
	}
}
