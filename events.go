package courier

// EventKind tags an [AgentEvent]. The set is closed: runners map anything
// they do not recognize to EventUnknown rather than inventing new kinds.
type EventKind int

const (
	// EventUnknown is the catch-all for records the relay does not recognize.
	EventUnknown EventKind = iota
	// EventAssistant carries the content blocks of one assistant turn.
	EventAssistant
	// EventToolResult signals that a tool invocation finished.
	EventToolResult
	// EventResult is the final record of a run.
	EventResult
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventAssistant:
		return "assistant"
	case EventToolResult:
		return "tool-result"
	case EventResult:
		return "result"
	default:
		return "unknown"
	}
}

// BlockKind tags one content block within an assistant turn.
type BlockKind int

const (
	BlockUnknown BlockKind = iota
	BlockThinking
	BlockText
	BlockToolUse
)

// Block is one content block of an assistant turn.
type Block struct {
	Kind BlockKind
	// Text carries the body of thinking and text blocks.
	Text string
	// Tool is the tool name for tool-use blocks.
	Tool string
	// Input holds the tool-use arguments. May be nil when the wire record
	// carried none or they did not decode.
	Input map[string]any
}

// Result is the final payload of a run.
type Result struct {
	// Text is the agent's final reply.
	Text string
	// IsError reports that the agent itself declared the run failed.
	IsError bool
	// SessionID is the continuity token for resuming the conversation.
	SessionID string
}

// AgentEvent is one record of the agent's output stream. Events are
// ephemeral: they are classified on arrival and not retained.
type AgentEvent struct {
	Kind EventKind
	// Blocks is set for EventAssistant.
	Blocks []Block
	// Result is set for EventResult.
	Result *Result
}
