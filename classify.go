package courier

import (
	"sort"
	"strings"
)

// Display markers for the progress line.
const (
	markerThinking = "💭"
	markerTool     = "🔧"
	markerWriting  = "✍️"
	markerWorking  = "⚙️"
)

const (
	thinkingPreviewLen = 150
	textPreviewLen     = 180
	summaryMaxLen      = 80
	fallbackFieldLen   = 60
)

// Update is a classified, display-ready progress line. A newer Update for
// the same session replaces any pending one; updates are never queued.
type Update struct {
	Text string
}

// Classify maps one agent event to a progress line. The second return is
// false when the event produces nothing displayable. Within an assistant
// turn the first matching signal wins: thinking beats tool use beats text.
// Malformed or unrecognized events degrade to no update; Classify never
// panics.
func Classify(ev AgentEvent) (Update, bool) {
	switch ev.Kind {
	case EventAssistant:
		return classifyAssistant(ev.Blocks)
	case EventToolResult, EventResult:
		return Update{Text: markerWorking + " Processing results…"}, true
	case EventUnknown:
		return Update{}, false
	default:
		return Update{}, false
	}
}

func classifyAssistant(blocks []Block) (Update, bool) {
	for _, b := range blocks {
		if b.Kind == BlockThinking && strings.TrimSpace(b.Text) != "" {
			return Update{Text: markerThinking + " " + thinkingPreview(b.Text)}, true
		}
	}

	// Several tool calls can arrive in one turn; the last one is what the
	// agent is doing now.
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Kind == BlockToolUse && blocks[i].Tool != "" {
			return Update{Text: markerTool + " " + toolLine(blocks[i])}, true
		}
	}

	var sb strings.Builder
	for _, b := range blocks {
		if b.Kind == BlockText {
			sb.WriteString(b.Text)
		}
	}
	if text := strings.TrimSpace(sb.String()); text != "" {
		return Update{Text: markerWriting + " " + truncate(collapse(text), textPreviewLen)}, true
	}
	return Update{}, false
}

// thinkingPreview returns the tail of the thinking text, starting at a line
// boundary so the preview never opens mid-sentence from a previous line.
func thinkingPreview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > thinkingPreviewLen {
		text = string(runes[len(runes)-thinkingPreviewLen:])
		if i := strings.IndexByte(text, '\n'); i >= 0 && i+1 < len(text) {
			text = text[i+1:]
		}
	}
	return strings.TrimSpace(collapse(text))
}

// toolLine renders a tool-use block as "<tool> <summary>", falling back to
// "<tool> is running" when no summary can be derived from the input.
func toolLine(b Block) string {
	name := displayToolName(b.Tool)
	if sum := inputSummary(b.Input); sum != "" {
		return name + " " + sum
	}
	return name + " is running"
}

// displayToolName strips the MCP namespace prefix (mcp__<server>__) and
// replaces underscores with spaces.
func displayToolName(tool string) string {
	if rest, ok := strings.CutPrefix(tool, "mcp__"); ok {
		if i := strings.Index(rest, "__"); i >= 0 {
			tool = rest[i+2:]
		}
	}
	return strings.ReplaceAll(tool, "_", " ")
}

// summaryFields are probed in order; the first present, non-empty string
// value becomes the tool summary.
var summaryFields = []string{
	"query",
	"content",
	"message",
	"page_id",
	"channel_id",
	"thread_id",
	"channel",
	"file_path",
	"path",
	"command",
}

func inputSummary(input map[string]any) string {
	for _, key := range summaryFields {
		if s, ok := input[key].(string); ok && strings.TrimSpace(s) != "" {
			return truncate(collapse(s), summaryMaxLen)
		}
	}

	// No known field: take the first string-valued one, in stable order.
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := input[k].(string); ok && strings.TrimSpace(s) != "" {
			return truncate(collapse(s), fallbackFieldLen)
		}
	}
	return ""
}

// collapse flattens whitespace runs so a status line stays a single line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to max runes, appending an ellipsis when it was longer.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
