// Package courier relays chat messages to a long-running coding agent and
// streams the agent's progress back into the chat.
//
// A relay session starts when a user message arrives: courier posts a
// placeholder message carrying a cancel button, hands the prompt to the
// agent, and then folds the agent's event stream into short status lines
// that are edited into the placeholder. Edits are debounced so the chat
// surface is never hammered; the latest status always wins. When the agent
// finishes, the placeholder is removed and the final reply is delivered.
// Pressing the cancel button aborts exactly that session's run.
//
// # Core building blocks
//
//   - [Classify] maps one agent event to a display-ready status line
//   - [Editor] does debounced, latest-wins editing of the progress message
//   - [Registry] is the cancel-token to abort-callback table
//   - [Session] runs the per-request lifecycle: placeholder, keepalive,
//     streaming, guaranteed teardown
//
// # Collaborator contracts
//
//   - [Frontend] is the chat surface (frontend/telegram, or a fake in tests)
//   - [Runner] is the external agent process (agent/claudecode)
//
// See cmd/courier for a complete wiring.
package courier
