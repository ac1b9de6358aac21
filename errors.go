package courier

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a run aborted through its cancel token. It is a
// designated non-error outcome: sessions ending with it send no reply and
// report no failure.
var ErrCancelled = errors.New("run cancelled")

// ErrAgent is a failure reported by the agent process itself.
type ErrAgent struct {
	Message string
}

func (e *ErrAgent) Error() string {
	return fmt.Sprintf("agent: %s", e.Message)
}

// ErrRemote is a chat-surface API rejection.
type ErrRemote struct {
	Op          string
	Code        int
	Description string
}

func (e *ErrRemote) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Description, e.Code)
}
