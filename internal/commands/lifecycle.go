package commands

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
)

// Message is a single outbound chat message.
type Message struct {
	Content   string
	Ephemeral bool
}

// Responder is the platform surface for answering one interaction.
type Responder interface {
	Reply(ctx context.Context, msg Message) error
	Defer(ctx context.Context, ephemeral bool) error
	FollowUp(ctx context.Context, msg Message) error
}

type State int

const (
	StateReceived State = iota
	StateAcknowledged
	StateReplied
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAcknowledged:
		return "acknowledged"
	case StateReplied:
		return "replied"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Lifecycle enforces RECEIVED -> (ACKNOWLEDGED | REPLIED) -> followups -> TERMINAL
// over a Responder. Illegal transitions emit nothing and return STATE_CONFLICT.
// A transition only happens once the platform accepted the message.
type Lifecycle struct {
	mu        sync.Mutex
	responder Responder
	state     State
	ephemeral bool
}

func NewLifecycle(responder Responder) *Lifecycle {
	return &Lifecycle{responder: responder}
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reply sends the single immediate response. Only legal before anything else was sent.
func (l *Lifecycle) Reply(ctx context.Context, content string, ephemeral bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReceived {
		return conflict("reply", l.state)
	}
	if err := l.responder.Reply(ctx, Message{Content: content, Ephemeral: ephemeral}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reply")
	}
	l.state = StateReplied
	return nil
}

// Defer acknowledges the interaction so followups can arrive later.
func (l *Lifecycle) Defer(ctx context.Context, ephemeral bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReceived {
		return conflict("defer", l.state)
	}
	if err := l.responder.Defer(ctx, ephemeral); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "defer reply")
	}
	l.state = StateAcknowledged
	l.ephemeral = ephemeral
	return nil
}

// FollowUp sends one more message after Defer. Visibility follows the deferral.
func (l *Lifecycle) FollowUp(ctx context.Context, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateAcknowledged {
		return conflict("followup", l.state)
	}
	if err := l.responder.FollowUp(ctx, Message{Content: content, Ephemeral: l.ephemeral}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send followup")
	}
	return nil
}

// Complete closes the lifecycle; nothing can be sent afterwards.
func (l *Lifecycle) Complete() {
	l.mu.Lock()
	l.state = StateTerminal
	l.mu.Unlock()
}

func conflict(op string, state State) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s not allowed in state %s", op, state))
}
