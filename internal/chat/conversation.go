package chat

import (
	"errors"
	"fmt"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	// RoleFunction is accepted for backward compatibility with older
	// completion APIs; the tool-calling loop never produces it.
	RoleFunction Role = "function"
)

// ErrInvalidRole is returned by Append for unrecognized roles.
var ErrInvalidRole = errors.New("invalid message role")

// ToolCall is one model-requested tool invocation. Arguments is the raw JSON
// string exactly as the model produced it, replayed verbatim to the
// completion endpoint on later turns.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn-unit in a conversation. Optional fields carry omitempty
// tags so a snapshot marshals to the wire shape without absent fields: an
// assistant message that only requests tool calls serializes without content,
// and a plain text message serializes without tool metadata.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Conversation owns an ordered, append-only sequence of messages. Order is
// load-bearing: the full sequence is replayed to the completion endpoint
// every turn. One writer per conversation; no internal locking.
type Conversation struct {
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Reset clears all history and starts over with a single system message.
func (c *Conversation) Reset(systemText string) {
	c.messages = c.messages[:0]
	c.messages = append(c.messages, Message{Role: RoleSystem, Content: systemText})
}

// Append validates the message role and appends. The conversation is left
// unmodified when the role is not recognized.
func (c *Conversation) Append(m Message) error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	c.messages = append(c.messages, m)
	return nil
}

// Snapshot returns a copy of the message sequence in order. Callers may hold
// the result across later appends without seeing them.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
