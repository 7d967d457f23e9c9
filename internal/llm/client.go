package llm

import (
	"context"

	"github.com/chris/fhirchat/internal/chat"
)

// Tool is a function schema advertised to the completion endpoint.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Response is one completion outcome. Zero ToolCalls means the model produced
// a final textual answer; otherwise Content (possibly empty) accompanies the
// requested invocations.
type Response struct {
	Content   string
	ToolCalls []chat.ToolCall
}

// Client sends a conversation snapshot plus available tool schemas to a
// completion endpoint. Implementations hold no conversation state; the
// caller owns the history.
type Client interface {
	Chat(ctx context.Context, messages []chat.Message, tools []Tool) (*Response, error)
}
