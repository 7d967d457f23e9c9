// Package agent drives the bounded request/execute/respond cycle that turns
// one user input into a final assistant reply, executing any tool calls the
// model requests along the way.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chris/fhirchat/internal/chat"
	"github.com/chris/fhirchat/internal/llm"
	"github.com/chris/fhirchat/internal/mcp"
)

// maxToolRounds caps completion round-trips per user turn. A model and a
// tool can otherwise ping-pong forever without ever producing a plain
// answer; the cap is a safety valve, not a performance tactic.
const maxToolRounds = 10

// WarningIterationLimit is the non-fatal notice emitted when a turn exhausts
// its round budget.
const WarningIterationLimit = "Maximum tool call iterations reached"

// ToolGateway is the slice of the MCP client the loop needs.
type ToolGateway interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// TurnSink receives the observable events of one turn. The CLI prints them;
// the web surface forwards them as websocket envelopes.
type TurnSink interface {
	ToolCall(name string, args map[string]any)
	ToolResult(name, result string)
	ToolError(name string, err error)
	Assistant(content string)
	Warning(content string)
}

// Session owns one conversation and runs turns against a completion client
// and a tool gateway. One turn at a time; not safe for concurrent Turn calls.
type Session struct {
	conv    *chat.Conversation
	client  llm.Client
	gateway ToolGateway
	tools   []llm.Tool
	log     *zap.Logger
}

func NewSession(client llm.Client, gateway ToolGateway, tools []llm.Tool, systemPrompt string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	conv := chat.NewConversation()
	conv.Reset(systemPrompt)
	return &Session{conv: conv, client: client, gateway: gateway, tools: tools, log: log}
}

// History returns the conversation so far.
func (s *Session) History() []chat.Message {
	return s.conv.Snapshot()
}

// Turn runs one user input to completion: it appends the user message, then
// alternates completion requests and tool executions until the model settles
// on a textual answer or the round budget runs out. Tool failures are folded
// back into the conversation as data for the model to react to; only
// completion failures surface as errors, leaving the turn incomplete but the
// history coherent (the user message stays; a retry is just another turn).
func (s *Session) Turn(ctx context.Context, input string, sink TurnSink) error {
	if err := s.conv.Append(chat.Message{Role: chat.RoleUser, Content: input}); err != nil {
		return err
	}

	for iteration := 1; iteration <= maxToolRounds; iteration++ {
		resp, err := s.client.Chat(ctx, s.conv.Snapshot(), s.tools)
		if err != nil {
			return fmt.Errorf("completion request: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			// Final answer.
			if resp.Content != "" {
				if err := s.conv.Append(chat.Message{Role: chat.RoleAssistant, Content: resp.Content}); err != nil {
					return err
				}
				sink.Assistant(resp.Content)
			}
			return nil
		}

		// One assistant message bundles all requested calls; content may be
		// absent when the model had nothing to say alongside them.
		if err := s.conv.Append(chat.Message{
			Role:      chat.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}); err != nil {
			return err
		}

		// Execute in the order the model listed the calls; results are
		// appended in that same order, tagged with the originating call id.
		for _, tc := range resp.ToolCalls {
			content := s.executeToolCall(ctx, tc, sink)
			if err := s.conv.Append(chat.Message{
				Role:       chat.RoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			}); err != nil {
				return err
			}
		}
	}

	s.log.Warn("turn exhausted tool-call iteration budget", zap.Int("rounds", maxToolRounds))
	sink.Warning(WarningIterationLimit)
	return nil
}

// executeToolCall invokes one tool and returns the text to store as the tool
// message. Failures are reported through the sink and returned as an error
// string for the model, never raised.
func (s *Session) executeToolCall(ctx context.Context, tc chat.ToolCall, sink TurnSink) string {
	args := map[string]any{}
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			s.log.Warn("malformed tool arguments", zap.String("tool", tc.Name), zap.Error(err))
			sink.ToolError(tc.Name, err)
			return "Error calling tool: " + err.Error()
		}
	}

	sink.ToolCall(tc.Name, args)

	result, err := s.gateway.CallTool(ctx, tc.Name, args)
	if err != nil {
		s.log.Warn("tool call failed", zap.String("tool", tc.Name), zap.Error(err))
		sink.ToolError(tc.Name, err)
		return "Error calling tool: " + err.Error()
	}

	text := mcp.Normalize(result)
	sink.ToolResult(tc.Name, text)
	return text
}
