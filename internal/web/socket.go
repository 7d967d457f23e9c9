package web

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chris/fhirchat/internal/agent"
)

// inbound is the only client-to-server envelope.
type inbound struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// envelope is the server-to-client wire format. One struct covers all event
// types; omitempty keeps each frame down to its own fields.
type envelope struct {
	Type      string         `json:"type"`
	Content   string         `json:"content,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (s *Server) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.log.With(zap.String("connection", id))
	log.Info("websocket connected")

	// Fresh conversation per connection; the gateway is shared.
	session := agent.NewSession(s.client, s.gateway, s.tools, s.systemPrompt, log)
	sink := &socketSink{conn: conn, log: log}

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", zap.Error(err))
			} else {
				log.Info("websocket disconnected")
			}
			return
		}

		if msg.Type != "message" {
			continue
		}
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		if err := session.Turn(c.Request.Context(), content, sink); err != nil {
			log.Error("turn failed", zap.Error(err))
			sink.send(envelope{Type: "error", Content: err.Error()})
		}
	}
}

// socketSink forwards turn events as websocket envelopes. Turns run in the
// read loop's goroutine, so writes are never concurrent.
type socketSink struct {
	conn *websocket.Conn
	log  *zap.Logger
}

func (s *socketSink) send(e envelope) {
	if err := s.conn.WriteJSON(e); err != nil {
		s.log.Warn("websocket write failed", zap.String("type", e.Type), zap.Error(err))
	}
}

func (s *socketSink) ToolCall(name string, args map[string]any) {
	s.send(envelope{Type: "tool_call", ToolName: name, Arguments: args})
}

func (s *socketSink) ToolResult(name, result string) {
	s.send(envelope{Type: "tool_result", ToolName: name, Result: result})
}

func (s *socketSink) ToolError(name string, err error) {
	s.send(envelope{Type: "tool_error", ToolName: name, Error: "Error calling tool: " + err.Error()})
}

func (s *socketSink) Assistant(content string) {
	s.send(envelope{Type: "assistant", Content: content})
}

func (s *socketSink) Warning(content string) {
	s.send(envelope{Type: "warning", Content: content})
}
