// Package web exposes the chat over HTTP: a tool roster endpoint and a
// websocket channel that runs one conversation per connection.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chris/fhirchat/internal/llm"
	"github.com/chris/fhirchat/internal/mcp"
)

// ToolProvider is the slice of the MCP gateway the server needs. All
// websocket sessions share one provider; its connection is managed by the
// process, not per request.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]mcp.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

type Server struct {
	client       llm.Client
	gateway      ToolProvider
	tools        []llm.Tool
	systemPrompt string
	log          *zap.Logger
	upgrader     websocket.Upgrader
}

func NewServer(client llm.Client, gateway ToolProvider, tools []llm.Tool, systemPrompt string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		client:       client,
		gateway:      gateway,
		tools:        tools,
		systemPrompt: systemPrompt,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/tools", s.handleTools)
	router.GET("/ws", s.handleSocket)

	return router
}

func (s *Server) handleTools(c *gin.Context) {
	tools, err := s.gateway.ListTools(c.Request.Context())
	if err != nil {
		s.log.Error("listing tools", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}
