package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chris/fhirchat/config"
	"github.com/chris/fhirchat/internal/llm"
	"github.com/chris/fhirchat/internal/logging"
	"github.com/chris/fhirchat/internal/mcp"
	"github.com/chris/fhirchat/internal/web"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Endpoint:    cfg.APIEndpoint,
		APIVersion:  cfg.APIVersion,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		logger.Fatal("creating LLM client", zap.Error(err))
	}

	gateway, err := mcp.NewClient(mcp.Config{
		ServerURL: cfg.MCPServerURL,
		Transport: cfg.MCPTransport,
		Timeout:   cfg.MCPTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("creating MCP client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("connecting to Aidbox MCP server", zap.String("url", cfg.MCPServerURL))
	if err := gateway.Connect(ctx); err != nil {
		logger.Error("failed to connect to Aidbox MCP server, make sure it is running", zap.String("url", cfg.MCPServerURL), zap.Error(err))
		os.Exit(1)
	}
	defer gateway.Disconnect()

	descriptors, err := gateway.ListTools(ctx)
	if err != nil {
		logger.Error("listing tools", zap.Error(err))
		gateway.Disconnect()
		os.Exit(1)
	}
	tools := mcp.ToFunctions(descriptors)

	logger.Info("loaded FHIR tools from Aidbox MCP server", zap.Int("count", len(descriptors)))
	for _, d := range descriptors {
		logger.Info("available tool", zap.String("name", d.Name), zap.String("description", d.Description))
	}

	server := web.NewServer(client, gateway, tools, cfg.SystemPrompt, logger)
	httpServer := &http.Server{
		Addr:    cfg.WebAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("web server listening", zap.String("addr", cfg.WebAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("web server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
