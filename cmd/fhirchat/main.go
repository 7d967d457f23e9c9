package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/chris/fhirchat/config"
	"github.com/chris/fhirchat/internal/agent"
	"github.com/chris/fhirchat/internal/llm"
	"github.com/chris/fhirchat/internal/logging"
	"github.com/chris/fhirchat/internal/mcp"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Endpoint:    cfg.APIEndpoint,
		APIVersion:  cfg.APIVersion,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gateway, err := mcp.NewClient(mcp.Config{
		ServerURL: cfg.MCPServerURL,
		Transport: cfg.MCPTransport,
		Timeout:   cfg.MCPTimeout,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Connecting to Aidbox MCP server...")
	if err := gateway.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Aidbox MCP server: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure the MCP server is running at %s\n", cfg.MCPServerURL)
		os.Exit(1)
	}
	defer gateway.Disconnect()

	descriptors, err := gateway.ListTools(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		gateway.Disconnect()
		os.Exit(1)
	}
	tools := mcp.ToFunctions(descriptors)

	fmt.Printf("Connected! Loaded %d FHIR tools from Aidbox MCP server.\n\n", len(descriptors))
	fmt.Println("Available tools:")
	for _, d := range descriptors {
		desc := d.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Printf("  - %s: %s\n", d.Name, desc)
	}

	session := agent.NewSession(client, gateway, tools, cfg.SystemPrompt, logger)
	runCLI(ctx, session)
}

func runCLI(ctx context.Context, session *agent.Session) {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("\n" + strings.Repeat("=", 70))
		fmt.Println("Chat Interface with Aidbox MCP Tools")
		fmt.Println(strings.Repeat("=", 70))
		fmt.Println("Type 'quit' or 'exit' to end the conversation")
		fmt.Println("The assistant has access to FHIR tools from Aidbox")
		fmt.Println()
	}

	// Reading stdin in a goroutine keeps the loop responsive to signals: an
	// interrupt ends the session even while blocked on input.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	sink := &printSink{}
	for {
		if interactive {
			fmt.Print("You: ")
		}
		select {
		case <-ctx.Done():
			fmt.Println("\nGoodbye!")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			switch strings.ToLower(input) {
			case "quit", "exit", "q":
				fmt.Println("Goodbye!")
				return
			}
			if err := session.Turn(ctx, input, sink); err != nil {
				fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			}
		}
	}
}

// printSink renders turn events for the terminal.
type printSink struct{}

func (printSink) ToolCall(name string, args map[string]any) {
	pretty, _ := json.MarshalIndent(args, "", "  ")
	fmt.Printf("\n[Calling tool: %s]\n[Arguments: %s]\n", name, pretty)
}

func (printSink) ToolResult(name, result string) {
	fmt.Printf("[Result: %s]\n", truncate(result, 200))
}

func (printSink) ToolError(name string, err error) {
	fmt.Printf("[Error calling tool: %v]\n", err)
}

func (printSink) Assistant(content string) {
	fmt.Printf("\nAssistant: %s\n\n", content)
}

func (printSink) Warning(content string) {
	fmt.Printf("\n[Warning: %s]\n\n", content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
