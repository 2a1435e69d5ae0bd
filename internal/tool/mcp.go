package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/forumlabs/moot/internal/config"
)

// MCPServer is a connected MCP tool server. It satisfies Executor so its
// tools can be registered alongside local ones.
type MCPServer struct {
	name    string
	session *mcp.ClientSession
}

// ConnectMCP spawns the configured server process over stdio and performs
// the MCP handshake.
func ConnectMCP(ctx context.Context, cfg config.ToolServerConfig) (*MCPServer, error) {
	if len(cfg.Cmd) == 0 {
		return nil, fmt.Errorf("tool server %q has no command", cfg.Name)
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "moot",
		Version: "1.0.0",
	}, nil)

	transport := &mcp.CommandTransport{Command: exec.CommandContext(ctx, cfg.Cmd[0], cfg.Cmd[1:]...)}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect tool server %q: %w", cfg.Name, err)
	}

	log.Info().Str("server", cfg.Name).Msg("tool server connected")
	return &MCPServer{name: cfg.Name, session: session}, nil
}

// ConnectMCPSession wraps an already connected session, used by tests with
// in-memory transports.
func ConnectMCPSession(name string, session *mcp.ClientSession) *MCPServer {
	return &MCPServer{name: name, session: session}
}

// Close shuts the session and the server process down.
func (s *MCPServer) Close() error {
	return s.session.Close()
}

// Schemas lists the tools the server exposes.
func (s *MCPServer) Schemas(ctx context.Context) ([]Schema, error) {
	listed, err := s.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools on %q: %w", s.name, err)
	}

	schemas := make([]Schema, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		params, err := schemaToMap(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %q on %q: %w", t.Name, s.name, err)
		}
		schemas = append(schemas, Schema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return schemas, nil
}

// Execute implements Executor by forwarding the call over the session.
// A tool-level error result comes back as a Go error so the registry can
// encode it for the model.
func (s *MCPServer) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("call tool %q on %q: %w", name, s.name, err)
	}

	if result.IsError {
		return nil, errors.New(textContent(result))
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	return textContent(result), nil
}

// Register adds every tool the server exposes to the registry.
func (s *MCPServer) Register(ctx context.Context, registry *Registry) error {
	schemas, err := s.Schemas(ctx)
	if err != nil {
		return err
	}
	for _, schema := range schemas {
		registry.Register(schema, s)
	}
	return nil
}

func schemaToMap(schema any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode input schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	return out, nil
}

func textContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
