package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// ListConnectionsInput is the input schema for the list_connections tool.
type ListConnectionsInput struct {
	URL string `json:"url,omitempty" jsonschema:"only list connections whose trigger matches this URL"`
}

// ConnectionInfo describes one connection.
type ConnectionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListConnectionsOutput is the output schema for the list_connections tool.
type ListConnectionsOutput struct {
	Connections []ConnectionInfo `json:"connections"`
	Count       int              `json:"count"`
}

// CreateSpaceInput is the input schema for the create_space tool.
type CreateSpaceInput struct {
	URL        string `json:"url" jsonschema:"the page URL to create a space from"`
	Connection string `json:"connection,omitempty" jsonschema:"connection name to use; defaults to the first trigger match"`
	Name       string `json:"name,omitempty" jsonschema:"space name; connections may derive one when omitted"`
}

// CreateSpaceOutput is the output schema for the create_space tool.
type CreateSpaceOutput struct {
	SpaceID    string `json:"space_id"`
	Name       string `json:"name"`
	EmbedURL   string `json:"embed_url"`
	Connection string `json:"connection"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_connections",
		Description: "List the site connections that can build spaces, optionally filtered by URL",
	}, s.handleListConnections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_space",
		Description: "Extract a page and create a Mantis space from it",
	}, s.handleCreateSpace)
}

// handleListConnections handles the list_connections tool invocation.
func (s *Server) handleListConnections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListConnectionsInput,
) (*mcp.CallToolResult, ListConnectionsOutput, error) {
	connections := s.ports.Dispatcher.List()
	if input.URL != "" {
		connections = s.ports.Dispatcher.Search(input.URL)
	}

	output := ListConnectionsOutput{
		Connections: make([]ConnectionInfo, len(connections)),
		Count:       len(connections),
	}
	for i, connection := range connections {
		output.Connections[i] = ConnectionInfo{
			Name:        connection.Name(),
			Description: connection.Description(),
		}
	}

	return nil, output, nil
}

// handleCreateSpace handles the create_space tool invocation.
func (s *Server) handleCreateSpace(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateSpaceInput,
) (*mcp.CallToolResult, CreateSpaceOutput, error) {
	if input.URL == "" {
		return nil, CreateSpaceOutput{}, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	matches := s.ports.Dispatcher.Search(input.URL)
	if len(matches) == 0 {
		return nil, CreateSpaceOutput{}, fmt.Errorf("%w: no connection matches %s", domain.ErrNoConnection, input.URL)
	}

	connection := matches[0]
	if input.Connection != "" {
		connection = nil
		for _, match := range matches {
			if match.Name() == input.Connection {
				connection = match
				break
			}
		}
		if connection == nil {
			return nil, CreateSpaceOutput{}, fmt.Errorf("%w: connection %q does not match %s", domain.ErrNoConnection, input.Connection, input.URL)
		}
	}

	result, err := s.ports.Orchestrator.Create(ctx, connection, input.URL, input.Name, nil)
	if err != nil {
		return nil, CreateSpaceOutput{}, err
	}

	output := CreateSpaceOutput{
		SpaceID:    result.SpaceID,
		Name:       result.Name,
		Connection: connection.Name(),
	}
	if result.Portal != nil {
		output.EmbedURL = result.Portal.EmbedURL
	}
	return nil, output, nil
}
