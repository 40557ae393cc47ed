package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// uriScheme is the custom URI scheme for Mantis resources.
const uriScheme = "mantis://"

// spaceInfo is the resource representation of a cached space.
type spaceInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Host       string `json:"host"`
	Connection string `json:"connection"`
	Created    string `json:"created"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "spaces",
		Name:        "spaces",
		Description: "Previously created spaces, keyed by the page they were built from",
		MIMEType:    "application/json",
	}, s.handleSpacesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "spaces/{spaceId}",
		Name:        "space",
		Description: "One cached space",
		MIMEType:    "application/json",
	}, s.handleSpaceResource)
}

// handleSpacesResource lists all cached spaces.
func (s *Server) handleSpacesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Spaces == nil {
		return jsonResource(req.Params.URI, []spaceInfo{})
	}

	spaces, err := s.ports.Spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}

	infos := make([]spaceInfo, len(spaces))
	for i, space := range spaces {
		infos[i] = newSpaceInfo(space)
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSpaceResource returns one cached space by id.
func (s *Server) handleSpaceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Spaces == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	spaceID := strings.TrimPrefix(req.Params.URI, uriScheme+"spaces/")
	if spaceID == "" || spaceID == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	spaces, err := s.ports.Spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	for _, space := range spaces {
		if space.ID == spaceID {
			return jsonResource(req.Params.URI, newSpaceInfo(space))
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func newSpaceInfo(space domain.StoredSpace) spaceInfo {
	return spaceInfo{
		ID:         space.ID,
		Name:       space.Name,
		URL:        space.URL,
		Host:       space.Host,
		Connection: space.ConnectionParent,
		Created:    space.DateCreated.Format(time.RFC3339),
	}
}

// jsonResource wraps a value as a JSON resource result.
func jsonResource(uri string, value any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
