package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ManifestURI identifies the index manifest resource.
const ManifestURI = "docindex://manifest"

// registerManifestResource registers the index manifest as a resource.
func (s *Server) registerManifestResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "manifest",
			URI:         ManifestURI,
			Description: "Engine, record count and build time of the local docs index",
			MIMEType:    "application/json",
		},
		s.handleReadManifest,
	)
}

// handleReadManifest returns the index status as JSON.
func (s *Server) handleReadManifest(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	status, err := s.indexStatus(ctx)
	if err != nil {
		return nil, err
	}

	content, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      ManifestURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
