package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/query"
)

func TestServer_HandleReadManifest(t *testing.T) {
	// Given: a server over a built index
	srv := newTestServer(t, &MockSearcher{})

	// When: reading the manifest resource
	res, err := srv.handleReadManifest(context.Background(), nil)

	// Then: the index status is returned as JSON
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, ManifestURI, res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var status IndexStatusOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &status))
	assert.Equal(t, 12, status.Records)
}

func TestServer_HandleReadManifest_Missing(t *testing.T) {
	previews := query.NewPreviewer(query.DirFetcher{Dir: t.TempDir()}, extract.Options{}, 0)
	srv, err := NewServer(&MockSearcher{}, previews, Options{IndexDir: t.TempDir()})
	require.NoError(t, err)

	_, err = srv.handleReadManifest(context.Background(), nil)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeIndexNotFound, mcpErr.Code)
}

func TestServer_Protocol_ReadManifest(t *testing.T) {
	cs := connect(t, newTestServer(t, &MockSearcher{}))

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: ManifestURI})

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"engine": "sqlite"`)
}
