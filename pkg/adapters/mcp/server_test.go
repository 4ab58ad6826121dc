package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct{}

func (fakeEngine) NodeExists(ctx context.Context, rootLayer string, path domain.Path) (bool, error) {
	return path == "/world", nil
}

func (fakeEngine) AttributeValue(ctx context.Context, rootLayer string, path domain.Path, attr string) (domain.Value, bool, error) {
	if attr == "count" {
		return domain.Int(3), true, nil
	}
	return domain.Value{}, false, nil
}

func (fakeEngine) Inspect(ctx context.Context, rootLayer string, path domain.Path) (*domain.PrimIndex, error) {
	site := domain.Site{LayerID: rootLayer, Path: path}
	return &domain.PrimIndex{
		Root:    site,
		Entries: []domain.IndexEntry{{Site: site, Transform: domain.IdentityTransform}},
		Errors:  []*domain.CompositionError{{Kind: domain.ErrorLayerNotFound, Site: site, Reference: domain.NewReference("gone.json")}},
	}, nil
}

func (fakeEngine) Layers() []string { return []string{"shot.json"} }

func TestNodeExists(t *testing.T) {
	s := NewServer(fakeEngine{}, "test", nil)
	ctx := context.Background()

	resp, err := s.handleNodeExists(ctx, mcp.CallToolRequest{}, map[string]interface{}{"layer": "shot.json", "path": "/world"})
	require.NoError(t, err)
	assert.True(t, resp.Exists)

	_, err = s.handleNodeExists(ctx, mcp.CallToolRequest{}, map[string]interface{}{"layer": "shot.json", "path": "world"})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = s.handleNodeExists(ctx, mcp.CallToolRequest{}, map[string]interface{}{"path": "/world"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestGetAttribute(t *testing.T) {
	s := NewServer(fakeEngine{}, "test", nil)
	ctx := context.Background()

	resp, err := s.handleGetAttribute(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"layer": "shot.json", "path": "/world", "attribute": "count",
	})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "int", resp.Type)
	assert.Equal(t, int64(3), resp.Value)

	resp, err = s.handleGetAttribute(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"layer": "shot.json", "path": "/world", "attribute": "missing",
	})
	require.NoError(t, err)
	assert.False(t, resp.Found)
}

func TestInspectIndex(t *testing.T) {
	s := NewServer(fakeEngine{}, "test", nil)

	req := mcp.CallToolRequest{}
	req.Params.Name = "inspect_index"
	req.Params.Arguments = map[string]any{"layer": "shot.json", "path": "/world"}

	res, err := s.handleInspect(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"layer":"shot.json"`)
	assert.Contains(t, text.Text, "LayerNotFound")
}
