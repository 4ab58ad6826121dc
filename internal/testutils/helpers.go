// Package testutils holds fixtures shared by adapter tests.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// NewLayerRepo initializes an unversioned Loam repository in a temp dir and
// returns its absolute path. Extra options are applied after the defaults.
func NewLayerRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "init layer repo")

	return dir, repo
}

// SeedLayers saves raw documents keyed by identifier (extension included).
func SeedLayers(t *testing.T, repo core.Repository, docs map[string]string) {
	t.Helper()
	ctx := context.Background()
	for id, content := range docs {
		require.NoError(t, repo.Save(ctx, core.Document{ID: id, Content: content}), "seed %s", id)
	}
}
